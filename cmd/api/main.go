package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wx-callback-gateway/internal/config"
	"github.com/wx-callback-gateway/internal/infrastructure/memstore"
	transporthttp "github.com/wx-callback-gateway/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.WeChatToken == "" {
		log.Println("WARN: WECHAT_TOKEN not set; callback requests will be rejected")
	}
	if cfg.WeChatAESKey == "" {
		log.Println("WARN: WECHAT_AES_KEY not set; secure-mode callbacks unavailable")
	}

	// Credential store, volatile by design. Starting it also starts the
	// background expiry sweeper.
	store := memstore.New(cfg.CodeTTL, cfg.SweepInterval)
	defer store.Stop()

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{Store: store})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
