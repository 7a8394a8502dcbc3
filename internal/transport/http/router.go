package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wx-callback-gateway/internal/application/auth"
	"github.com/wx-callback-gateway/internal/application/callback"
	"github.com/wx-callback-gateway/internal/config"
	"github.com/wx-callback-gateway/internal/pkg/sessioncookie"
	"github.com/wx-callback-gateway/internal/transport/http/handler"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // the polling client sends the session cookie
		MaxAge:           300,
	}))

	callbackSvc := callback.NewService(deps.Store, callback.Config{
		Token:   cfg.WeChatToken,
		AESKey:  cfg.WeChatAESKey,
		AppID:   cfg.WeChatAppID,
		SiteURL: cfg.SiteURL,
	})
	authSvc := auth.NewService(deps.Store)
	cookieCfg := sessioncookie.Config{
		Name:   cfg.SessionCookieName,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.IsProduction(),
	}

	callbackH := handler.NewCallbackHandler(callbackSvc)
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(authSvc, cookieCfg, cfg.SessionSecret)
	healthH := handler.NewHealthHandler(deps.Store)

	r.Route("/api", func(r chi.Router) {
		// Platform-facing callback. Authenticated by signature, not cookies.
		r.Get("/wechat/message", callbackH.Verify)
		r.Post("/wechat/message", callbackH.Message)

		// Web-client flows.
		r.Post("/auth/setup", authH.Setup)
		r.Get("/auth/check", authH.Check)
		r.Get("/auth/session", sessionH.Get)
		r.Post("/auth/session", sessionH.Set)
		r.Delete("/auth/session", sessionH.Clear)

		r.Get("/health-check", healthH.Ping)

		if !cfg.IsProduction() {
			r.Post("/test/simulate-subscribe", authH.SimulateSubscribe)
		}
	})

	return r
}
