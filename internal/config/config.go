package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	SiteURL string // public site URL embedded in reply templates

	// Official-account callback credentials.
	WeChatToken  string // shared callback token for signature checks
	WeChatAESKey string // 43-char EncodingAESKey (empty disables secure mode)
	WeChatAppID  string
	AccountName  string // display name used in reply templates

	CodeTTL       time.Duration // verification code lifetime
	SweepInterval time.Duration // background reclamation interval

	SessionSecret     string
	SessionCookieName string
	SessionMaxAge     int // seconds

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		SiteURL: getEnv("SITE_URL", "http://localhost:3000"),

		WeChatToken:  getEnv("WECHAT_TOKEN", ""),
		WeChatAESKey: getEnv("WECHAT_AES_KEY", ""),
		WeChatAppID:  getEnv("WECHAT_APP_ID", ""),
		AccountName:  getEnv("WECHAT_ACCOUNT_NAME", "公众号"),

		CodeTTL:       time.Duration(getEnvInt("CODE_EXPIRY", 300)) * time.Second,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL", 60)) * time.Second,

		SessionSecret:     getEnv("SESSION_SECRET", "dev-secret-change-in-production"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "wxauth-session"),
		SessionMaxAge:     getEnvInt("SESSION_MAX_AGE", 24*60*60),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies, no test endpoints).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
