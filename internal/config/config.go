package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	AppPort           string
	DBDriver          string
	DatabaseURL       string
	MongoDatabase     string
	DBTimeout         time.Duration
	JWTSecret         string
	TokenExpires      time.Duration
	KakaoClientID     string
	KakaoAuthURL      string
	KakaoAPIURL       string
	TelegramBotToken  string
	TelegramAdminChat string
	ReconcileInterval time.Duration
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		DBDriver:          getEnv("DB_DRIVER", "mongo"),
		DatabaseURL:       getEnv("DATABASE_URL", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "bakery"),
		DBTimeout:         getEnvDuration("DB_TIMEOUT_SECONDS", 10) * time.Second,
		JWTSecret:         getEnv("JWT_SECRET", "b7c1f0d2e4a64f0c9a2de6b1c8f7a3e5d9b0c4a1f6e2d7c3b8a5f1e0d4c9b2a7"),
		TokenExpires:      getEnvDuration("TOKEN_TTL_HOURS", 2) * time.Hour,
		KakaoClientID:     getEnv("KAKAO_CLIENT_ID", ""),
		KakaoAuthURL:      getEnv("KAKAO_AUTH_URL", "https://kauth.kakao.com"),
		KakaoAPIURL:       getEnv("KAKAO_API_URL", "https://kapi.kakao.com"),
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChat: getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL_MINUTES", 0) * time.Minute,
	}

	if cfg.AppPort == "" {
		log.Fatal("APP_PORT must be set")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
