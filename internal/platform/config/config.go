package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Addr string
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type OMDBConfig struct {
	BaseURL     string
	APIKey      string
	CacheTTLSec int
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	JWTSecret   string
	DatabaseURL string
	FrontendURL string
	UploadDir   string
	SMTP        SMTPConfig
	OMDB        OMDBConfig
}

func Load() (AppConfig, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		FrontendURL: strings.TrimSpace(os.Getenv("FRONTEND_URL")),
		UploadDir:   strings.TrimSpace(os.Getenv("UPLOAD_DIR")),
		SMTP: SMTPConfig{
			Host: strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port: strings.TrimSpace(os.Getenv("SMTP_PORT")),
			User: strings.TrimSpace(os.Getenv("SMTP_USER")),
			Pass: strings.TrimSpace(os.Getenv("SMTP_PASS")),
			From: strings.TrimSpace(os.Getenv("SMTP_FROM")),
		},
		OMDB: OMDBConfig{
			BaseURL:     strings.TrimSpace(os.Getenv("OMDB_BASE_URL")),
			APIKey:      strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
			CacheTTLSec: envInt("OMDB_CACHE_TTL_SEC", 300),
		},
	}
	if cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "movie-platform"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OMDB.BaseURL == "" {
		cfg.OMDB.BaseURL = "http://www.omdbapi.com"
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
