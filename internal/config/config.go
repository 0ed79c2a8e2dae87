package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shmuelia/LeadsManager/internal/database"
)

// Config LeadsManager (HTTP API + sync) configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Sync SyncConfig
}

// SyncConfig Google Sheets sync settings.
type SyncConfig struct {
	// FetchTimeout bounds one CSV export download (the original used 30s).
	FetchTimeout time.Duration
	// ExportBaseURL is the Google Sheets host; overridable for tests.
	ExportBaseURL string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":"+getEnv("PORT", "8080"))

	// Default to true; when the DB is unavailable the server falls back to
	// in-memory repositories so the dashboard endpoints still respond.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.URL = getEnv("DATABASE_URL", "")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "leadsmanager")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Sync.FetchTimeout = time.Duration(parseInt(getEnv("SYNC_FETCH_TIMEOUT_SECONDS", "30"), 30)) * time.Second
	cfg.Sync.ExportBaseURL = getEnv("SYNC_EXPORT_BASE_URL", "https://docs.google.com")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
