package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultSyncInterval   = 15 * time.Minute
	defaultSyncTimeout    = 90 * time.Second
	defaultSyncWorkers    = 4
	defaultHealthInterval = time.Minute
)

type Config struct {
	DatabaseURL    string
	HTTPAddr       string
	MetricsAddr    string
	SyncInterval   time.Duration
	SyncTimeout    time.Duration
	SyncWorkers    int
	HealthInterval time.Duration
	VaultAddr      string
	VaultToken     string
	VaultNamespace string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HTTPAddr:       getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		SyncInterval:   getenvDurationDefault("SYNC_INTERVAL", defaultSyncInterval),
		SyncTimeout:    getenvDurationDefault("SYNC_TIMEOUT", defaultSyncTimeout),
		SyncWorkers:    getenvIntDefault("SYNC_WORKERS", defaultSyncWorkers),
		HealthInterval: getenvDurationDefault("HEALTH_INTERVAL", defaultHealthInterval),
		VaultAddr:      strings.TrimSpace(os.Getenv("VAULT_ADDR")),
		VaultToken:     strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
		VaultNamespace: strings.TrimSpace(os.Getenv("VAULT_NAMESPACE")),
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
