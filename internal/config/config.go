package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	ShutdownTimeout time.Duration

	// StoragePreference picks the cart backend: automatic, document, legacy
	// or memory. An empty DBConnString makes automatic resolve to memory.
	StoragePreference string

	// MigrationPolicy is auto, manual or disabled; MigrationStrategy is abort
	// or degrade. MigrationID names the legacy copy pass in the ledger.
	MigrationPolicy   string
	MigrationStrategy string
	MigrationID       string
	LedgerNamespace   string

	CORSAllowedOrigins []string
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		DBConnString:       envOrDefault("DB_DSN", ""),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		StoragePreference:  envOrDefault("STORAGE_PREFERENCE", "automatic"),
		MigrationPolicy:    envOrDefault("MIGRATION_POLICY", "auto"),
		MigrationStrategy:  envOrDefault("MIGRATION_FAILURE_STRATEGY", "abort"),
		MigrationID:        envOrDefault("CART_MIGRATION_ID", "legacy-carts-v1"),
		LedgerNamespace:    envOrDefault("LEDGER_NAMESPACE", ""),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
