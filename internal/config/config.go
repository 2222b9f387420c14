package config

import (
	"os"
	"strconv"
)

// Config holds runtime settings loaded from environment variables.
type Config struct {
	Addr string // HIRETRACK_ADDR, default ":8080"
	DSN  string // HIRETRACK_DSN, postgres connection string

	// Cron spec for the daily escalation sweep. Fixed daily cadence, the hour
	// is the only thing deployments tune.
	EscalationCron string // HIRETRACK_ESCALATION_CRON, default "0 6 * * *"

	// Delayed-action queue poll interval in seconds.
	QueuePollSeconds int // HIRETRACK_QUEUE_POLL_SECONDS, default 30

	// Page size for the scheduler's per-tenant application scan.
	ScanBatchSize int // HIRETRACK_SCAN_BATCH, default 200
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Addr:             envOr("HIRETRACK_ADDR", ":8080"),
		DSN:              envOr("HIRETRACK_DSN", "host=localhost user=postgres password=password dbname=hiretrack port=5432 sslmode=disable"),
		EscalationCron:   envOr("HIRETRACK_ESCALATION_CRON", "0 6 * * *"),
		QueuePollSeconds: envIntOr("HIRETRACK_QUEUE_POLL_SECONDS", 30),
		ScanBatchSize:    envIntOr("HIRETRACK_SCAN_BATCH", 200),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
