// Package config loads the engine configuration from the environment.
// Everything that reads an environment variable lives here; the rest of the
// codebase receives a Config value at construction time.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	DBPath   string

	JiraBaseURL  string
	JiraToken    string
	TempoBaseURL string
	TempoToken   string

	// CronSecret authenticates scheduled callers of the sync endpoints.
	CronSecret string
	// SyncCron is the backfill schedule (standard 5-field cron expression).
	SyncCron string

	HTTPTimeout   time.Duration
	SyncChunkSize int // max issue ids per worklog query
	SyncPageSize  int // page size for both trackers
	BackfillBatch int // contracts per cron invocation
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	return Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		DBPath:   getenv("DB_PATH", "billing.db"),

		JiraBaseURL:  getenv("JIRA_BASE_URL", ""),
		JiraToken:    getenv("JIRA_TOKEN", ""),
		TempoBaseURL: getenv("TEMPO_BASE_URL", ""),
		TempoToken:   getenv("TEMPO_TOKEN", ""),

		CronSecret: getenv("CRON_SECRET", ""),
		SyncCron:   getenv("SYNC_CRON", "0 3 * * *"),

		HTTPTimeout:   dur("HTTP_TIMEOUT", 15*time.Second),
		SyncChunkSize: atoi("SYNC_CHUNK_SIZE", 50),
		SyncPageSize:  atoi("SYNC_PAGE_SIZE", 100),
		BackfillBatch: atoi("BACKFILL_BATCH", 5),
	}
}
