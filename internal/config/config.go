// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// server
	HTTPPort int

	// telegram
	TGApiID      int
	TGApiHash    string
	SessionDir   string
	SessionNames []string

	// resolution
	ScrapeBaseURL  string
	ScrapeTimeout  time.Duration
	FetchTimeout   time.Duration
	OverridesFile  string
	APIKeysFile    string
	NoticeChannel  string
	ReportInterval time.Duration

	// cache persistence
	CachePath         string
	CacheSaveInterval time.Duration

	// nats
	NatsURL     string
	NatsSubject string

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 1234),
		TGApiID:           getEnvInt("TG_API_ID", 0),
		TGApiHash:         getEnv("TG_API_HASH", ""),
		SessionDir:        getEnv("TG_SESSION_DIR", "./sessions"),
		SessionNames:      getEnvList("TG_SESSION_NAMES", []string{"session_0"}),
		ScrapeBaseURL:     getEnv("SCRAPE_BASE_URL", "https://t.me/"),
		ScrapeTimeout:     getEnvDuration("SCRAPE_TIMEOUT", 15*time.Second),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		OverridesFile:     getEnv("OVERRIDES_FILE", ""),
		APIKeysFile:       getEnv("API_KEYS_FILE", "./api_keys.yaml"),
		NoticeChannel:     getEnv("NOTICE_CHANNEL", ""),
		ReportInterval:    getEnvDuration("REPORT_INTERVAL", time.Hour),
		CachePath:         getEnv("CACHE_PATH", "./data/cache.db"),
		CacheSaveInterval: getEnvDuration("CACHE_SAVE_INTERVAL", time.Hour),
		NatsURL:           getEnv("NATS_URL", ""),
		NatsSubject:       getEnv("NATS_SUBJECT", "resolver.events"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration returns the duration value of an environment variable or a default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated environment variable into a list.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
