package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Pipeline PipelineConfig
	Calendar CalendarConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	Driver       string // sqlite, postgres or mariadb (default sqlite)
	URL          string // DSN for the chosen driver (default dateguard.db for sqlite)
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type ServerConfig struct {
	Host string // bind address (default empty = all interfaces)
	Port int    // HTTP port (default 8080)
}

type PipelineConfig struct {
	Threshold      int // Hamming distance at or below which photos are duplicates (default 5)
	Workers        int // task queue worker count (default 4)
	MaxRetries     int // retries for transient failures (default 3)
	BackoffMs      int // base retry backoff in milliseconds (default 500)
	InitialDelayMs int // delay before processing a fresh upload (default 1000)
}

// Backoff returns the base retry backoff as a duration.
func (c PipelineConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMs) * time.Millisecond
}

// InitialDelay returns the post-upload processing delay as a duration.
func (c PipelineConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

type CalendarConfig struct {
	DataPath string // optional YAML dataset overriding the embedded one
}

type StorageConfig struct {
	Root string // directory holding the uploaded photo files (default ./photos)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       envString("DATABASE_DRIVER", "sqlite"),
			URL:          envString("DATABASE_URL", "dateguard.db"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Server: ServerConfig{
			Host: os.Getenv("SERVER_HOST"),
			Port: envInt("SERVER_PORT", 8080),
		},
		Pipeline: PipelineConfig{
			Threshold:      envInt("PIPELINE_THRESHOLD", 5),
			Workers:        envInt("PIPELINE_WORKERS", 4),
			MaxRetries:     envInt("PIPELINE_MAX_RETRIES", 3),
			BackoffMs:      envInt("PIPELINE_BACKOFF_MS", 500),
			InitialDelayMs: envInt("PIPELINE_INITIAL_DELAY_MS", 1000),
		},
		Calendar: CalendarConfig{
			DataPath: os.Getenv("CALENDAR_DATA_PATH"),
		},
		Storage: StorageConfig{
			Root: envString("STORAGE_ROOT", "./photos"),
		},
	}
}
