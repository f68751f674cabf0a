package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP change feed. An empty URL disables the feed; writes then
	// refresh the store synchronously. The exchange fans out to one
	// queue per consumer, so the API server and the mirror worker need
	// distinct queue names to both see every message.
	AMQPURL         string
	AMQPExchange    string
	AMQPAPIQueue    string
	AMQPMirrorQueue string

	// Google Sheets mirror (worker binary only)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Import
	ImportWorkers int

	// Owner identity for single-user deployments
	OwnerID    string
	OwnerName  string
	OwnerEmail string

	// HTTP rate limiting
	RateLimitPerMinute int

	// Graceful shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financy.db"),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "financy"),
		AMQPAPIQueue:    getEnv("AMQP_API_QUEUE", "entry_changes.api"),
		AMQPMirrorQueue: getEnv("AMQP_MIRROR_QUEUE", "entry_changes.mirror"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Entries"),

		ImportWorkers: getEnvInt("IMPORT_WORKERS", 4),

		OwnerID:    getEnv("OWNER_ID", "local"),
		OwnerName:  getEnv("OWNER_NAME", "Local User"),
		OwnerEmail: getEnv("OWNER_EMAIL", ""),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAPIQueue == "" {
			errors = append(errors, "AMQP API queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPMirrorQueue == "" {
			errors = append(errors, "AMQP mirror queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAPIQueue != "" && c.AMQPAPIQueue == c.AMQPMirrorQueue {
			errors = append(errors, fmt.Sprintf("AMQP API and mirror queues must differ, both are '%s': sharing one queue splits the feed between consumers", c.AMQPAPIQueue))
		}
	}

	if c.ImportWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid import workers %d: must be at least 1", c.ImportWorkers))
	} else if c.ImportWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid import workers %d: must be at most 64", c.ImportWorkers))
	}

	if strings.TrimSpace(c.OwnerID) == "" {
		errors = append(errors, "owner id cannot be empty")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
