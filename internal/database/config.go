package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds state-database configuration.
type Config struct {
	Path                  string        `json:"path"`
	MaxConnections        int           `json:"maxConnections"`
	MaxIdleConns          int           `json:"maxIdleConns"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime"`
	ForceSingleConnection bool          `json:"forceSingleConnection"`

	JournalMode     string `json:"journalMode"`
	SynchronousMode string `json:"synchronousMode"`
	CacheSizeKB     int    `json:"cacheSizeKB"`
	BusyTimeoutMs   int    `json:"busyTimeoutMs"`
	ForeignKeys     bool   `json:"foreignKeys"`

	Environment string `json:"environment"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:            "retrace.db",
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSizeKB:     2000,
		BusyTimeoutMs:   30000,
		ForeignKeys:     true,
		Environment:     "production",
	}
}

// DevelopmentConfig returns a config for local development.
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "retrace_dev.db"
	config.Environment = "development"
	return config
}

// TestConfig returns an in-memory config for tests.
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.JournalMode = "MEMORY" // WAL is meaningless in memory
	config.SynchronousMode = "OFF"
	config.BusyTimeoutMs = 1000
	config.ForceSingleConnection = true
	return config
}

// ConfigForEnvironment returns the config for the given environment name.
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		config := DefaultConfig()
		config.Path = filepath.Join(".", "retrace.db")
		return config
	}
}

// LoadFromEnvironment applies RETRACE_DB_* overrides.
func (c *Config) LoadFromEnvironment() {
	if path := os.Getenv("RETRACE_DB_PATH"); path != "" {
		c.Path = path
	}
	if v := os.Getenv("RETRACE_DB_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxConnections = n
		}
	}
	if v := os.Getenv("RETRACE_DB_JOURNAL_MODE"); v != "" {
		c.JournalMode = v
	}
	if v := os.Getenv("RETRACE_DB_SYNCHRONOUS_MODE"); v != "" {
		c.SynchronousMode = v
	}
	if v := os.Getenv("RETRACE_DB_BUSY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.BusyTimeoutMs = n
		}
	}
	if v := os.Getenv("RETRACE_DB_FORCE_SINGLE_CONNECTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ForceSingleConnection = b
		}
	}
	if v := os.Getenv("RETRACE_ENVIRONMENT"); v != "" {
		c.Environment = v
	}
}

// Validate checks the configuration parameters.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Path != ":memory:" {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create database directory %s: %w", dir, err)
				}
			}
		}
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) must be between 0 and maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}

	validJournalModes := []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	journalOK := false
	for _, mode := range validJournalModes {
		if strings.EqualFold(c.JournalMode, mode) {
			journalOK = true
			break
		}
	}
	if !journalOK {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.CacheSizeKB <= 0 {
		return fmt.Errorf("cacheSizeKB must be positive, got %d", c.CacheSizeKB)
	}
	if c.BusyTimeoutMs < 0 {
		return fmt.Errorf("busyTimeoutMs cannot be negative, got %d", c.BusyTimeoutMs)
	}

	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	return nil
}

// ConnectionString builds the sqlite3 DSN with pragma parameters.
func (c *Config) ConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative cache size means KB to SQLite
	values.Set("_cache_size", fmt.Sprintf("%d", -c.CacheSizeKB))
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeoutMs))

	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}
	return path + "?" + values.Encode()
}

// IsInMemory reports whether the database lives in memory.
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}
