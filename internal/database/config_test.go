package database

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string // empty means valid
	}{
		{
			name:   "default config is valid",
			mutate: func(c *Config) {},
		},
		{
			name:     "empty path",
			mutate:   func(c *Config) { c.Path = "" },
			errorMsg: "database path cannot be empty",
		},
		{
			name: "in-memory with MEMORY journal",
			mutate: func(c *Config) {
				c.Path = ":memory:"
				c.JournalMode = "MEMORY"
			},
		},
		{
			name: "in-memory rejects WAL",
			mutate: func(c *Config) {
				c.Path = ":memory:"
				c.JournalMode = "WAL"
			},
			errorMsg: "cannot be WAL",
		},
		{
			name:     "zero max connections",
			mutate:   func(c *Config) { c.MaxConnections = 0 },
			errorMsg: "maxConnections must be positive",
		},
		{
			name:     "idle exceeds max",
			mutate:   func(c *Config) { c.MaxIdleConns = 10 },
			errorMsg: "maxIdleConns",
		},
		{
			name:     "bad journal mode",
			mutate:   func(c *Config) { c.JournalMode = "SCRIBBLE" },
			errorMsg: "invalid journalMode",
		},
		{
			name:     "bad synchronous mode",
			mutate:   func(c *Config) { c.SynchronousMode = "MAYBE" },
			errorMsg: "invalid synchronousMode",
		},
		{
			name:     "negative busy timeout",
			mutate:   func(c *Config) { c.BusyTimeoutMs = -1 },
			errorMsg: "busyTimeoutMs",
		},
		{
			name:     "unknown environment",
			mutate:   func(c *Config) { c.Environment = "staging" },
			errorMsg: "invalid environment",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	config := TestConfig()
	dsn := config.ConnectionString()

	if !strings.HasPrefix(dsn, ":memory:?") {
		t.Errorf("ConnectionString() = %q, want :memory: prefix", dsn)
	}
	for _, param := range []string{"_journal_mode=MEMORY", "_foreign_keys=on", "_busy_timeout=1000", "_cache_size=-2000"} {
		if !strings.Contains(dsn, param) {
			t.Errorf("ConnectionString() = %q, missing %q", dsn, param)
		}
	}
}

func TestConfigForEnvironment(t *testing.T) {
	t.Parallel()

	if c := ConfigForEnvironment("test"); !c.IsInMemory() || !c.ForceSingleConnection {
		t.Errorf("test config = %+v, want in-memory single connection", c)
	}
	if c := ConfigForEnvironment("development"); c.Environment != "development" {
		t.Errorf("development config environment = %q", c.Environment)
	}
	if c := ConfigForEnvironment("anything-else"); c.Environment != "production" {
		t.Errorf("fallback config environment = %q, want production", c.Environment)
	}
}

func TestTestConfig_Validates(t *testing.T) {
	t.Parallel()

	if err := TestConfig().Validate(); err != nil {
		t.Errorf("TestConfig().Validate() = %v", err)
	}
}
