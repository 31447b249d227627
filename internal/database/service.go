package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"retrace/internal/infrastructure/errors"
	"retrace/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService implements Service for the engine's SQLite state database.
//
// Lifecycle: NewSQLiteService -> Connect -> Migrate -> DB()/repositories -> Close.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

// NewSQLiteService creates an unconnected SQLite database service.
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{logger: logger}
}

// Connect opens the database described by config, replacing any existing connection.
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if err := config.Validate(); err != nil {
		return errors.New("Connect", err, errors.ErrCodeValidation)
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.ConnectionString())
	if err != nil {
		return errors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to SQLite state database", "path", config.Path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}
	s.db = nil
	s.migrationRunner = nil
	s.logger.Info("Closed SQLite state database")
	return nil
}

// Migrate runs pending schema migrations.
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return errors.HandleConnectionError("Migrate", "database not connected")
	}
	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return errors.WrapStorageErrorWithContext("Migrate", err, map[string]string{"phase": "validation"})
	}
	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return errors.WrapStorageErrorWithContext("Migrate", err, map[string]string{"phase": "execution"})
	}
	return nil
}

// Health checks the connection with a ping and a trivial query.
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return errors.HandleConnectionError("Health", "database not connected")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return errors.WrapStorageErrorWithContext("Health", err, map[string]string{"phase": "ping"})
	}
	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return errors.WrapStorageErrorWithContext("Health", err, map[string]string{"phase": "query"})
	}
	if result != 1 {
		return errors.HandleValidationError("Health", "query_result", fmt.Sprintf("expected 1, got %d", result))
	}
	return nil
}

// DB exposes the underlying connection for repositories.
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the current schema version.
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, errors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}
	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, errors.WrapStorageError("GetMigrationVersion", err)
	}
	return version, nil
}

// Optimize runs ANALYZE and VACUUM to keep the state file compact.
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return errors.HandleConnectionError("Optimize", "database not connected")
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return errors.WrapStorageErrorWithContext("Optimize", err, map[string]string{"phase": "analyze"})
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return errors.WrapStorageErrorWithContext("Optimize", err, map[string]string{"phase": "vacuum"})
	}
	s.logger.Info("State database optimization completed")
	return nil
}

// GetStats returns connection pool statistics.
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// configureConnectionPool applies SQLite-appropriate pool limits.
// Without WAL, SQLite should stay on a single connection to avoid lock churn.
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxConns := config.MaxConnections
		if maxConns <= 0 || maxConns > 4 {
			maxConns = 4
		}
		idleConns := config.MaxIdleConns
		if idleConns <= 0 {
			idleConns = 1
		}
		if idleConns > maxConns {
			idleConns = maxConns
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}
