package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"brokle/internal/config"
)

// SQLiteDB is the Embedded backend connection. SQLite serializes
// writers internally, so the pool is capped at a single open
// connection to avoid "database is locked" errors under the
// UpdateQueue's already-serialized write path.
type SQLiteDB struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	logger *slog.Logger
}

// NewSQLiteDB dials the Embedded backend named by database.path,
// creating its parent directory if necessary.
func NewSQLiteDB(cfg *config.Config, logger *slog.Logger) (*SQLiteDB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Info("connected to embedded (SQLite) database", "path", cfg.Database.Path)

	return &SQLiteDB{DB: db, SqlDB: sqlDB, logger: logger}, nil
}

func (s *SQLiteDB) Close() error {
	s.logger.Info("closing SQLite connection")
	return s.SqlDB.Close()
}

func (s *SQLiteDB) Health() error {
	return s.SqlDB.Ping()
}
