package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"brokle/internal/config"
)

// PostgresDB is the Hosted backend connection: a GORM handle over
// Postgres plus standard connection-pool knobs.
type PostgresDB struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	logger *slog.Logger
}

// NewPostgresDB dials the Hosted backend named by database.hosted_url
// or database.connection_string.
func NewPostgresDB(cfg *config.Config, logger *slog.Logger) (*PostgresDB, error) {
	dsn := cfg.Database.ConnectionString
	if dsn == "" {
		dsn = cfg.Database.HostedURL
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Warn),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("connected to hosted (PostgreSQL) database")

	return &PostgresDB{DB: db, SqlDB: sqlDB, logger: logger}, nil
}

func (p *PostgresDB) Close() error {
	p.logger.Info("closing PostgreSQL connection")
	return p.SqlDB.Close()
}

func (p *PostgresDB) Health() error {
	return p.SqlDB.Ping()
}

func (p *PostgresDB) GetStats() sql.DBStats {
	return p.SqlDB.Stats()
}
