package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Config holds connection settings for either dialect
type Config struct {
	Driver          Dialect
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn, err := cfg.dataSourceName()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DialectSQLite {
		logger.Info("Database connection established",
			zap.String("driver", string(cfg.Driver)),
			zap.String("path", cfg.Path),
		)
	} else {
		logger.Info("Database connection established", zap.String("driver", string(cfg.Driver)))
	}

	return NewDB(sqlDB, cfg.Driver, logger), nil
}

// dataSourceName builds the driver DSN. SQLite gets WAL, foreign keys, a busy
// timeout and IMMEDIATE transactions so the write lock is held from BEGIN.
func (cfg Config) dataSourceName() (string, error) {
	switch cfg.Driver {
	case DialectSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite database path is required")
		}
		busy := cfg.BusyTimeout
		if busy <= 0 {
			busy = 5 * time.Second
		}
		params := url.Values{}
		params.Set("_journal_mode", "WAL")
		params.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))
		params.Set("_foreign_keys", "on")
		params.Set("_txlock", "immediate")
		return "file:" + cfg.Path + "?" + params.Encode(), nil
	case DialectPostgres:
		if cfg.DSN == "" {
			return "", fmt.Errorf("postgres dsn is required")
		}
		return cfg.DSN, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
