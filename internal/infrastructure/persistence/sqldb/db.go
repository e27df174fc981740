package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// DB wraps sql.DB, knows its SQL dialect and implements TransactionManager
type DB struct {
	sqlDB   *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewDB creates a new database wrapper around an open pool
func NewDB(sqlDB *sql.DB, dialect Dialect, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		sqlDB:   sqlDB,
		dialect: dialect,
		logger:  logger,
	}
}

// SQL exposes the underlying pool
func (db *DB) SQL() *sql.DB {
	return db.sqlDB
}

// Dialect returns the SQL dialect of the pool
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// WithTransaction implements port.TransactionManager.
// A transaction already carried by ctx is reused; otherwise a new one is opened,
// committed when fn returns nil and rolled back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := extractTx(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

// Conn returns an executor bound to the transaction in ctx, or to the pool
func (db *DB) Conn(ctx context.Context) Executor {
	if tx := extractTx(ctx); tx != nil {
		return Executor{q: tx, dialect: db.dialect}
	}
	return Executor{q: db.sqlDB, dialect: db.dialect}
}

// Health pings the database
func (db *DB) Health(ctx context.Context) error {
	if err := db.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the pool
func (db *DB) Close() error {
	db.logger.Info("Closing database connection", zap.String("dialect", string(db.dialect)))
	return db.sqlDB.Close()
}

// extractTx retrieves transaction from context if present
func extractTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// querier covers both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Executor runs queries written with ? placeholders against the pool or the
// current transaction, rebinding them for the dialect.
type Executor struct {
	q       querier
	dialect Dialect
}

func (e Executor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return e.q.ExecContext(ctx, e.dialect.Rebind(query), args...)
}

func (e Executor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return e.q.QueryContext(ctx, e.dialect.Rebind(query), args...)
}

func (e Executor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return e.q.QueryRowContext(ctx, e.dialect.Rebind(query), args...)
}

// Verify interface compliance
var _ port.TransactionManager = (*DB)(nil)
