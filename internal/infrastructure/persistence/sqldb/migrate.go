package sqldb

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations for the pool's dialect
type Migrator struct {
	db     *DB
	logger *zap.Logger
	mig    *migrate.Migrate
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	mig, err := m.instance()
	if err != nil {
		return err
	}

	m.logger.Info("Starting database migrations", zap.String("dialect", string(m.db.dialect)))
	if err := mig.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Database schema is up to date")
			return nil
		}
		m.logger.Error("Migration failed", zap.Error(err))
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, _, _ := mig.Version()
	m.logger.Info("Database migrations completed", zap.Uint("version", version))
	return nil
}

// Down rolls back the given number of migrations
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	mig, err := m.instance()
	if err != nil {
		return err
	}
	if err := mig.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.logger.Error("Migration rollback failed", zap.Error(err))
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	m.logger.Info("Database migrations rolled back", zap.Int("steps", steps))
	return nil
}

// Version returns the applied schema version and whether it is dirty
func (m *Migrator) Version() (uint, bool, error) {
	mig, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// instance lazily builds a migrate.Migrate over the shared pool. It is never
// closed: closing it would close the pool owned by DB.
func (m *Migrator) instance() (*migrate.Migrate, error) {
	if m.mig != nil {
		return m.mig, nil
	}

	var (
		dir    string
		driver database.Driver
		err    error
	)

	switch m.db.dialect {
	case DialectSQLite:
		dir = "migrations/sqlite"
		driver, err = migratesqlite.WithInstance(m.db.sqlDB, &migratesqlite.Config{})
	case DialectPostgres:
		dir = "migrations/postgres"
		driver, err = migratepgx.WithInstance(m.db.sqlDB, &migratepgx.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", m.db.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", source, string(m.db.dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.mig = mig
	return mig, nil
}
