// Package sqldbtest opens migrated SQLite databases for tests.
package sqldbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

// Open creates a migrated SQLite database in a temporary directory, closed on cleanup
func Open(t testing.TB) *sqldb.DB {
	t.Helper()

	cfg := sqldb.Config{
		Driver:       sqldb.DialectSQLite,
		Path:         filepath.Join(t.TempDir(), "procurement.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}

	db, err := sqldb.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqldb.NewMigrator(db, zap.NewNop()).Up())
	return db
}

// SeedDirectory inserts master data rows
func SeedDirectory(t testing.TB, db *sqldb.DB, projects, groups, employees map[int64]string) {
	t.Helper()

	ctx := context.Background()
	insert := func(table string, rows map[int64]string) {
		for id, name := range rows {
			_, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO "+table+" (id, name) VALUES (?, ?)", id, name)
			require.NoError(t, err)
		}
	}
	insert("master_projects", projects)
	insert("master_groups", groups)
	insert("master_employees", employees)
}
