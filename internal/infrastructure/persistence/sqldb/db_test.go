package sqldb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb/sqldbtest"
)

func insertProject(ctx context.Context, t *testing.T, db *sqldb.DB, id int64, name string) error {
	t.Helper()
	_, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO master_projects (id, name) VALUES (?, ?)", id, name)
	return err
}

func countProjects(t *testing.T, db *sqldb.DB) int {
	t.Helper()
	var n int
	ctx := context.Background()
	require.NoError(t, db.Conn(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM master_projects").Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db := sqldbtest.Open(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, sqldb.InTransaction(ctx))
		return insertProject(ctx, t, db, 1, "Radar")
	})

	require.NoError(t, err)
	assert.Equal(t, 1, countProjects(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := sqldbtest.Open(t)
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, insertProject(ctx, t, db, 1, "Radar"))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countProjects(t, db))
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db := sqldbtest.Open(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			require.NoError(t, insertProject(ctx, t, db, 1, "Radar"))
			panic("kaboom")
		})
	})

	assert.Equal(t, 0, countProjects(t, db))
}

func TestWithTransaction_NestedReusesOuter(t *testing.T) {
	db := sqldbtest.Open(t)
	boom := errors.New("outer failed")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		innerErr := db.WithTransaction(ctx, func(ctx context.Context) error {
			return insertProject(ctx, t, db, 2, "Sonar")
		})
		require.NoError(t, innerErr)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countProjects(t, db), "inner write must roll back with the outer transaction")
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := sqldbtest.Open(t)
	ctx := context.Background()

	insertIndent := func(indent string) error {
		_, err := db.Conn(ctx).ExecContext(ctx, `
			INSERT INTO procurements (indent_number, title, project_id, group_id, indentor_id, status, indent_date, created_at, updated_at)
			VALUES (?, 'Oscilloscope', 1, 1, 1, 'Indent Received', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, indent)
		return err
	}

	t.Run("unique index", func(t *testing.T) {
		require.NoError(t, insertIndent("IND-001"))
		err := insertIndent("IND-001")
		require.Error(t, err)
		assert.True(t, sqldb.IsUniqueViolation(err))
	})

	t.Run("primary key", func(t *testing.T) {
		require.NoError(t, insertProject(ctx, t, db, 1, "Radar"))
		err := insertProject(ctx, t, db, 1, "Radar again")
		require.Error(t, err)
		assert.True(t, sqldb.IsUniqueViolation(err))
	})

	t.Run("other errors", func(t *testing.T) {
		assert.False(t, sqldb.IsUniqueViolation(errors.New("other")))
		_, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO master_projects (id) VALUES (7)")
		require.Error(t, err, "name is NOT NULL")
		assert.False(t, sqldb.IsUniqueViolation(err))
	})
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	db := sqldbtest.Open(t)
	m := sqldb.NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestDB_Health(t *testing.T) {
	db := sqldbtest.Open(t)
	assert.NoError(t, db.Health(context.Background()))
	assert.Equal(t, sqldb.DialectSQLite, db.Dialect())
}

func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  sqldb.Config
	}{
		{"unknown driver", sqldb.Config{Driver: "mysql"}},
		{"sqlite without path", sqldb.Config{Driver: sqldb.DialectSQLite}},
		{"postgres without dsn", sqldb.Config{Driver: sqldb.DialectPostgres}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqldb.Open(context.Background(), tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}
