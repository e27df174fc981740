package repository

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

// DirectoryRepository implements port.DirectoryLookup over the master data tables
type DirectoryRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new master data lookup
func NewDirectoryRepository(db *sqldb.DB, logger *zap.Logger) port.DirectoryLookup {
	return &DirectoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DirectoryRepository) ProjectName(ctx context.Context, id int64) (string, error) {
	return r.name(ctx, "master_projects", "project", id)
}

func (r *DirectoryRepository) GroupName(ctx context.Context, id int64) (string, error) {
	return r.name(ctx, "master_groups", "group", id)
}

func (r *DirectoryRepository) EmployeeName(ctx context.Context, id int64) (string, error) {
	return r.name(ctx, "master_employees", "employee", id)
}

func (r *DirectoryRepository) name(ctx context.Context, table, what string, id int64) (string, error) {
	var name string
	err := r.db.Conn(ctx).QueryRowContext(ctx, "SELECT name FROM "+table+" WHERE id = ?", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", workflow.NotFound("%s %d not found", what, id)
	}
	if err != nil {
		r.logger.Error("Failed to look up master data", zap.String("table", table), zap.Int64("id", id), zap.Error(err))
		return "", workflow.Storage("failed to look up "+what, err)
	}
	return name, nil
}
