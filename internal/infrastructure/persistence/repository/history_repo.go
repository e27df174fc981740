package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

// HistoryRepository implements port.LedgerRepository on the procurement_history table.
// It only ever inserts and reads.
type HistoryRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqldb.DB, logger *zap.Logger) port.LedgerRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append records one status change and returns its ID
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) (int64, error) {
	query := `
		INSERT INTO procurement_history (
			procurement_id, old_status, new_status, remarks, changed_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	var oldStatus interface{}
	if entry.OldStatus != nil {
		oldStatus = entry.OldStatus.String()
	}

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		entry.ProcurementID,
		oldStatus,
		entry.NewStatus,
		entry.Remarks,
		entry.ChangedBy,
		entry.Timestamp.UTC(),
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to append history entry",
			zap.Int64("procurement_id", entry.ProcurementID),
			zap.String("new_status", entry.NewStatus.String()),
			zap.Error(err),
		)
		return 0, workflow.Storage("failed to append history entry", err)
	}

	return entry.ID, nil
}

// ListByProcurement retrieves the ledger of a procurement ordered by timestamp, then id
func (r *HistoryRepository) ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, procurement_id, old_status, new_status, remarks, changed_by, created_at
		FROM procurement_history
		WHERE procurement_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, procurementID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("procurement_id", procurementID), zap.Error(err))
		return nil, workflow.Storage("failed to get history", err)
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var (
			e         entity.HistoryEntry
			oldStatus sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.ProcurementID,
			&oldStatus,
			&e.NewStatus,
			&e.Remarks,
			&e.ChangedBy,
			&e.Timestamp,
		); err != nil {
			return nil, workflow.Storage("failed to scan history entry", err)
		}
		if oldStatus.Valid {
			s, err := workflow.ParseStatus(oldStatus.String)
			if err != nil {
				return nil, workflow.Storage("history entry has unknown old status", err)
			}
			e.OldStatus = &s
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, workflow.Storage("failed to iterate history", err)
	}

	return entries, nil
}
