package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sqldb.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all items of a procurement and sets their IDs.
// Call it inside a transaction so a failed row leaves no partial set.
func (r *ItemRepository) CreateBatch(ctx context.Context, procurementID int64, items []*entity.Item) error {
	query := `
		INSERT INTO procurement_items (procurement_id, name, quantity, specification)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	conn := r.db.Conn(ctx)
	for _, item := range items {
		item.ProcurementID = procurementID
		if err := conn.QueryRowContext(ctx, query,
			procurementID,
			item.Name,
			item.Quantity,
			item.Specification,
		).Scan(&item.ID); err != nil {
			r.logger.Error("Failed to create item",
				zap.Int64("procurement_id", procurementID),
				zap.String("name", item.Name),
				zap.Error(err),
			)
			return workflow.Storage("failed to create item", err)
		}
	}

	return nil
}

// ListByProcurement retrieves the items of a procurement in insertion order
func (r *ItemRepository) ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.Item, error) {
	query := `
		SELECT id, procurement_id, name, quantity, specification
		FROM procurement_items
		WHERE procurement_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, procurementID)
	if err != nil {
		r.logger.Error("Failed to list items", zap.Int64("procurement_id", procurementID), zap.Error(err))
		return nil, workflow.Storage("failed to list items", err)
	}
	defer rows.Close()

	var items []*entity.Item
	for rows.Next() {
		var item entity.Item
		if err := rows.Scan(
			&item.ID,
			&item.ProcurementID,
			&item.Name,
			&item.Quantity,
			&item.Specification,
		); err != nil {
			return nil, workflow.Storage("failed to scan item", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, workflow.Storage("failed to iterate items", err)
	}

	return items, nil
}
