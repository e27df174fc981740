package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

const purchaseOrderColumns = `
	id, procurement_id, po_number, po_date, vendor_name, po_value, status,
	payment_completion_date, created_at, updated_at`

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sqldb.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a purchase order and sets its ID
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			procurement_id, po_number, po_date, vendor_name, po_value, status,
			payment_completion_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		po.ProcurementID,
		po.PONumber,
		po.PODate.UTC(),
		po.VendorName,
		po.POValue,
		string(po.Status),
		nullableTime(po.PaymentCompletionDate),
		po.CreatedAt.UTC(),
		po.UpdatedAt.UTC(),
	).Scan(&po.ID)
	if err != nil {
		r.logger.Error("Failed to create purchase order",
			zap.Int64("procurement_id", po.ProcurementID),
			zap.String("po_number", po.PONumber),
			zap.Error(err),
		)
		return workflow.Storage("failed to create purchase order", err)
	}

	return nil
}

// GetByID retrieves a purchase order by ID
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	query := "SELECT " + purchaseOrderColumns + " FROM purchase_orders WHERE id = ?"

	po, err := scanPurchaseOrder(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.NotFound("purchase order %d not found", id)
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order", zap.Int64("po_id", id), zap.Error(err))
		return nil, workflow.Storage("failed to get purchase order", err)
	}
	return po, nil
}

// UpdateStatus sets the payment status of a purchase order
func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, id int64, status workflow.POStatus, paymentDate *time.Time, updatedAt time.Time) error {
	query := `
		UPDATE purchase_orders
		SET status = ?, payment_completion_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Conn(ctx).ExecContext(ctx, query,
		string(status),
		nullableTime(paymentDate),
		updatedAt.UTC(),
		id,
	)
	if err != nil {
		r.logger.Error("Failed to update purchase order status",
			zap.Int64("po_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return workflow.Storage("failed to update purchase order status", err)
	}

	return requireAffected(result, "purchase order", id)
}

// ListByProcurement retrieves the purchase orders of a procurement, oldest first
func (r *PurchaseOrderRepository) ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.PurchaseOrder, error) {
	query := "SELECT " + purchaseOrderColumns + ` FROM purchase_orders
		WHERE procurement_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, procurementID)
	if err != nil {
		r.logger.Error("Failed to list purchase orders", zap.Int64("procurement_id", procurementID), zap.Error(err))
		return nil, workflow.Storage("failed to list purchase orders", err)
	}
	defer rows.Close()

	var orders []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, workflow.Storage("failed to scan purchase order", err)
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, workflow.Storage("failed to iterate purchase orders", err)
	}

	return orders, nil
}

func scanPurchaseOrder(row rowScanner) (*entity.PurchaseOrder, error) {
	var (
		po          entity.PurchaseOrder
		status      string
		paymentDate sql.NullTime
	)
	if err := row.Scan(
		&po.ID,
		&po.ProcurementID,
		&po.PONumber,
		&po.PODate,
		&po.VendorName,
		&po.POValue,
		&status,
		&paymentDate,
		&po.CreatedAt,
		&po.UpdatedAt,
	); err != nil {
		return nil, err
	}
	po.Status = workflow.POStatus(status)
	po.PaymentCompletionDate = timePtr(paymentDate)
	return &po, nil
}
