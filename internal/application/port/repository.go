package port

import (
	"context"
	"time"

	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// ProcurementRepository defines persistence operations for the Procurement aggregate root.
// Lookups return a workflow NotFound error when the row does not exist.
type ProcurementRepository interface {
	// Create inserts the procurement and sets its ID; a taken indent number yields DuplicateIndentNumber
	Create(ctx context.Context, p *entity.Procurement) error
	GetByID(ctx context.Context, id int64) (*entity.Procurement, error)

	// GetByIDForUpdate re-reads the procurement holding a write lock until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Procurement, error)

	GetByIndentNumber(ctx context.Context, indentNumber string) (*entity.Procurement, error)
	UpdateStatus(ctx context.Context, id int64, update StatusUpdate) error

	// Delete removes the procurement; items, bids, purchase orders and history cascade
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter ListFilter) ([]*entity.Procurement, error)
}

// StatusUpdate carries the status column plus the optional fields an operation sets with it.
// Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	Status                 workflow.Status
	SourcingMethod         *workflow.SourcingMethod
	AcceptanceDate         *time.Time
	FinalizedBidID         *int64
	VendorFinalizationDate *time.Time
	UpdatedAt              time.Time
}

// ListFilter narrows a procurement listing; zero values match everything
type ListFilter struct {
	StatusKind workflow.StatusKind
	ProjectID  int64
	GroupID    int64
	Limit      int
	Offset     int
}

// ItemRepository defines persistence operations for indent items
type ItemRepository interface {
	CreateBatch(ctx context.Context, procurementID int64, items []*entity.Item) error
	ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.Item, error)
}

// BidRepository defines persistence operations for Bid
type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	GetByID(ctx context.Context, id int64) (*entity.Bid, error)

	// Latest returns the most recently created bid of a procurement, or NotFound
	Latest(ctx context.Context, procurementID int64) (*entity.Bid, error)

	ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.Bid, error)
}

// PurchaseOrderRepository defines persistence operations for PurchaseOrder
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id int64, status workflow.POStatus, paymentDate *time.Time, updatedAt time.Time) error
	ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.PurchaseOrder, error)
}

// LedgerRepository is the append-only status history; entries are never updated or deleted
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.HistoryEntry) (int64, error)

	// ListByProcurement returns entries ordered by timestamp, then id
	ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.HistoryEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
