package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// WorkflowEngine is the procurement lifecycle API.
// Every mutating operation runs in one transaction and returns the committed aggregate.
type WorkflowEngine interface {
	CreateProcurement(ctx context.Context, req CreateProcurementRequest) (*ProcurementView, error)
	Approve(ctx context.Context, procurementID int64, req ApproveRequest) (*ProcurementView, error)
	SelectSourcing(ctx context.Context, procurementID int64, req SelectSourcingRequest) (*ProcurementView, error)
	AddBid(ctx context.Context, procurementID int64, req AddBidRequest) (*ProcurementView, error)
	FinalizeVendor(ctx context.Context, procurementID int64, req FinalizeVendorRequest) (*ProcurementView, error)
	CreatePurchaseOrder(ctx context.Context, procurementID int64, req CreatePurchaseOrderRequest) (*ProcurementView, error)
	UpdatePOStatus(ctx context.Context, procurementID, poID int64, req UpdatePOStatusRequest) (*ProcurementView, error)

	// SetStatus moves the procurement to any enum member; setting the current status is a no-op
	SetStatus(ctx context.Context, procurementID int64, req SetStatusRequest) (*ProcurementView, error)

	// DeleteProcurement removes the aggregate while it is Indent Received or Rejected by any role
	DeleteProcurement(ctx context.Context, procurementID int64) error

	GetProcurement(ctx context.Context, procurementID int64) (*ProcurementView, error)
	ListProcurements(ctx context.Context, filter port.ListFilter) ([]*entity.Procurement, error)
	History(ctx context.Context, procurementID int64) ([]*entity.HistoryEntry, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ItemInput is one indent line
type ItemInput struct {
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	Specification string `json:"specification,omitempty"`
}

type CreateProcurementRequest struct {
	IndentNumber  string          `json:"indent_number"`
	Title         string          `json:"title"`
	ProjectID     int64           `json:"project_id"`
	GroupID       int64           `json:"group_id"`
	IndentorID    int64           `json:"indentor_id"`
	PurchaseType  string          `json:"purchase_type"`
	DeliveryPlace string          `json:"delivery_place"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	IndentDate    time.Time       `json:"indent_date"`
	Items         []ItemInput     `json:"items"`
	Remarks       string          `json:"remarks,omitempty"`
}

type ApproveRequest struct {
	Role     domainwf.Role     `json:"role"`
	Decision domainwf.Decision `json:"decision"`
	Remarks  string            `json:"remarks,omitempty"`
}

type SelectSourcingRequest struct {
	Method  domainwf.SourcingMethod `json:"method"`
	Remarks string                  `json:"remarks,omitempty"`
}

type AddBidRequest struct {
	VendorName string          `json:"vendor_name"`
	Amount     decimal.Decimal `json:"amount"`
	BidCount   int             `json:"bid_count"`
	Notes      string          `json:"notes,omitempty"`
}

type FinalizeVendorRequest struct {
	BidID            int64     `json:"bid_id"`
	FinalizationDate time.Time `json:"finalization_date"`
	Remarks          string    `json:"remarks,omitempty"`
}

type CreatePurchaseOrderRequest struct {
	PONumber     string          `json:"po_number"`
	PODate       time.Time       `json:"po_date"`
	POValue      decimal.Decimal `json:"po_value"`
	CreationDate time.Time       `json:"creation_date"`
	Remarks      string          `json:"remarks,omitempty"`
}

type UpdatePOStatusRequest struct {
	Status      domainwf.POStatus `json:"status"`
	UpdateDate  time.Time         `json:"update_date"`
	PaymentDate *time.Time        `json:"payment_date,omitempty"`
}

type SetStatusRequest struct {
	Status  domainwf.Status `json:"status"`
	Remarks string          `json:"remarks,omitempty"`
	Date    time.Time       `json:"date"`
}

// ProcurementView is the full aggregate as committed, with master data names
// and the operations the current status allows.
type ProcurementView struct {
	Procurement         *entity.Procurement     `json:"procurement"`
	ProjectName         string                  `json:"project_name,omitempty"`
	GroupName           string                  `json:"group_name,omitempty"`
	IndentorName        string                  `json:"indentor_name,omitempty"`
	Items               []*entity.Item          `json:"items"`
	Bids                []*entity.Bid           `json:"bids"`
	PurchaseOrders      []*entity.PurchaseOrder `json:"purchase_orders"`
	History             []*entity.HistoryEntry  `json:"history"`
	PermittedOperations []domainwf.Operation    `json:"permitted_operations"`
}
