package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// Procurement is the aggregate root tracking one indent through the MMG lifecycle
type Procurement struct {
	ID                     int64                    `json:"id"`
	IndentNumber           string                   `json:"indent_number"`
	Title                  string                   `json:"title"`
	ProjectID              int64                    `json:"project_id"`
	GroupID                int64                    `json:"group_id"`
	IndentorID             int64                    `json:"indentor_id"`
	PurchaseType           string                   `json:"purchase_type"`
	DeliveryPlace          string                   `json:"delivery_place"`
	EstimatedCost          decimal.Decimal          `json:"estimated_cost"`
	Status                 workflow.Status          `json:"status"`
	SourcingMethod         *workflow.SourcingMethod `json:"sourcing_method,omitempty"`
	IndentDate             time.Time                `json:"indent_date"`
	AcceptanceDate         *time.Time               `json:"acceptance_date,omitempty"`
	FinalizedBidID         *int64                   `json:"finalized_bid_id,omitempty"`
	VendorFinalizationDate *time.Time               `json:"vendor_finalization_date,omitempty"`
	CreatedAt              time.Time                `json:"created_at"`
	UpdatedAt              time.Time                `json:"updated_at"`
}

// Item is a line of the indent; items never change after creation
type Item struct {
	ID            int64  `json:"id"`
	ProcurementID int64  `json:"procurement_id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	Specification string `json:"specification,omitempty"`
}

// Bid is a vendor quote recorded against a procurement
type Bid struct {
	ID            int64           `json:"id"`
	ProcurementID int64           `json:"procurement_id"`
	VendorName    string          `json:"vendor_name"`
	Amount        decimal.Decimal `json:"amount"`
	BidCount      int             `json:"bid_count"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PurchaseOrder is issued to the selected vendor
type PurchaseOrder struct {
	ID                    int64             `json:"id"`
	ProcurementID         int64             `json:"procurement_id"`
	PONumber              string            `json:"po_number"`
	PODate                time.Time         `json:"po_date"`
	VendorName            string            `json:"vendor_name"`
	POValue               decimal.Decimal   `json:"po_value"`
	Status                workflow.POStatus `json:"status"`
	PaymentCompletionDate *time.Time        `json:"payment_completion_date,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}
