package workflow

// Operation is a request to change a procurement
type Operation string

const (
	OpCreate              Operation = "CREATE"
	OpApprove             Operation = "APPROVE"
	OpSelectSourcing      Operation = "SELECT_SOURCING"
	OpAddBid              Operation = "ADD_BID"
	OpFinalizeVendor      Operation = "FINALIZE_VENDOR"
	OpCreatePurchaseOrder Operation = "CREATE_PURCHASE_ORDER"
	OpUpdatePOStatus      Operation = "UPDATE_PO_STATUS"
	OpSetStatus           Operation = "SET_STATUS"
	OpDelete              Operation = "DELETE"
)

// String returns the string representation of the operation
func (o Operation) String() string {
	return string(o)
}

// SourcingMethod is how MMG intends to source an indent
type SourcingMethod string

const (
	SourcingTender SourcingMethod = "TENDER"
	SourcingGeM    SourcingMethod = "GEM"
)

// IsValid returns true for TENDER and GEM
func (m SourcingMethod) IsValid() bool {
	return m == SourcingTender || m == SourcingGeM
}

// POStatus is the payment state of a purchase order
type POStatus string

const (
	POStatusPending          POStatus = "Pending"
	POStatusPaymentProcessed POStatus = "Payment Processed"
)

// IsValid returns true for Pending and Payment Processed
func (s POStatus) IsValid() bool {
	return s == POStatusPending || s == POStatusPaymentProcessed
}
