package entity

// Ledger remarks written by the engine when the caller supplies none
const (
	RemarksIndentCreated       = "Indent created"
	RemarksSourcingSelected    = "Sourcing method selected"
	RemarksVendorFinalized     = "Vendor finalized"
	RemarksPurchaseOrderIssued = "Purchase order created"
)
