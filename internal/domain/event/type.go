package event

// Type identifies the type of domain event
type Type string

const (
	TypeProcurementCreated       Type = "procurement.created"
	TypeProcurementStatusChanged Type = "procurement.status_changed"
	TypeProcurementDeleted       Type = "procurement.deleted"
	TypeBidAdded                 Type = "bid.added"
	TypePurchaseOrderCreated     Type = "purchase_order.created"
	TypePurchaseOrderStatus      Type = "purchase_order.status_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeProcurementCreated,
		TypeProcurementStatusChanged,
		TypeProcurementDeleted,
		TypeBidAdded,
		TypePurchaseOrderCreated,
		TypePurchaseOrderStatus:
		return true
	default:
		return false
	}
}

// AllTypes returns every defined event type
func AllTypes() []Type {
	return []Type{
		TypeProcurementCreated,
		TypeProcurementStatusChanged,
		TypeProcurementDeleted,
		TypeBidAdded,
		TypePurchaseOrderCreated,
		TypePurchaseOrderStatus,
	}
}
