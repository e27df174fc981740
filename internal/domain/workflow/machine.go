package workflow

// Machine decides whether an operation is legal for a procurement status and what status it leads to.
// It holds no current state and performs no I/O.
type Machine interface {
	// Check returns an InvalidTransition error if op is not legal from current
	Check(op Operation, current Status) error

	// Permits returns true if op is legal from current
	Permits(op Operation, current Status) bool

	// PermittedOperations returns every registered operation legal from current, in registration order
	PermittedOperations(current Status) []Operation

	Approve(current Status, role Role, decision Decision) (Status, error)
	SelectSourcing(current Status, method SourcingMethod) (Status, error)
	AddBid(current Status) error
	FinalizeVendor(current Status) (Status, error)
	CreatePurchaseOrder(current Status, hasBid bool) (Status, error)
	UpdatePOStatus(status POStatus, hasPaymentDate bool) error

	// SetStatus reports changed=false when next equals current
	SetStatus(current, next Status) (result Status, changed bool, err error)

	Delete(current Status) error
}

// Check returns an InvalidTransition error if op is not legal from current
func (m *procurementMachine) Check(op Operation, current Status) error {
	if !current.IsValid() {
		return Validation(op, "procurement has invalid status %q", current)
	}
	rule, exists := m.rules[op]
	if !exists {
		return InvalidTransition(op, current)
	}
	if rule.from != nil && !rule.from[current.Kind] {
		return InvalidTransition(op, current)
	}
	return nil
}

// Permits returns true if op is legal from current
func (m *procurementMachine) Permits(op Operation, current Status) bool {
	return m.Check(op, current) == nil
}

// PermittedOperations returns every registered operation legal from current
func (m *procurementMachine) PermittedOperations(current Status) []Operation {
	ops := make([]Operation, 0, len(m.order))
	for _, op := range m.order {
		if m.Permits(op, current) {
			ops = append(ops, op)
		}
	}
	return ops
}

func (m *procurementMachine) Approve(current Status, role Role, decision Decision) (Status, error) {
	if err := m.Check(OpApprove, current); err != nil {
		return Status{}, err
	}
	if !role.IsValid() {
		return Status{}, Validation(OpApprove, "unknown role %q", role)
	}
	switch decision {
	case DecisionApproved:
		return ApprovedBy(role), nil
	case DecisionRejected:
		return RejectedBy(role), nil
	default:
		return Status{}, Validation(OpApprove, "decision must be %s or %s, got %q", DecisionApproved, DecisionRejected, decision)
	}
}

func (m *procurementMachine) SelectSourcing(current Status, method SourcingMethod) (Status, error) {
	if err := m.Check(OpSelectSourcing, current); err != nil {
		return Status{}, err
	}
	if !method.IsValid() {
		return Status{}, Validation(OpSelectSourcing, "sourcing method must be %s or %s, got %q", SourcingTender, SourcingGeM, method)
	}
	return StatusSourcingMethodSelected, nil
}

func (m *procurementMachine) AddBid(current Status) error {
	return m.Check(OpAddBid, current)
}

func (m *procurementMachine) FinalizeVendor(current Status) (Status, error) {
	if err := m.Check(OpFinalizeVendor, current); err != nil {
		return Status{}, err
	}
	return StatusVendorFinalized, nil
}

// CreatePurchaseOrder checks the status before the bid requirement, so a wrong status wins over a missing bid
func (m *procurementMachine) CreatePurchaseOrder(current Status, hasBid bool) (Status, error) {
	if err := m.Check(OpCreatePurchaseOrder, current); err != nil {
		return Status{}, err
	}
	if !hasBid {
		return Status{}, Validation(OpCreatePurchaseOrder, "no bid recorded for this procurement")
	}
	return StatusPOCreated, nil
}

func (m *procurementMachine) UpdatePOStatus(status POStatus, hasPaymentDate bool) error {
	if !status.IsValid() {
		return Validation(OpUpdatePOStatus, "purchase order status must be %q or %q, got %q", POStatusPending, POStatusPaymentProcessed, status)
	}
	if status == POStatusPaymentProcessed && !hasPaymentDate {
		return Validation(OpUpdatePOStatus, "payment completion date is required for %q", status)
	}
	return nil
}

func (m *procurementMachine) SetStatus(current, next Status) (Status, bool, error) {
	if err := m.Check(OpSetStatus, current); err != nil {
		return Status{}, false, err
	}
	if !next.IsValid() {
		return Status{}, false, Validation(OpSetStatus, "unknown status %q", next)
	}
	return next, next != current, nil
}

func (m *procurementMachine) Delete(current Status) error {
	return m.Check(OpDelete, current)
}
