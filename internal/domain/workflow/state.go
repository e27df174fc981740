package workflow

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StatusKind identifies a procurement lifecycle state independent of any role parameter
type StatusKind string

const (
	KindIndentReceived         StatusKind = "INDENT_RECEIVED"
	KindAcceptedByMMG          StatusKind = "ACCEPTED_BY_MMG"
	KindRejectedBy             StatusKind = "REJECTED_BY"
	KindApprovedBy             StatusKind = "APPROVED_BY"
	KindItemFoundInGeM         StatusKind = "ITEM_FOUND_IN_GEM"
	KindOrderPlacedInGeM       StatusKind = "ORDER_PLACED_IN_GEM"
	KindTenderCalled           StatusKind = "TENDER_CALLED"
	KindSourcingMethodSelected StatusKind = "SOURCING_METHOD_SELECTED"
	KindBidsReceived           StatusKind = "BIDS_RECEIVED"
	KindVendorFinalized        StatusKind = "VENDOR_FINALIZED"
	KindPOCreated              StatusKind = "PO_CREATED"
	KindPaymentProcessed       StatusKind = "PAYMENT_PROCESSED"
	KindItemReceived           StatusKind = "ITEM_RECEIVED"
	KindSuccessful             StatusKind = "SUCCESSFUL"
	KindFailed                 StatusKind = "FAILED"
)

// displayNames holds the rendered form of every role-less kind
var displayNames = map[StatusKind]string{
	KindIndentReceived:         "Indent Received",
	KindAcceptedByMMG:          "Accepted by MMG",
	KindItemFoundInGeM:         "Item Found in GeM",
	KindOrderPlacedInGeM:       "Order Placed in GeM",
	KindTenderCalled:           "Tender Called",
	KindSourcingMethodSelected: "Sourcing Method Selected",
	KindBidsReceived:           "Bids Received",
	KindVendorFinalized:        "Vendor Finalized",
	KindPOCreated:              "PO Created",
	KindPaymentProcessed:       "Payment Processed",
	KindItemReceived:           "Item Received",
	KindSuccessful:             "Successful",
	KindFailed:                 "Failed",
}

// rolePrefixes holds the rendered prefix of the role-parameterized kinds
var rolePrefixes = map[StatusKind]string{
	KindApprovedBy: "Approved by ",
	KindRejectedBy: "Rejected by ",
}

// IsValid returns true if the kind is a member of the lifecycle
func (k StatusKind) IsValid() bool {
	if _, ok := displayNames[k]; ok {
		return true
	}
	_, ok := rolePrefixes[k]
	return ok
}

// HasRole reports whether statuses of this kind carry a role
func (k StatusKind) HasRole() bool {
	_, ok := rolePrefixes[k]
	return ok
}

// Role is an approving authority
type Role string

const (
	RoleGroupHead Role = "Group Head"
	RoleFinance   Role = "Finance"
	RoleED        Role = "ED"
)

var validRoles = map[Role]bool{
	RoleGroupHead: true,
	RoleFinance:   true,
	RoleED:        true,
}

// IsValid returns true if the role is a known approving authority
func (r Role) IsValid() bool {
	return validRoles[r]
}

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", newError(CodeValidation, "", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// Status is a procurement lifecycle state. The zero value is not a valid status.
//
// Approved by and Rejected by carry the approving Role; every other kind has an empty Role.
type Status struct {
	Kind StatusKind
	Role Role
}

// Role-less statuses
var (
	StatusIndentReceived         = Status{Kind: KindIndentReceived}
	StatusAcceptedByMMG          = Status{Kind: KindAcceptedByMMG}
	StatusItemFoundInGeM         = Status{Kind: KindItemFoundInGeM}
	StatusOrderPlacedInGeM       = Status{Kind: KindOrderPlacedInGeM}
	StatusTenderCalled           = Status{Kind: KindTenderCalled}
	StatusSourcingMethodSelected = Status{Kind: KindSourcingMethodSelected}
	StatusBidsReceived           = Status{Kind: KindBidsReceived}
	StatusVendorFinalized        = Status{Kind: KindVendorFinalized}
	StatusPOCreated              = Status{Kind: KindPOCreated}
	StatusPaymentProcessed       = Status{Kind: KindPaymentProcessed}
	StatusItemReceived           = Status{Kind: KindItemReceived}
	StatusSuccessful             = Status{Kind: KindSuccessful}
	StatusFailed                 = Status{Kind: KindFailed}
)

// ApprovedBy returns the Approved by <role> status
func ApprovedBy(role Role) Status {
	return Status{Kind: KindApprovedBy, Role: role}
}

// RejectedBy returns the Rejected by <role> status
func RejectedBy(role Role) Status {
	return Status{Kind: KindRejectedBy, Role: role}
}

// AllStatuses returns every member of the status enum in lifecycle order
func AllStatuses() []Status {
	statuses := []Status{StatusIndentReceived, StatusAcceptedByMMG}
	for _, r := range []Role{RoleGroupHead, RoleFinance, RoleED} {
		statuses = append(statuses, ApprovedBy(r), RejectedBy(r))
	}
	return append(statuses,
		StatusItemFoundInGeM,
		StatusOrderPlacedInGeM,
		StatusTenderCalled,
		StatusSourcingMethodSelected,
		StatusBidsReceived,
		StatusVendorFinalized,
		StatusPOCreated,
		StatusPaymentProcessed,
		StatusItemReceived,
		StatusSuccessful,
		StatusFailed,
	)
}

// IsValid returns true if the status is a member of the enum
func (s Status) IsValid() bool {
	if s.Kind.HasRole() {
		return s.Role.IsValid()
	}
	_, ok := displayNames[s.Kind]
	return ok && s.Role == ""
}

// IsZero reports whether the status is unset
func (s Status) IsZero() bool {
	return s.Kind == "" && s.Role == ""
}

// String renders the display form, e.g. "Approved by Finance"
func (s Status) String() string {
	if prefix, ok := rolePrefixes[s.Kind]; ok {
		return prefix + string(s.Role)
	}
	if name, ok := displayNames[s.Kind]; ok {
		return name
	}
	return string(s.Kind)
}

// ParseStatus converts a display string into a Status.
// Anything outside the enum, including a role-parameterized status with an unknown role, is rejected.
func ParseStatus(text string) (Status, error) {
	for kind, name := range displayNames {
		if text == name {
			return Status{Kind: kind}, nil
		}
	}
	for kind, prefix := range rolePrefixes {
		if strings.HasPrefix(text, prefix) {
			role := Role(strings.TrimPrefix(text, prefix))
			if !role.IsValid() {
				return Status{}, newError(CodeValidation, "", fmt.Sprintf("unknown role in status %q", text))
			}
			return Status{Kind: kind, Role: role}, nil
		}
	}
	return Status{}, newError(CodeValidation, "", fmt.Sprintf("unknown status %q", text))
}

// MustParseStatus is like ParseStatus but panics on error
func MustParseStatus(text string) Status {
	s, err := ParseStatus(text)
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status %+v", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer; statuses are stored in their display form
func (s Status) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status %+v", s)
	}
	return s.String(), nil
}

// Scan implements sql.Scanner
func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
}

// Decision is the outcome of an approval step
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// IsValid returns true if the decision is Approved or Rejected
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}
