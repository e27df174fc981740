package port

import "context"

// Caller is the authenticated principal invoking a workflow operation
type Caller struct {
	ID   string
	Role string
}

// IdentityProvider resolves the caller of the current request
type IdentityProvider interface {
	Caller(ctx context.Context) (Caller, error)
}

// DirectoryLookup resolves master data display names.
// Each method returns a workflow NotFound error when the id is unknown.
type DirectoryLookup interface {
	ProjectName(ctx context.Context, id int64) (string, error)
	GroupName(ctx context.Context, id int64) (string, error)
	EmployeeName(ctx context.Context, id int64) (string, error)
}
