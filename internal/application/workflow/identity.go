package workflow

import (
	"context"

	"github.com/garyjia/mmg-procurement/internal/application/port"
)

type callerKey struct{}

// WithCaller attaches the authenticated caller to ctx
func WithCaller(ctx context.Context, caller port.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// ContextIdentity implements port.IdentityProvider by reading the caller set with WithCaller.
// A context without a caller yields an anonymous caller.
type ContextIdentity struct{}

func (ContextIdentity) Caller(ctx context.Context) (port.Caller, error) {
	caller, _ := ctx.Value(callerKey{}).(port.Caller)
	return caller, nil
}

var _ port.IdentityProvider = ContextIdentity{}
