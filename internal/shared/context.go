package shared

import "context"

// Identity describes the authenticated caller attached to a request.
type Identity struct {
	ID    int64
	Email string
	Role  string
}

// IsAdmin reports whether the identity may perform privileged operations.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
