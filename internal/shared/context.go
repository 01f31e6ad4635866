// Package shared holds request-scoped helpers used across modules.
package shared

import "context"

// Identity is the decoded token payload attached to authenticated requests.
type Identity struct {
	UserID   int64
	Username string
	Email    string
}

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
