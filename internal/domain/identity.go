// Package domain holds the core types shared across use cases.
package domain

import "context"

// Identity is the authenticated caller, resolved by the transport layer.
// The zero value is the anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Admin  bool
}

// Anonymous reports whether the caller is unauthenticated.
func (i Identity) Anonymous() bool { return i.UserID == "" }

type identityKey struct{}

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the caller identity from the context.
// Returns the anonymous identity if none is set.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
