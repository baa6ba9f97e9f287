// Package auth verifies bearer tokens and carries the caller identity through request contexts.
package auth

import "context"

// Identity is the authenticated caller. Both fields come from the identity provider.
type Identity struct {
	UserID string
	Email  string
}

// Complete reports whether the identity has both an ID and an email
func (i Identity) Complete() bool {
	return i.UserID != "" && i.Email != ""
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity. The zero Identity means no caller.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
