package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}
var tokenCtxKey = &contextKey{"token"}

type contextKey struct {
	name string
}

// WithIdentity sets the verified Identity in the given context
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// WithTokenPayload sets the verified signed token payload in the given context
func WithTokenPayload(ctx context.Context, payload *TokenPayload) context.Context {
	return context.WithValue(ctx, tokenCtxKey, payload)
}

// TokenPayloadFromContext extracts the signed token payload from the context
func TokenPayloadFromContext(ctx context.Context) (*TokenPayload, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(tokenCtxKey).(*TokenPayload)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// RoleFromContext resolves the caller's role, preferring the session
// identity over the token payload.
func RoleFromContext(ctx context.Context) (RoleHolder, bool) {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity, true
	}
	if payload, ok := TokenPayloadFromContext(ctx); ok {
		return payload, true
	}
	return nil, false
}

// CanEditFromContext is a convenience function to check edit permission
// for a resource owned by ownerID directly from the context.
func CanEditFromContext(ctx context.Context, ownerID string) bool {
	holder, ok := RoleFromContext(ctx)
	if !ok {
		return false
	}
	return CanEdit(holder, ownerID)
}

// HasRoleFromContext checks the caller against any of roles.
func HasRoleFromContext(ctx context.Context, roles ...UserRole) bool {
	holder, ok := RoleFromContext(ctx)
	if !ok {
		return false
	}
	return HasRole(holder, roles...)
}
