package domain

import (
	"context"
	"slices"
)

// Roles allowed to mutate catalog resources.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Principal is the authenticated caller of an operation. It is produced by the
// auth middleware and passed down explicitly through the request context.
type Principal struct {
	Subject  string
	TenantID string
	Roles    []string
}

// HasRole reports whether the principal carries any of the given roles.
func (p Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// CanWrite reports whether the principal may create, update or delete resources.
func (p Principal) CanWrite() bool {
	return p.HasRole(RoleAdmin, RoleEditor)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.TenantID == "" {
		return Principal{}, false
	}
	return p, true
}
