package shared

import "context"

// Role is the closed set of actor roles.
type Role string

const (
	// RoleAdmin may perform any operation.
	RoleAdmin Role = "admin"
	// RoleEmployee handles orders assigned to them.
	RoleEmployee Role = "employee"
	// RoleCustomer owns orders placed for their account.
	RoleCustomer Role = "customer"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// Principal describes the authenticated actor resolved by the access gate.
type Principal struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
