package auth

import (
	"context"
	"fmt"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "kepala_bps"
)

// Roles lists every valid role, in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEmployee, RoleSupervisor}
}

// RoleNames is Roles as plain strings, for validators.
func RoleNames() []string {
	names := make([]string, 0, 3)
	for _, r := range Roles() {
		names = append(names, string(r))
	}
	return names
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEmployee, RoleSupervisor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Identity is the authenticated caller as seen by the access policy.
type Identity struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

type ctxKey string

const ContextUserKey ctxKey = "identity"

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ContextUserKey).(Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextUserKey, id)
}
