// Package auth authenticates bearer tokens and scopes requests to a tenant.
package auth

import "strings"

// Role is the caller's privilege level within its tenant.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleAdmin:  2,
}

// NormalizeRole lowercases raw and reports whether it names a known role.
func NormalizeRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := roleRank[role]
	return role, ok
}

// Allows reports whether r satisfies required.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}
