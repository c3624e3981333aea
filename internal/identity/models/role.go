package models

import (
	dErrors "impact/pkg/domain-errors"
)

// Role defines what rights a member possesses.
type Role string

const (
	RoleRoot       Role = "root"
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleMember     Role = "member"
	RoleExternal   Role = "external"
)

// roleToInt is the single authoritative mapping between roles and their
// stored integer column values. The numbers are part of the persisted data
// format and must never be reordered.
var roleToInt = map[Role]int{
	RoleRoot:       0,
	RoleAdmin:      1,
	RoleInstructor: 2,
	RoleMember:     3,
	RoleExternal:   4,
}

var intToRole = func() map[int]Role {
	m := make(map[int]Role, len(roleToInt))
	for role, n := range roleToInt {
		m[n] = role
	}
	return m
}()

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	_, ok := roleToInt[r]
	return ok
}

// Int returns the stored integer value for the role. Panics on an invalid
// role: storage code must call ParseRoleInt / IsValid at the boundary first.
func (r Role) Int() int {
	n, ok := roleToInt[r]
	if !ok {
		panic("invalid role: " + string(r))
	}
	return n
}

// ParseRoleInt converts a stored integer column value back into a Role,
// validating it at the storage boundary.
func ParseRoleInt(n int) (Role, error) {
	role, ok := intToRole[n]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role value %d", n)
	}
	return role, nil
}

// ParseRole validates a role supplied by a client.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid role: "+s)
	}
	return role, nil
}

// CanManageMembers reports whether the role may create or update other
// members.
func (r Role) CanManageMembers() bool {
	return r == RoleRoot || r == RoleAdmin
}
