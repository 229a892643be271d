package models

import (
	"fmt"
	"strings"
)

// Role is a member's position in the organization
type Role string

const (
	RoleMember   Role = "member"
	RoleDelegate Role = "delegate"
	RoleCouncil  Role = "council"
	RoleAdmin    Role = "admin"
)

// Roles lists every role, least privileged first.
var Roles = []Role{RoleMember, RoleDelegate, RoleCouncil, RoleAdmin}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}
