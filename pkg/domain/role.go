package domain

import dErrors "campusbourses/pkg/domain-errors"

// Role identifies what a principal is allowed to be: a student managing their
// own dossier, or an administrator reviewing everyone's.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input (JWT claim, DB column).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool  { return validRoles[r] }
func (r Role) String() string { return string(r) }

// Principal is the authenticated caller as established by the session
// collaborator. The engine never looks at anything beyond identity and role.
type Principal struct {
	UserID UserID
	Role   Role
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }
