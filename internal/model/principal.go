package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleInspector Role = "INSPECTOR"
	RoleOperator  Role = "OPERATOR"
	RoleViewer    Role = "VIEWER"
)

// Principal is the authenticated identity extracted from the access token.
type Principal struct {
	UserID   uuid.UUID
	FullName string
	Role     Role
}

func (p Principal) IsAdmin() bool     { return p.Role == RoleAdmin }
func (p Principal) IsInspector() bool { return p.Role == RoleInspector }
func (p Principal) IsOperator() bool  { return p.Role == RoleOperator }
func (p Principal) IsViewer() bool    { return p.Role == RoleViewer }

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleInspector, RoleOperator, RoleViewer:
		return Role(raw), true
	default:
		return "", false
	}
}
