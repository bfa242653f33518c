package models

// Role represents the role carried in an identity provider token
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleMechanic Role = "mechanic"
	RoleViewer   Role = "viewer"
)

// Actions checked by the API middleware
const (
	ActionViewCondition   = "view_condition"
	ActionRecordCondition = "record_condition"
	ActionScoreDocument   = "score_document"
)

// Claims represents the verified claims of a bearer token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleOwner, RoleMechanic, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if the role may perform a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleOwner, RoleMechanic:
		return action == ActionViewCondition || action == ActionRecordCondition ||
			action == ActionScoreDocument
	case RoleViewer:
		return action == ActionViewCondition
	default:
		return false
	}
}
