package model

// Role is an operator's role in the admin platform.
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleCommercial Role = "COMMERCIAL"
	RoleGestor     Role = "GESTOR"
	RoleModerator  Role = "MODERATOR"
	RoleEditor     Role = "EDITOR"
)

// generationRoles is the fixed allow-list of roles permitted to spend
// AI generation quota.
var generationRoles = map[Role]bool{
	RoleSuperadmin: true,
	RoleAdmin:      true,
	RoleCommercial: true,
	RoleGestor:     true,
}

// CanGenerateLeads reports whether the role may invoke the generation
// pipeline.
func (r Role) CanGenerateLeads() bool {
	return generationRoles[r]
}

// Operator identifies an admin-platform user for authorization and audit
// attribution.
type Operator struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}
