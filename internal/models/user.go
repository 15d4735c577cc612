package models

import "time"

// Capabilities checked by the admin surface.
const (
	CapManageOptions = "manage_options"
	CapEditPosts     = "edit_posts"
)

// Roles mapped from the identity provider's realm roles.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
)

var roleCaps = map[string][]string{
	RoleAdministrator: {CapManageOptions, CapEditPosts},
	RoleEditor:        {CapEditPosts},
}

// User represents a site administrator or editor (mapped from Keycloak claims)
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"` // OIDC subject
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Roles     []string  `bson:"roles,omitempty" json:"roles,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Can reports whether any of roles grants capability.
func Can(roles []string, capability string) bool {
	for _, r := range roles {
		for _, c := range roleCaps[r] {
			if c == capability {
				return true
			}
		}
	}
	return false
}

// Can reports whether the user holds capability.
func (u *User) Can(capability string) bool {
	if u == nil {
		return false
	}
	return Can(u.Roles, capability)
}
