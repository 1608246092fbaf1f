package session

import (
	"github.com/tenantline/tenantline-console/internal/rbac"
)

// User is the identity record of the signed-in actor.
type User struct {
	// ID is the backend identifier of the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login email address.
	Email string `json:"email"`
	// Role is the user's global role name.
	Role string `json:"role"`
}

// State is a point-in-time snapshot of the session.
type State struct {
	// Token is the short-lived access token, empty when signed out.
	Token string
	// User is the signed-in identity, nil when signed out.
	User *User
	// Permissions is the module/action map derived server-side from the
	// user's roles.
	Permissions rbac.PermissionMap
	// PlatformRoles lists the role names the actor holds, used for
	// coarse bypass checks.
	PlatformRoles []string
	// IsAuthenticated is true exactly when Token is present and the last
	// bootstrap or refresh check succeeded.
	IsAuthenticated bool
	// IsLoading is true only during bootstrap, before the first
	// authentication decision of this process.
	IsLoading bool
}

// Engine builds a permission engine from the snapshot.
func (s State) Engine() rbac.Engine {
	return rbac.NewEngine(s.Permissions, s.PlatformRoles)
}

func (s State) clone() State {
	out := s
	out.Permissions = s.Permissions.Clone()

	if s.User != nil {
		user := *s.User
		out.User = &user
	}

	if s.PlatformRoles != nil {
		roles := make([]string, len(s.PlatformRoles))
		copy(roles, s.PlatformRoles)
		out.PlatformRoles = roles
	}

	return out
}
