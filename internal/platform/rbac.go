package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

// Roles lists every role (designation) defined on the platform.
func (c *Client) Roles(ctx context.Context) ([]rbac.Role, error) {
	var roles []rbac.Role
	if err := c.do(ctx, http.MethodGet, rolesPath, nil, &roles, callOpts{}); err != nil {
		return nil, err
	}

	for i := range roles {
		roles[i].Grants = rbac.NormalizeGrants(roles[i].Grants)
	}

	return roles, nil
}

// UserRoles lists the roles currently assigned to one user.
func (c *Client) UserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	var roles []rbac.Role
	if err := c.do(ctx, http.MethodGet, userRolesPath(userID), nil, &roles, callOpts{}); err != nil {
		return nil, err
	}

	return roles, nil
}

// AssignRole adds a role to a user. Assignment carries no attributes
// beyond existence; assigning an already-held role is a backend error.
func (c *Client) AssignRole(ctx context.Context, userID, roleID string) error {
	path := userRolesPath(userID) + "/" + url.PathEscape(roleID)
	return c.do(ctx, http.MethodPost, path, nil, nil, callOpts{})
}

// RemoveRole removes a role from a user.
func (c *Client) RemoveRole(ctx context.Context, userID, roleID string) error {
	path := userRolesPath(userID) + "/" + url.PathEscape(roleID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, callOpts{})
}

func userRolesPath(userID string) string {
	return fmt.Sprintf(userRolesPathFmt, url.PathEscape(userID))
}
