package platform

import (
	"context"
	"net/http"

	"github.com/tenantline/tenantline-console/internal/rbac"
	"github.com/tenantline/tenantline-console/internal/session"
)

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request payload. InvitationToken is
// optional and ties the new account to an invited organization.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	InvitationToken string `json:"invitationToken,omitempty"`
}

// wireUser is the backend's user shape: the identity record plus the
// server-derived authorization data. The console consumes the permission
// map as delivered and never recomputes it from role objects.
type wireUser struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Role          string              `json:"role"`
	PlatformRoles []string            `json:"platformRoles"`
	Permissions   map[string][]string `json:"permissions"`
}

func (u wireUser) identity() session.Identity {
	return session.Identity{
		User: session.User{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		},
		PlatformRoles: u.PlatformRoles,
		Permissions:   rbac.NormalizePermissionMap(u.Permissions),
	}
}

type authResponse struct {
	AccessToken string   `json:"accessToken"`
	User        wireUser `json:"user"`
}

// Login exchanges credentials for a session. The backend sets the
// refresh cookie on this response; the access token is stored before
// returning. A 401 here means bad credentials and is returned as-is,
// never answered with a refresh attempt.
func (c *Client) Login(ctx context.Context, creds Credentials) (session.Identity, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, loginPath, creds, &resp, callOpts{isLogin: true, skipAuth: true})
	if err != nil {
		return session.Identity{}, err
	}

	c.session.SetToken(resp.AccessToken)

	return resp.User.identity(), nil
}

// Register creates an account and signs it in; the response shape
// matches Login.
func (c *Client) Register(ctx context.Context, reg Registration) (session.Identity, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, registerPath, reg, &resp, callOpts{isLogin: true, skipAuth: true})
	if err != nil {
		return session.Identity{}, err
	}

	c.session.SetToken(resp.AccessToken)

	return resp.User.identity(), nil
}

// Me returns the backend's notion of the current session. Bootstrap
// calls this through the gateway so an expired persisted token still
// benefits from refresh-and-retry.
func (c *Client) Me(ctx context.Context) (session.Identity, error) {
	var user wireUser

	if err := c.do(ctx, http.MethodGet, mePath, nil, &user, callOpts{}); err != nil {
		return session.Identity{}, err
	}

	return user.identity(), nil
}

// Logout asks the backend to invalidate the session and refresh cookie.
// Client-side logout proceeds regardless of this call's outcome, so
// callers may ignore the returned error beyond logging it.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, logoutPath, nil, nil, callOpts{})
}

// ForgotPassword requests a password reset mail.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, forgotPasswordPath, body, nil, callOpts{skipAuth: true})
}

// ResetPassword completes a password reset with the mailed token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, resetPasswordPath, body, nil, callOpts{skipAuth: true})
}
