// Package userroles provides the role assignment page for a platform
// user: the full role catalog with the user's current assignments, and
// the toggle action that assigns or removes one role at a time.
package userroles

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/rbac"
	"github.com/tenantline/tenantline-console/internal/roles"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/uniuri"
	"github.com/tenantline/tenantline-console/internal/web/handler"
	"github.com/tenantline/tenantline-console/internal/web/middleware/authorize"
	"github.com/tenantline/tenantline-console/internal/web/navigation"
)

const (
	// Path is the route of the role assignment page.
	Path = "/users/:id/roles"

	// TemplateName is the name of the role assignment template.
	TemplateName = "users/roles"
)

// ErrBadNonce is returned when a toggle submission carries a missing or
// unknown form nonce.
var ErrBadNonce = errors.New("invalid form nonce")

// Service is the role assignment handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	store  *session.Store
	client *platform.Client

	mu       sync.Mutex
	managers map[string]*roles.Manager
	nonces   map[string]struct{}
}

// Handler is the role assignment handler.
var Handler = Service{}

// Init initializes the role assignment handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.store = store
	s.client = client
	s.managers = make(map[string]*roles.Manager)
	s.nonces = make(map[string]struct{})

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath,
			authorize.RequireAction(store, rbac.ModuleUsers, rbac.ActionEdit),
			s.Get,
		)
		router.Post(handler.RouterRootPath,
			authorize.RequireAction(store, rbac.ModuleUsers, rbac.ActionEdit),
			s.Post,
		)
	})

	return nil
}

// manager returns the per-user manager, creating it on first access.
// Managers are kept for the life of the process so the toggle guard
// spans requests.
func (s *Service) manager(userID string) *roles.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.managers[userID]
	if !ok {
		m = roles.NewManager(s.client, userID, roles.WithNotify(func() {
			s.refreshSelf(userID)
		}))
		s.managers[userID] = m
	}

	return m
}

// refreshSelf re-fetches the signed-in identity when the operator
// edited their own roles, so revoked grants disappear without patching
// the local state.
func (s *Service) refreshSelf(userID string) {
	state := s.store.State()
	if state.User == nil || state.User.ID != userID {
		return
	}

	identity, err := s.client.Me(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh own identity after role change")
		return
	}

	user := identity.User
	s.store.SetUser(&user)
	s.store.SetPlatformRoles(identity.PlatformRoles)
	s.store.SetPermissions(identity.Permissions)
}

func (s *Service) issueNonce() string {
	nonce := uniuri.New()

	s.mu.Lock()
	s.nonces[nonce] = struct{}{}
	s.mu.Unlock()

	return nonce
}

func (s *Service) consumeNonce(nonce string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nonces[nonce]; !ok {
		return false
	}

	delete(s.nonces, nonce)

	return true
}

// Get renders the role assignment page.
func (s *Service) Get(c *fiber.Ctx) error {
	userID := c.Params("id")

	m := s.manager(userID)
	if err := m.Load(c.UserContext()); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load role assignments")

		return s.render(c, userID, m, platform.Message(err))
	}

	return s.render(c, userID, m, c.Query("error", ""))
}

// Post toggles one role. A toggle that arrives while another is in
// flight is dropped silently; failures come back as an inline message.
func (s *Service) Post(c *fiber.Ctx) error {
	userID := c.Params("id")
	roleID := c.FormValue("roleId")
	nonce := c.FormValue("nonce")

	if !s.consumeNonce(nonce) {
		return s.redirectBack(c, userID, ErrBadNonce.Error())
	}

	if roleID == "" {
		return s.redirectBack(c, userID, "no role selected")
	}

	err := s.manager(userID).Toggle(c.UserContext(), roleID)

	switch {
	case errors.Is(err, roles.ErrAssignmentInFlight):
		// Dropped on purpose; the previous toggle is still running.
		return s.redirectBack(c, userID, "")
	case err != nil:
		log.Error().Err(err).Str("user_id", userID).Str("role_id", roleID).Msg("role toggle failed")

		return s.redirectBack(c, userID, platform.Message(err))
	default:
		return s.redirectBack(c, userID, "")
	}
}

type roleRow struct {
	Role     rbac.Role
	Assigned bool
}

func (s *Service) render(c *fiber.Ctx, userID string, m *roles.Manager, errMsg string) error {
	state := s.store.State()

	nav := navigation.NewContext("Role Assignments", "users", "roles").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Users", "/users", false).
		AddBreadcrumb("Roles", rolesPath(userID), true).
		WithMenu(state.Engine())

	rows := make([]roleRow, 0)
	for _, role := range m.Catalog() {
		rows = append(rows, roleRow{Role: role, Assigned: m.Assigned(role.ID)})
	}

	data := fiber.Map{
		"Title":      s.cfg.Title,
		"Navigation": nav,
		"UserID":     userID,
		"Rows":       rows,
		"Busy":       m.Busy(),
		"nonce":      s.issueNonce(),
	}

	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}

func (s *Service) redirectBack(c *fiber.Ctx, userID, errMsg string) error {
	target := rolesPath(userID)
	if errMsg != "" {
		target += "?error=" + url.QueryEscape(errMsg)
	}

	return c.Redirect(target)
}

func rolesPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/roles"
}
