// Package dashboard provides the landing page of the console: the
// signed-in identity and the modules the operator may enter.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/web/handler"
	"github.com/tenantline/tenantline-console/internal/web/middleware/authorize"
	"github.com/tenantline/tenantline-console/internal/web/navigation"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	store *session.Store
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.store = store

	app.Get(Path,
		authorize.RequireModule(store, rbac.ModuleDashboard),
		s.Get,
	)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	state := s.store.State()
	engine := state.Engine()

	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true).
		WithMenu(engine)

	return c.Render(TemplateName, fiber.Map{
		"Title":         s.cfg.Title,
		"Navigation":    nav,
		"User":          state.User,
		"PlatformRoles": state.PlatformRoles,
		"Modules":       engine.VisibleModules(),
	}, handler.BaseLayout)
}
