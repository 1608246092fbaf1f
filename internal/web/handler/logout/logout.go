// Package logout clears the console session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/web/handler"
)

// Path is the path of the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	store  *session.Store
	client *platform.Client
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.store = store
	s.client = client

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout tells the platform to revoke the refresh credential, clears
// the local session and returns to the login page. The backend call is
// best effort: the local session is cleared even when it fails.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.client.Logout(c.UserContext()); err != nil {
		log.Debug().Err(err).Msg("platform logout failed")
	}

	s.store.Logout()

	return c.Redirect("/login")
}
