package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
	"github.com/tenantline/tenantline-console/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

var validate = validator.New()

// loginForm is the submitted login form.
type loginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	store  *session.Store
	client *platform.Client
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.store = store
	s.client = client

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"Title": s.cfg.Title,
	})
}

// Post handles the login form submission. A rejected login keeps the
// operator on the page with an inline error and never touches the
// session.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(loginForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, ErrInvalidFormData.Error())
	}

	if err := validate.Struct(form); err != nil {
		return s.renderError(c, ErrInvalidFormData.Error())
	}

	identity, err := s.client.Login(c.UserContext(), platform.Credentials{
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		if !platform.IsUnauthorized(err) {
			log.Error().Err(err).Msg("login request failed")
		}

		return s.renderError(c, platform.Message(err))
	}

	user := identity.User
	s.store.SetUser(&user)
	s.store.SetPermissions(identity.Permissions)
	s.store.SetPlatformRoles(identity.PlatformRoles)

	return c.Redirect("/dashboard")
}

func (s *Service) renderError(c *fiber.Ctx, message string) error {
	return c.Render(TemplateName, fiber.Map{
		"Title": s.cfg.Title,
		"error": message,
	})
}
