// Package register provides HTTP handlers for operator sign up by
// invitation.
package register

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
	// Path is the path to the registration page.
	Path = "/register"

	// TemplateName is the name of the registration template.
	TemplateName = "register"
)

var validate = validator.New()

// ErrInvalidFormData is returned when the submitted registration form
// cannot be parsed or fails validation.
var ErrInvalidFormData = errors.New("name, email and password are required")

// registerForm is the submitted registration form.
type registerForm struct {
	Name            string `form:"name"            validate:"required"`
	Email           string `form:"email"           validate:"required,email"`
	Password        string `form:"password"        validate:"required,min=8"`
	InvitationToken string `form:"invitationToken"`
}

// Service is the registration handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	store  *session.Store
	client *platform.Client
}

// Handler is the registration handler.
var Handler = Service{}

// Init initializes the registration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.store = store
	s.client = client

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the registration page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"Title":           s.cfg.Title,
		"invitationToken": c.Query("invitation", ""),
	})
}

// Post handles the registration form submission. Registration signs the
// operator in directly, same as login.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(registerForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, ErrInvalidFormData.Error())
	}

	if err := validate.Struct(form); err != nil {
		return s.renderError(c, ErrInvalidFormData.Error())
	}

	identity, err := s.client.Register(c.UserContext(), platform.Registration{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		InvitationToken: form.InvitationToken,
	})
	if err != nil {
		if !platform.IsUnauthorized(err) {
			log.Error().Err(err).Msg("registration request failed")
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
