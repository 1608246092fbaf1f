// Package password provides the forgot-password and reset-password
// handlers. Both delegate to the platform backend; the console never
// sees or stores password reset tokens beyond relaying them.
package password

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
	// ForgotPath is the path to the forgot-password page.
	ForgotPath = "/forgot-password"

	// ResetPath is the path to the reset-password page.
	ResetPath = "/reset-password"

	// ForgotTemplateName is the name of the forgot-password template.
	ForgotTemplateName = "forgot-password"

	// ResetTemplateName is the name of the reset-password template.
	ResetTemplateName = "reset-password"
)

var validate = validator.New()

// ErrInvalidFormData is returned when a submitted form cannot be
// parsed or fails validation.
var ErrInvalidFormData = errors.New("invalid form data")

type forgotForm struct {
	Email string `form:"email" validate:"required,email"`
}

type resetForm struct {
	Token    string `form:"token"    validate:"required"`
	Password string `form:"password" validate:"required,min=8"`
}

// Service is the password handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	client *platform.Client
}

// Handler is the password handler.
var Handler = Service{}

// Init initializes the password handlers.
func (s *Service) Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error {
	if app == nil || cfg == nil || store == nil || client == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client

	app.Route(ForgotPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetForgot)
		router.Post(handler.RouterRootPath, s.PostForgot)
	})

	app.Route(ResetPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetReset)
		router.Post(handler.RouterRootPath, s.PostReset)
	})

	return nil
}

// GetForgot renders the forgot-password page.
func (s *Service) GetForgot(c *fiber.Ctx) error {
	return c.Render(ForgotTemplateName, fiber.Map{
		"Title": s.cfg.Title,
	})
}

// PostForgot relays the reset request to the platform. The rendered
// confirmation is identical whether or not the address exists.
func (s *Service) PostForgot(c *fiber.Ctx) error {
	form := new(forgotForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderForgotError(c, ErrInvalidFormData.Error())
	}

	if err := validate.Struct(form); err != nil {
		return s.renderForgotError(c, ErrInvalidFormData.Error())
	}

	if err := s.client.ForgotPassword(c.UserContext(), form.Email); err != nil {
		if platform.IsTransport(err) {
			return s.renderForgotError(c, platform.Message(err))
		}

		log.Debug().Err(err).Msg("forgot password request rejected")
	}

	return c.Render(ForgotTemplateName, fiber.Map{
		"Title": s.cfg.Title,
		"sent":  true,
	})
}

// GetReset renders the reset-password page for an emailed token link.
func (s *Service) GetReset(c *fiber.Ctx) error {
	return c.Render(ResetTemplateName, fiber.Map{
		"Title": s.cfg.Title,
		"token": c.Query("token", ""),
	})
}

// PostReset submits the new password and sends the operator to the
// login page.
func (s *Service) PostReset(c *fiber.Ctx) error {
	form := new(resetForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderResetError(c, "", ErrInvalidFormData.Error())
	}

	if err := validate.Struct(form); err != nil {
		return s.renderResetError(c, form.Token, ErrInvalidFormData.Error())
	}

	if err := s.client.ResetPassword(c.UserContext(), form.Token, form.Password); err != nil {
		return s.renderResetError(c, form.Token, platform.Message(err))
	}

	return c.Redirect("/login")
}

func (s *Service) renderForgotError(c *fiber.Ctx, message string) error {
	return c.Render(ForgotTemplateName, fiber.Map{
		"Title": s.cfg.Title,
		"error": message,
	})
}

func (s *Service) renderResetError(c *fiber.Ctx, token, message string) error {
	return c.Render(ResetTemplateName, fiber.Map{
		"Title": s.cfg.Title,
		"token": token,
		"error": message,
	})
}
