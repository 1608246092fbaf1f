package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantline/tenantline-console/internal/config"
	"github.com/tenantline/tenantline-console/internal/platform"
	"github.com/tenantline/tenantline-console/internal/session"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, store *session.Store, client *platform.Client) error
}
