// Package authorize provides route-level permission gates. Navigation
// already omits links the operator can not use; these gates cover
// direct URL access.
package authorize

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantline/tenantline-console/internal/rbac"
	"github.com/tenantline/tenantline-console/internal/session"
)

// ForbiddenTemplate is rendered for a denied direct URL access.
const ForbiddenTemplate = "errors/forbidden"

// RequireModule admits the request only when the operator may view the
// module.
func RequireModule(store *session.Store, m rbac.Module) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !store.State().Engine().CanViewModule(m) {
			return forbidden(c)
		}

		return c.Next()
	}
}

// RequireAction admits the request only when the operator may perform
// the action on the module.
func RequireAction(store *session.Store, m rbac.Module, a rbac.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !store.State().Engine().CanPerformAction(m, a) {
			return forbidden(c)
		}

		return c.Next()
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).Render(ForbiddenTemplate, fiber.Map{})
}
