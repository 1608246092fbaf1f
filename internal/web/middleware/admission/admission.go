// Package admission decides per request whether the console may show a
// page: a loading page while the session bootstrap runs, a redirect to
// the login page for unauthenticated requests, and a redirect to the
// dashboard when an authenticated operator opens a public page.
package admission

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tenantline/tenantline-console/internal/session"
)

const (
	// LoginPath is the target for unauthenticated redirects.
	LoginPath = "/login"

	// HomePath is the target for authenticated redirects away from
	// public pages.
	HomePath = "/dashboard"

	// LoadingTemplate is rendered while the session bootstrap runs.
	LoadingTemplate = "loading"
)

// publicPaths may be visited without a session.
var publicPaths = map[string]struct{}{
	"/login":           {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
}

// bypassPrefixes skip admission entirely.
var bypassPrefixes = []string{
	"/static",
	"/metrics",
	"/checkalive",
}

// IsPublic reports whether the path may be visited without a session.
func IsPublic(path string) bool {
	_, ok := publicPaths[strings.ToLower(path)]
	return ok
}

func isBypassed(path string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// New creates the route admission middleware over the session store.
func New(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())

		if isBypassed(path) {
			return c.Next()
		}

		state := store.State()

		if state.IsLoading {
			return c.Status(fiber.StatusServiceUnavailable).Render(LoadingTemplate, fiber.Map{})
		}

		if !state.IsAuthenticated && !IsPublic(path) {
			return c.Redirect(LoginPath)
		}

		if state.IsAuthenticated && IsPublic(path) {
			return c.Redirect(HomePath)
		}

		return c.Next()
	}
}
