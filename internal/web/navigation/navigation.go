// Package navigation provides utilities for managing navigation state,
// breadcrumbs and the permission-gated module menu.
package navigation

import (
	"github.com/tenantline/tenantline-console/internal/rbac"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem represents a single module link in the sidebar menu.
type MenuItem struct {
	Title  string
	URL    string
	Module rbac.Module
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	Menu          []MenuItem
	PageTitle     string
}

// menuOrder lists every module link in display order. Items the
// operator can not view are omitted from the rendered menu, never
// disabled.
var menuOrder = []MenuItem{
	{Title: "Dashboard", URL: "/dashboard", Module: rbac.ModuleDashboard},
	{Title: "Organizations", URL: "/organizations", Module: rbac.ModuleOrganizations},
	{Title: "Subscriptions", URL: "/subscriptions", Module: rbac.ModuleSubscriptions},
	{Title: "Users", URL: "/users", Module: rbac.ModuleUsers},
	{Title: "Designations", URL: "/designations", Module: rbac.ModuleDesignations},
	{Title: "Audit", URL: "/audit", Module: rbac.ModuleAudit},
	{Title: "Analytics", URL: "/analytics", Module: rbac.ModuleAnalytics},
	{Title: "Settings", URL: "/settings", Module: rbac.ModuleSettings},
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
		Menu:          make([]MenuItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// WithMenu fills the menu with the module links the engine permits.
func (c *Context) WithMenu(engine rbac.Engine) *Context {
	for _, item := range menuOrder {
		if engine.CanViewModule(item.Module) {
			c.Menu = append(c.Menu, item)
		}
	}

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
