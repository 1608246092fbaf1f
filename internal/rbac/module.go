package rbac

import "strings"

// Module is a fixed category of platform functionality that permissions
// are scoped to.
type Module string

// The closed set of platform modules. Permission maps referring to any
// other module are dropped during normalization.
const (
	// ModuleDashboard covers the landing dashboard.
	ModuleDashboard Module = "dashboard"
	// ModuleOrganizations covers tenant organization management.
	ModuleOrganizations Module = "organizations"
	// ModuleSubscriptions covers subscription management.
	ModuleSubscriptions Module = "subscriptions"
	// ModuleUsers covers platform user management.
	ModuleUsers Module = "users"
	// ModuleDesignations covers role (designation) management.
	ModuleDesignations Module = "designations"
	// ModuleAudit covers the audit log viewer.
	ModuleAudit Module = "audit"
	// ModuleAnalytics covers analytics and charts.
	ModuleAnalytics Module = "analytics"
	// ModuleSettings covers platform settings.
	ModuleSettings Module = "settings"
)

// Action is a fixed operation type within a module.
type Action string

// The closed set of actions a grant may contain.
const (
	// ActionView allows viewing a module and listing its resources.
	ActionView Action = "view"
	// ActionCreate allows creating resources within a module.
	ActionCreate Action = "create"
	// ActionEdit allows editing resources within a module.
	ActionEdit Action = "edit"
	// ActionArchive allows archiving resources within a module.
	ActionArchive Action = "archive"
)

var modules = []Module{
	ModuleDashboard,
	ModuleOrganizations,
	ModuleSubscriptions,
	ModuleUsers,
	ModuleDesignations,
	ModuleAudit,
	ModuleAnalytics,
	ModuleSettings,
}

var actions = []Action{
	ActionView,
	ActionCreate,
	ActionEdit,
	ActionArchive,
}

var (
	knownModuleSet = buildModuleSet()
	knownActionSet = buildActionSet()
)

func buildModuleSet() map[Module]struct{} {
	out := make(map[Module]struct{}, len(modules))
	for _, m := range modules {
		out[m] = struct{}{}
	}

	return out
}

func buildActionSet() map[Action]struct{} {
	out := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		out[a] = struct{}{}
	}

	return out
}

// AllModules returns the closed module set in display order.
func AllModules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)

	return out
}

// AllActions returns the closed action set.
func AllActions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)

	return out
}

// IsKnownModule reports whether m is part of the closed module set.
func IsKnownModule(m Module) bool {
	_, ok := knownModuleSet[m]
	return ok
}

// IsKnownAction reports whether a is part of the closed action set.
func IsKnownAction(a Action) bool {
	_, ok := knownActionSet[a]
	return ok
}

// ParseModule normalizes a raw module name. The second return value is
// false when the name is not part of the closed set.
func ParseModule(raw string) (Module, bool) {
	m := Module(strings.ToLower(strings.TrimSpace(raw)))
	return m, IsKnownModule(m)
}

// ParseAction normalizes a raw action name. The second return value is
// false when the name is not part of the closed set.
func ParseAction(raw string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	return a, IsKnownAction(a)
}
