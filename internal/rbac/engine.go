package rbac

import "strings"

// BypassRole is the platform role whose holders skip the permission map
// entirely and see every module and action.
const BypassRole = "super-admin"

// Engine evaluates what the current actor may see and do. It is a pure
// value over a permission map and the actor's platform roles; build a
// fresh Engine from the session state whenever either changes.
type Engine struct {
	perms PermissionMap
	roles map[string]struct{}
}

// NewEngine builds an Engine. Both arguments may be nil or empty, which
// yields an engine that grants nothing.
func NewEngine(perms PermissionMap, platformRoles []string) Engine {
	var roles map[string]struct{}

	if len(platformRoles) > 0 {
		roles = make(map[string]struct{}, len(platformRoles))
		for _, role := range platformRoles {
			role = strings.ToLower(strings.TrimSpace(role))
			if role == "" {
				continue
			}

			roles[role] = struct{}{}
		}
	}

	return Engine{perms: perms, roles: roles}
}

// CanViewModule reports whether the actor may see module m at all: true
// for bypass-role holders, otherwise true when the permission map carries
// a non-empty grant for m.
func (e Engine) CanViewModule(m Module) bool {
	if e.hasBypass() {
		return true
	}

	return e.perms.HasModule(m)
}

// CanPerformAction reports whether the actor may perform action a on
// module m: true for bypass-role holders, otherwise true when the
// permission map grants a on m.
func (e Engine) CanPerformAction(m Module, a Action) bool {
	if e.hasBypass() {
		return true
	}

	return e.perms.Allows(m, a)
}

// VisibleModules returns the subset of the closed module set the actor
// may see, in display order. Used to filter navigation items.
func (e Engine) VisibleModules() []Module {
	var out []Module

	for _, m := range modules {
		if e.CanViewModule(m) {
			out = append(out, m)
		}
	}

	return out
}

func (e Engine) hasBypass() bool {
	_, ok := e.roles[BypassRole]
	return ok
}
