package rbac

// PermissionMap maps a module to the set of actions the actor may perform
// on it. It is the union of grants across all roles the actor holds,
// computed by the backend and consumed here as-is.
type PermissionMap map[Module][]Action

// NormalizePermissionMap converts a raw wire-shape map into a
// PermissionMap. Unknown modules and actions are dropped, duplicate
// actions are collapsed, and modules left with an empty action set are
// omitted rather than stored empty.
func NormalizePermissionMap(raw map[string][]string) PermissionMap {
	if len(raw) == 0 {
		return nil
	}

	out := make(PermissionMap, len(raw))

	for rawModule, rawActions := range raw {
		module, ok := ParseModule(rawModule)
		if !ok {
			continue
		}

		actions := normalizeActions(rawActions)
		if len(actions) == 0 {
			continue
		}

		out[module] = actions
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func normalizeActions(raw []string) []Action {
	seen := make(map[Action]struct{}, len(raw))

	var out []Action

	for _, rawAction := range raw {
		action, ok := ParseAction(rawAction)
		if !ok {
			continue
		}

		if _, dup := seen[action]; dup {
			continue
		}

		seen[action] = struct{}{}
		out = append(out, action)
	}

	return out
}

// Allows reports whether the map grants action a on module m. A nil map
// allows nothing.
func (p PermissionMap) Allows(m Module, a Action) bool {
	for _, granted := range p[m] {
		if granted == a {
			return true
		}
	}

	return false
}

// HasModule reports whether the map carries a non-empty grant for m.
func (p PermissionMap) HasModule(m Module) bool {
	return len(p[m]) > 0
}

// Clone returns a deep copy so callers can hold a snapshot without
// aliasing the store's state.
func (p PermissionMap) Clone() PermissionMap {
	if p == nil {
		return nil
	}

	out := make(PermissionMap, len(p))
	for module, moduleActions := range p {
		copied := make([]Action, len(moduleActions))
		copy(copied, moduleActions)
		out[module] = copied
	}

	return out
}
