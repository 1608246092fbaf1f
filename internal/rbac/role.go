package rbac

// Grant pairs a module with the actions a role allows on it. Order of
// grants within a role is irrelevant.
type Grant struct {
	Module  Module   `json:"module"`
	Actions []Action `json:"actions"`
}

// Role is a named, reusable bundle of permission grants, called a
// designation in the console UI. Roles are created, edited and archived
// by administrators through the backend; archiving a role immediately
// revokes its grants from every user holding it.
type Role struct {
	// ID is the backend identifier for the role.
	ID string `json:"id"`
	// Name is the display name of the role.
	Name string `json:"name"`
	// Description explains the role's purpose.
	Description string `json:"description"`
	// Grants is the set of module/action pairs the role bundles.
	Grants []Grant `json:"grants"`
}

// NormalizeGrants drops grants for unknown modules, removes unknown and
// duplicate actions, and omits grants whose action set ends up empty. A
// module with no actions is equivalent to no grant for that module.
func NormalizeGrants(grants []Grant) []Grant {
	var out []Grant

	seen := make(map[Module]struct{}, len(grants))

	for _, grant := range grants {
		module, ok := ParseModule(string(grant.Module))
		if !ok {
			continue
		}

		if _, dup := seen[module]; dup {
			continue
		}

		raw := make([]string, len(grant.Actions))
		for i, a := range grant.Actions {
			raw[i] = string(a)
		}

		actions := normalizeActions(raw)
		if len(actions) == 0 {
			continue
		}

		seen[module] = struct{}{}
		out = append(out, Grant{Module: module, Actions: actions})
	}

	return out
}
