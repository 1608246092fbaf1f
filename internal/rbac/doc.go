// Package rbac implements the console's authorization model.
//
// Permissions are scoped to a fixed, closed set of platform modules
// (organizations, subscriptions, users, ...) and a fixed, closed set of
// actions (view, create, edit, archive). A role -- called a designation in
// the UI -- bundles module/action grants; the union of grants across all
// roles a user holds is computed by the backend and delivered to the
// console as a permission map. The console never recomputes grants from
// role objects: when role membership or role grants change server-side,
// the permission map is re-fetched.
//
// # Evaluation
//
// The Engine type answers "can the current actor see module M" and "can
// the current actor perform action A on module M" from a permission map
// and the actor's platform roles. Holders of the super-admin platform
// role bypass the permission map entirely. Evaluation is pure and total:
// a nil or empty permission map means "no grants", never an error.
//
// Engine results gate navigation items and UI controls only. The backend
// enforces authorization independently; omitting a control here is a UX
// convenience, not a security boundary.
package rbac
