// Package session holds the console's authenticated context: the access
// token, the signed-in user, the derived permission map, and the session
// lifecycle phase.
//
// The Store is an explicit service object created once per process and
// injected into everything that needs it (the platform gateway, the
// bootstrap sequence, the web layer). There is no ambient global state.
// The access token is mutated only by the gateway and by the explicit
// login/logout flows, so every component observes the same token.
//
// A subset of the state (token, user, permissions, authenticated flag)
// is mirrored to a persisted blob with an explicit schema version; an
// incompatible blob is discarded rather than loaded, so a shape change
// can never produce a session that looks authenticated but is broken.
// IsLoading is deliberately never persisted: every process start runs
// the Bootstrap sequence again, even with a valid cached token.
package session
