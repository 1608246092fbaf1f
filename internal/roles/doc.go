// Package roles manages platform role assignments for a single user
// being edited in the console. It loads the role catalog together with
// the user's current assignments and serializes toggle operations so
// that at most one assignment call is in flight at a time.
package roles
