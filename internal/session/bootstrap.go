package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

// Phase is a bootstrap state machine phase.
type Phase string

const (
	// PhaseUninitialized is the phase before the persisted token has
	// been examined.
	PhaseUninitialized Phase = "uninitialized"
	// PhaseChecking means a persisted token exists and is being verified
	// against the backend.
	PhaseChecking Phase = "checking"
	// PhaseAuthenticated is the terminal phase for a valid session.
	PhaseAuthenticated Phase = "authenticated"
	// PhaseUnauthenticated is the terminal phase for no/invalid session.
	PhaseUnauthenticated Phase = "unauthenticated"
)

// Identity is the backend's answer to "who am I": the user record plus
// the server-derived authorization data.
type Identity struct {
	User          User
	PlatformRoles []string
	Permissions   rbac.PermissionMap
}

// IdentityClient is the slice of the platform gateway the bootstrap
// sequence needs. Calls made through it get the gateway's transparent
// refresh-and-retry, so an expired persisted token can still recover.
type IdentityClient interface {
	Me(ctx context.Context) (Identity, error)
}

// Bootstrap reconciles the persisted session with the server's notion of
// it, once per process start, before protected UI is admitted.
type Bootstrap struct {
	store  *Store
	client IdentityClient
	phase  Phase
}

// NewBootstrap creates the bootstrap sequence for a store.
func NewBootstrap(store *Store, client IdentityClient) *Bootstrap {
	return &Bootstrap{store: store, client: client, phase: PhaseUninitialized}
}

// Phase returns the current phase.
func (b *Bootstrap) Phase() Phase {
	return b.phase
}

// Run drives the state machine to a terminal phase. With no persisted
// token it goes straight to unauthenticated without touching the
// network. Either terminal phase ends the loading state.
func (b *Bootstrap) Run(ctx context.Context) Phase {
	defer b.store.finishLoading()

	if err := b.store.Restore(); err != nil {
		if errors.Is(err, ErrIncompatibleState) {
			log.Warn().Msg("persisted session discarded, starting unauthenticated")
		} else {
			log.Error().Err(err).Msg("failed to load persisted session")
		}
	}

	if b.store.Token() == "" {
		b.phase = PhaseUnauthenticated
		log.Debug().Msg("no persisted token, skipping session check")

		return b.phase
	}

	b.phase = PhaseChecking

	identity, err := b.client.Me(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("persisted session rejected by backend")
		b.store.Logout()
		b.phase = PhaseUnauthenticated

		return b.phase
	}

	user := identity.User
	b.store.SetUser(&user)
	b.store.SetPlatformRoles(identity.PlatformRoles)
	b.store.SetPermissions(identity.Permissions)

	b.phase = PhaseAuthenticated
	log.Info().Str("user_id", user.ID).Msg("session restored")

	return b.phase
}
