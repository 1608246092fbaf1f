package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

// Persister stores the session blob across process restarts. Load returns
// a nil blob when nothing has been persisted yet.
type Persister interface {
	Save(blob []byte) error
	Load() ([]byte, error)
	Delete() error
}

// Store holds the current session state behind a mutex. Fiber handlers
// and the gateway's retry path touch it from multiple goroutines.
type Store struct {
	mu      sync.RWMutex
	state   State
	persist Persister
}

// NewStore creates a Store in the loading phase with nothing restored.
func NewStore(persist Persister) *Store {
	if persist == nil {
		persist = noopPersister{}
	}

	return &Store{
		state:   State{IsLoading: true},
		persist: persist,
	}
}

// State returns a snapshot of the current values. Safe for non-reactive
// call sites such as the gateway, which cannot subscribe to UI state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.clone()
}

// Token returns just the current access token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Token
}

// SetToken replaces the access token and recomputes IsAuthenticated. An
// empty token means "no token". The new value is persisted.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = token
	s.state.IsAuthenticated = token != ""
	s.persistLocked()
}

// SetUser replaces the identity record. No cross-field validation is
// performed; callers must sequence token and user updates correctly.
func (s *Store) SetUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.User = user
	s.persistLocked()
}

// SetPermissions replaces the permission map.
func (s *Store) SetPermissions(perms rbac.PermissionMap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Permissions = perms
	s.persistLocked()
}

// SetPlatformRoles replaces the actor's platform role names. Platform
// roles are re-fetched at bootstrap and never persisted.
func (s *Store) SetPlatformRoles(roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.PlatformRoles = roles
}

// Logout clears token, user, permissions and platform roles in one step
// and removes the persisted blob. It does not navigate; route admission
// reacts to the cleared state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	loading := s.state.IsLoading
	s.state = State{IsLoading: loading}

	if err := s.persist.Delete(); err != nil {
		log.Error().Err(err).Msg("failed to delete persisted session")
	}
}

// finishLoading marks the first authentication decision as made. Only the
// bootstrap sequence calls this.
func (s *Store) finishLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsLoading = false
}

func (s *Store) persistLocked() {
	blob, err := encodeState(s.state)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode session state")
		return
	}

	if err := s.persist.Save(blob); err != nil {
		log.Error().Err(err).Msg("failed to persist session state")
	}
}

type noopPersister struct{}

func (noopPersister) Save([]byte) error    { return nil }
func (noopPersister) Load() ([]byte, error) { return nil, nil }
func (noopPersister) Delete() error         { return nil }
