package session

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

// schemaVersion tags the persisted blob. Bump it whenever persistedState
// changes shape; older blobs are then invalidated instead of loaded.
const schemaVersion = 1

// ErrIncompatibleState is returned by Restore when a persisted blob was
// present but could not be used (wrong schema version or undecodable).
// The blob is discarded and the session starts unauthenticated.
var ErrIncompatibleState = errors.New("persisted session state is incompatible")

type persistedState struct {
	SchemaVersion   int                `json:"schemaVersion"`
	Token           string             `json:"token"`
	User            *User              `json:"user,omitempty"`
	Permissions     rbac.PermissionMap `json:"permissions,omitempty"`
	IsAuthenticated bool               `json:"isAuthenticated"`
}

func encodeState(state State) ([]byte, error) {
	return json.Marshal(persistedState{
		SchemaVersion:   schemaVersion,
		Token:           state.Token,
		User:            state.User,
		Permissions:     state.Permissions,
		IsAuthenticated: state.IsAuthenticated,
	})
}

// Restore loads the persisted blob into the store. The session stays in
// the loading phase; bootstrap decides whether the restored token is
// still good. A missing blob is not an error.
func (s *Store) Restore() error {
	blob, err := s.persist.Load()
	if err != nil {
		return err
	}

	if len(blob) == 0 {
		return nil
	}

	var persisted persistedState
	if err := json.Unmarshal(blob, &persisted); err != nil {
		s.discardPersisted()
		return ErrIncompatibleState
	}

	if persisted.SchemaVersion != schemaVersion {
		log.Warn().
			Int("blob_version", persisted.SchemaVersion).
			Int("supported_version", schemaVersion).
			Msg("discarding persisted session with incompatible schema")
		s.discardPersisted()

		return ErrIncompatibleState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = persisted.Token
	s.state.User = persisted.User
	s.state.Permissions = persisted.Permissions
	// IsAuthenticated holds only while the token is present; the final
	// word belongs to the bootstrap check.
	s.state.IsAuthenticated = persisted.IsAuthenticated && persisted.Token != ""

	return nil
}

func (s *Store) discardPersisted() {
	if err := s.persist.Delete(); err != nil {
		log.Error().Err(err).Msg("failed to discard persisted session")
	}
}

// MemoryPersister is an in-memory Persister for tests and for running
// without a state database.
type MemoryPersister struct {
	blob []byte
}

func (m *MemoryPersister) Save(blob []byte) error {
	m.blob = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryPersister) Load() ([]byte, error) {
	if m.blob == nil {
		return nil, nil
	}

	return append([]byte(nil), m.blob...), nil
}

func (m *MemoryPersister) Delete() error {
	m.blob = nil
	return nil
}
