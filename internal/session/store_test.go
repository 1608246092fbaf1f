package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

func TestStore_InitialStateIsLoading(t *testing.T) {
	store := NewStore(nil)
	state := store.State()

	assert.True(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Token)
	assert.Nil(t, state.User)
}

func TestStore_SetTokenRecomputesAuthenticated(t *testing.T) {
	store := NewStore(nil)

	store.SetToken("tok-1")
	assert.True(t, store.State().IsAuthenticated)

	store.SetToken("")
	assert.False(t, store.State().IsAuthenticated)
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	persist := &MemoryPersister{}
	store := NewStore(persist)

	store.SetToken("tok-1")
	store.SetUser(&User{ID: "u1", Name: "Alice"})
	store.SetPermissions(rbac.PermissionMap{rbac.ModuleUsers: {rbac.ActionView}})
	store.SetPlatformRoles([]string{"admin"})
	store.finishLoading()

	store.Logout()
	state := store.State()

	assert.Empty(t, state.Token)
	assert.Nil(t, state.User)
	assert.Nil(t, state.Permissions)
	assert.Nil(t, state.PlatformRoles)
	assert.False(t, state.IsAuthenticated)
	// Logout does not re-enter the loading phase.
	assert.False(t, state.IsLoading)

	blob, err := persist.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestStore_PersistsAcrossRestart(t *testing.T) {
	persist := &MemoryPersister{}

	first := NewStore(persist)
	first.SetToken("tok-1")
	first.SetUser(&User{ID: "u1", Email: "alice@example.com"})
	first.SetPermissions(rbac.PermissionMap{rbac.ModuleAudit: {rbac.ActionView}})
	first.SetPlatformRoles([]string{"admin"})

	second := NewStore(persist)
	require.NoError(t, second.Restore())

	state := second.State()
	assert.Equal(t, "tok-1", state.Token)
	require.NotNil(t, state.User)
	assert.Equal(t, "u1", state.User.ID)
	assert.True(t, state.Permissions.Allows(rbac.ModuleAudit, rbac.ActionView))
	assert.True(t, state.IsAuthenticated)
	// IsLoading is never persisted; every restart starts loading.
	assert.True(t, state.IsLoading)
	// Platform roles are never persisted; bootstrap re-fetches them.
	assert.Nil(t, state.PlatformRoles)
}

func TestStore_RestoreWithNothingPersisted(t *testing.T) {
	store := NewStore(&MemoryPersister{})

	require.NoError(t, store.Restore())
	assert.Empty(t, store.Token())
}

func TestStore_RestoreDiscardsWrongSchemaVersion(t *testing.T) {
	persist := &MemoryPersister{}
	blob, err := json.Marshal(map[string]any{
		"schemaVersion":   99,
		"token":           "tok-1",
		"isAuthenticated": true,
	})
	require.NoError(t, err)
	require.NoError(t, persist.Save(blob))

	store := NewStore(persist)
	err = store.Restore()

	assert.ErrorIs(t, err, ErrIncompatibleState)
	assert.Empty(t, store.Token())
	assert.False(t, store.State().IsAuthenticated)

	// The incompatible blob is gone, not kept around.
	remaining, loadErr := persist.Load()
	require.NoError(t, loadErr)
	assert.Nil(t, remaining)
}

func TestStore_RestoreDiscardsUndecodableBlob(t *testing.T) {
	persist := &MemoryPersister{}
	require.NoError(t, persist.Save([]byte("{not json")))

	store := NewStore(persist)
	assert.ErrorIs(t, store.Restore(), ErrIncompatibleState)
	assert.Empty(t, store.Token())
}

func TestStore_StateSnapshotDoesNotAliasInternals(t *testing.T) {
	store := NewStore(nil)
	store.SetPermissions(rbac.PermissionMap{rbac.ModuleUsers: {rbac.ActionView}})
	store.SetUser(&User{ID: "u1"})

	snapshot := store.State()
	snapshot.Permissions[rbac.ModuleUsers][0] = rbac.ActionArchive
	snapshot.User.ID = "mutated"

	state := store.State()
	assert.Equal(t, rbac.ActionView, state.Permissions[rbac.ModuleUsers][0])
	assert.Equal(t, "u1", state.User.ID)
}
