package roles

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

type fakeClient struct {
	mu       sync.Mutex
	catalog  []rbac.Role
	assigned map[string]map[string]struct{} // userID -> roleIDs

	assignErr error
	removeErr error

	blockAssign chan struct{} // when set, AssignRole waits on it

	assignCalls int32
	removeCalls int32
}

func newFakeClient(catalog ...rbac.Role) *fakeClient {
	return &fakeClient{
		catalog:  catalog,
		assigned: make(map[string]map[string]struct{}),
	}
}

func (f *fakeClient) grant(userID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.assigned[userID] == nil {
		f.assigned[userID] = make(map[string]struct{})
	}
	f.assigned[userID][roleID] = struct{}{}
}

func (f *fakeClient) Roles(context.Context) ([]rbac.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]rbac.Role(nil), f.catalog...), nil
}

func (f *fakeClient) UserRoles(_ context.Context, userID string) ([]rbac.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []rbac.Role
	for _, role := range f.catalog {
		if _, ok := f.assigned[userID][role.ID]; ok {
			out = append(out, role)
		}
	}

	return out, nil
}

func (f *fakeClient) AssignRole(_ context.Context, userID, roleID string) error {
	atomic.AddInt32(&f.assignCalls, 1)

	if f.blockAssign != nil {
		<-f.blockAssign
	}

	if f.assignErr != nil {
		return f.assignErr
	}

	f.grant(userID, roleID)
	return nil
}

func (f *fakeClient) RemoveRole(_ context.Context, userID, roleID string) error {
	atomic.AddInt32(&f.removeCalls, 1)

	if f.removeErr != nil {
		return f.removeErr
	}

	f.mu.Lock()
	delete(f.assigned[userID], roleID)
	f.mu.Unlock()

	return nil
}

func testCatalog() []rbac.Role {
	return []rbac.Role{
		{ID: "r-admin", Name: "Administrator"},
		{ID: "r-support", Name: "Support"},
		{ID: "r-billing", Name: "Billing"},
	}
}

func TestManager_LoadPopulatesCatalogAndAssignments(t *testing.T) {
	client := newFakeClient(testCatalog()...)
	client.grant("u1", "r-support")

	m := NewManager(client, "u1")
	require.NoError(t, m.Load(context.Background()))

	assert.Len(t, m.Catalog(), 3)
	assert.True(t, m.Assigned("r-support"))
	assert.False(t, m.Assigned("r-admin"))

	held := m.AssignedRoles()
	require.Len(t, held, 1)
	assert.Equal(t, "Support", held[0].Name)
}

func TestManager_ToggleCycleRestoresOriginalSet(t *testing.T) {
	client := newFakeClient(testCatalog()...)

	m := NewManager(client, "u1")
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Toggle(context.Background(), "r-admin"))
	assert.True(t, m.Assigned("r-admin"))

	require.NoError(t, m.Toggle(context.Background(), "r-admin"))
	assert.False(t, m.Assigned("r-admin"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&client.assignCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.removeCalls))
	assert.Empty(t, m.AssignedRoles())
}

func TestManager_ToggleBeforeLoad(t *testing.T) {
	m := NewManager(newFakeClient(testCatalog()...), "u1")

	err := m.Toggle(context.Background(), "r-admin")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestManager_ToggleUnknownRole(t *testing.T) {
	client := newFakeClient(testCatalog()...)

	m := NewManager(client, "u1")
	require.NoError(t, m.Load(context.Background()))

	err := m.Toggle(context.Background(), "r-missing")
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.Zero(t, atomic.LoadInt32(&client.assignCalls))
}

func TestManager_SecondToggleWhileBusyIsRejected(t *testing.T) {
	client := newFakeClient(testCatalog()...)
	client.blockAssign = make(chan struct{})

	m := NewManager(client, "u1")
	require.NoError(t, m.Load(context.Background()))

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)
		done <- m.Toggle(context.Background(), "r-admin")
	}()

	<-started
	for atomic.LoadInt32(&client.assignCalls) == 0 {
		runtime.Gosched()
	}
	assert.True(t, m.Busy())

	// The guard holds for the whole backend call, so this one is
	// rejected without touching the client.
	err := m.Toggle(context.Background(), "r-support")
	assert.ErrorIs(t, err, ErrAssignmentInFlight)
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.assignCalls))

	close(client.blockAssign)
	require.NoError(t, <-done)

	assert.True(t, m.Assigned("r-admin"))
	assert.False(t, m.Assigned("r-support"))
}

func TestManager_FailedToggleLeavesLocalSetUntouched(t *testing.T) {
	client := newFakeClient(testCatalog()...)
	client.assignErr = errors.New("backend unavailable")

	m := NewManager(client, "u1")
	require.NoError(t, m.Load(context.Background()))

	err := m.Toggle(context.Background(), "r-admin")
	require.Error(t, err)
	assert.False(t, m.Assigned("r-admin"))
	assert.False(t, m.Busy())
}

func TestManager_NotifyFiresOnlyOnCommit(t *testing.T) {
	client := newFakeClient(testCatalog()...)

	var notified int32
	m := NewManager(client, "u1", WithNotify(func() {
		atomic.AddInt32(&notified, 1)
	}))
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Toggle(context.Background(), "r-admin"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))

	client.removeErr = errors.New("backend unavailable")
	require.Error(t, m.Toggle(context.Background(), "r-admin"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}
