package roles

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tenantline/tenantline-console/internal/rbac"
)

var (
	// ErrAssignmentInFlight is returned by Toggle while a previous
	// toggle is still waiting on the backend. Callers treat it as a
	// no-op rather than a failure.
	ErrAssignmentInFlight = errors.New("role assignment already in progress")

	// ErrUnknownRole is returned when a toggle names a role that is not
	// part of the loaded catalog.
	ErrUnknownRole = errors.New("unknown role")

	// ErrNotLoaded is returned when Toggle runs before Load.
	ErrNotLoaded = errors.New("role assignments not loaded")
)

// Client is the slice of the platform API the manager needs.
type Client interface {
	Roles(ctx context.Context) ([]rbac.Role, error)
	UserRoles(ctx context.Context, userID string) ([]rbac.Role, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// Manager tracks the role catalog and one user's assignments.
type Manager struct {
	client Client
	userID string
	notify func()

	busy atomic.Bool

	mu       sync.Mutex
	catalog  []rbac.Role
	assigned map[string]struct{}
	loaded   bool
}

type Option func(*Manager)

// WithNotify registers a callback invoked after every committed
// assignment change. The console uses it to re-fetch the signed-in
// identity when the edited user is the operator themselves.
func WithNotify(fn func()) Option {
	return func(m *Manager) {
		m.notify = fn
	}
}

func NewManager(client Client, userID string, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		userID:   userID,
		assigned: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load fetches the role catalog and the user's assignments in parallel
// and replaces the local state with the result.
func (m *Manager) Load(ctx context.Context) error {
	var (
		catalog []rbac.Role
		mine    []rbac.Role
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		roles, err := m.client.Roles(ctx)
		if err != nil {
			return errors.Wrap(err, "load role catalog")
		}

		catalog = roles
		return nil
	})

	g.Go(func() error {
		roles, err := m.client.UserRoles(ctx, m.userID)
		if err != nil {
			return errors.Wrap(err, "load user roles")
		}

		mine = roles
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	assigned := make(map[string]struct{}, len(mine))
	for _, role := range mine {
		assigned[role.ID] = struct{}{}
	}

	m.mu.Lock()
	m.catalog = catalog
	m.assigned = assigned
	m.loaded = true
	m.mu.Unlock()

	return nil
}

// Toggle assigns the role when the user does not hold it and removes it
// when they do. The local set only changes after the backend confirms.
// While a toggle is in flight any further toggle is rejected with
// ErrAssignmentInFlight.
func (m *Manager) Toggle(ctx context.Context, roleID string) error {
	if !m.busy.CompareAndSwap(false, true) {
		return ErrAssignmentInFlight
	}
	defer m.busy.Store(false)

	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return ErrNotLoaded
	}

	if !m.inCatalogLocked(roleID) {
		m.mu.Unlock()
		return errors.Wrapf(ErrUnknownRole, "role %q", roleID)
	}

	_, held := m.assigned[roleID]
	m.mu.Unlock()

	var err error
	if held {
		err = m.client.RemoveRole(ctx, m.userID, roleID)
	} else {
		err = m.client.AssignRole(ctx, m.userID, roleID)
	}

	if err != nil {
		return err
	}

	m.mu.Lock()
	if held {
		delete(m.assigned, roleID)
	} else {
		m.assigned[roleID] = struct{}{}
	}
	m.mu.Unlock()

	if m.notify != nil {
		m.notify()
	}

	return nil
}

// Busy reports whether a toggle is currently waiting on the backend.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

// Catalog returns the loaded role catalog.
func (m *Manager) Catalog() []rbac.Role {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]rbac.Role, len(m.catalog))
	copy(out, m.catalog)

	return out
}

// Assigned reports whether the user currently holds the role.
func (m *Manager) Assigned(roleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.assigned[roleID]
	return ok
}

// AssignedRoles returns the catalog entries the user holds, in catalog
// order.
func (m *Manager) AssignedRoles() []rbac.Role {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]rbac.Role, 0, len(m.assigned))
	for _, role := range m.catalog {
		if _, ok := m.assigned[role.ID]; ok {
			out = append(out, role)
		}
	}

	return out
}

func (m *Manager) inCatalogLocked(roleID string) bool {
	for _, role := range m.catalog {
		if role.ID == roleID {
			return true
		}
	}

	return false
}
