package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantline/tenantline-console/internal/rbac"
	"github.com/tenantline/tenantline-console/internal/session"
)

const refreshCookieName = "tl_refresh"

// fakePlatform is a minimal in-process backend: JWT access tokens,
// a rotating refresh cookie, and a handful of API routes.
type fakePlatform struct {
	t      *testing.T
	secret []byte

	mu             sync.Mutex
	refreshValue   string
	permissions    map[string][]string

	refreshCalls   int32
	meCalls        int32
	resourceCalls  int32
	firstAuthFails int32 // pending 401s to serve before the gate opens

	alwaysReject bool
	failRefresh  bool
	refreshGate  chan struct{} // when set, refresh blocks until closed
	refreshDelay time.Duration

	lastAuthHeader atomic.Value

	server *httptest.Server
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	f := &fakePlatform{
		t:            t,
		secret:       []byte("fake-platform-secret"),
		refreshValue: "refresh-0",
		permissions: map[string][]string{
			"organizations": {"view"},
			"users":         {"view", "edit"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", f.handleLogin)
	mux.HandleFunc("/auth/refresh-token", f.handleRefresh)
	mux.HandleFunc("/auth/me", f.handleMe)
	mux.HandleFunc("/admin/organizations", f.handleOrganizations)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakePlatform) mintToken(ttl time.Duration) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	require.NoError(f.t, err)

	return signed
}

func (f *fakePlatform) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	f.lastAuthHeader.Store(header)

	if f.alwaysReject || !strings.HasPrefix(header, "Bearer ") {
		return false
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return f.secret, nil })

	return err == nil && parsed.Valid
}

func (f *fakePlatform) rejectUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "access token expired"})
}

func (f *fakePlatform) userPayload() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return map[string]any{
		"id":            "u1",
		"name":          "Alice Admin",
		"email":         "alice@example.com",
		"role":          "administrator",
		"platformRoles": []string{"administrator"},
		"permissions":   f.permissions,
	}
}

func (f *fakePlatform) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&creds))

	if creds.Password != "s3cret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
		return
	}

	f.setRefreshCookie(w, "refresh-login")
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": f.mintToken(time.Minute),
		"user":        f.userPayload(),
	})
}

func (f *fakePlatform) handleRefresh(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.refreshCalls, 1)

	if f.refreshGate != nil {
		<-f.refreshGate
	}

	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}

	if f.failRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh credential expired"})
		return
	}

	cookie, err := r.Cookie(refreshCookieName)

	f.mu.Lock()
	valid := err == nil && cookie.Value == f.refreshValue
	if valid {
		// The server rotates the refresh credential on every use.
		f.refreshValue = "refresh-" + time.Now().Format("150405.000000000")
	}
	rotated := f.refreshValue
	f.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh credential rotated"})
		return
	}

	f.setRefreshCookie(w, rotated)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": f.mintToken(time.Minute)})
}

func (f *fakePlatform) handleMe(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.meCalls, 1)

	if !f.authorized(r) {
		f.rejectUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, f.userPayload())
}

func (f *fakePlatform) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	calls := atomic.AddInt32(&f.resourceCalls, 1)

	if pending := atomic.LoadInt32(&f.firstAuthFails); pending > 0 && calls <= pending {
		f.rejectUnauthorized(w)
		return
	}

	if !f.authorized(r) {
		f.rejectUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, []map[string]string{{"id": "org-1", "name": "Acme"}})
}

func (f *fakePlatform) setRefreshCookie(w http.ResponseWriter, value string) {
	f.mu.Lock()
	f.refreshValue = value
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, f *fakePlatform) (*Client, *session.Store) {
	t.Helper()

	store := session.NewStore(&session.MemoryPersister{})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client, err := New(Config{BaseURL: f.server.URL}, store, WithCookieJar(jar))
	require.NoError(t, err)

	return client, store
}

func login(t *testing.T, client *Client) session.Identity {
	t.Helper()

	identity, err := client.Login(context.Background(), Credentials{
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	return identity
}

func TestClient_LoginStoresTokenAndReturnsIdentity(t *testing.T) {
	f := newFakePlatform(t)
	client, store := newTestClient(t, f)

	identity := login(t, client)

	assert.Equal(t, "u1", identity.User.ID)
	assert.Equal(t, []string{"administrator"}, identity.PlatformRoles)
	assert.True(t, identity.Permissions.Allows(rbac.ModuleUsers, rbac.ActionEdit))
	assert.NotEmpty(t, store.Token())
	assert.True(t, store.State().IsAuthenticated)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	f := newFakePlatform(t)
	client, store := newTestClient(t, f)
	login(t, client)

	var orgs []map[string]string
	require.NoError(t, client.Get(context.Background(), "/admin/organizations", &orgs))
	require.Len(t, orgs, 1)

	assert.Equal(t, "Bearer "+store.Token(), f.lastAuthHeader.Load())
}

func TestClient_LoginFailureNeverRefreshes(t *testing.T) {
	f := newFakePlatform(t)
	client, store := newTestClient(t, f)

	_, err := client.Login(context.Background(), Credentials{Email: "alice@example.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "invalid email or password", Message(err))
	assert.Zero(t, atomic.LoadInt32(&f.refreshCalls))
	assert.Empty(t, store.Token())
}

func TestClient_ExpiredTokenRefreshedAndRetriedOnce(t *testing.T) {
	f := newFakePlatform(t)
	client, store := newTestClient(t, f)
	login(t, client)

	// Age the access token; the refresh cookie from login stays valid.
	store.SetToken(f.mintToken(-time.Minute))

	var orgs []map[string]string
	require.NoError(t, client.Get(context.Background(), "/admin/organizations", &orgs))

	// The caller got the original request's result, via one refresh and
	// one retry.
	assert.Equal(t, "org-1", orgs[0]["id"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.resourceCalls))

	// The rotated token is in the store and works without refreshing.
	require.NoError(t, client.Get(context.Background(), "/admin/organizations", &orgs))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.refreshCalls))
}

func TestClient_RetriedRequestFailing401IsNotRefreshedAgain(t *testing.T) {
	f := newFakePlatform(t)
	client, _ := newTestClient(t, f)
	login(t, client)

	// Reject every bearer token from here on: the refresh itself still
	// succeeds, but the retried request is denied again.
	f.alwaysReject = true

	err := client.Get(context.Background(), "/admin/organizations", nil)

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	// One refresh, one retry, then the second 401 is propagated.
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.resourceCalls))
}

func TestClient_RefreshFailureLogsOutAndReturnsOriginalError(t *testing.T) {
	f := newFakePlatform(t)
	f.failRefresh = true

	client, store := newTestClient(t, f)
	store.SetToken(f.mintToken(-time.Minute))

	err := client.Get(context.Background(), "/admin/organizations", nil)

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	// The original 401's message survives, not the refresh error's.
	assert.Equal(t, "access token expired", Message(err))

	state := store.State()
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Token)
}

func TestClient_ConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	const workers = 8

	f := newFakePlatform(t)
	f.refreshGate = make(chan struct{})
	f.refreshDelay = 100 * time.Millisecond
	f.firstAuthFails = workers

	client, store := newTestClient(t, f)
	login(t, client)
	store.SetToken(f.mintToken(-time.Minute))

	// Open the refresh gate only after every worker has seen its 401,
	// so all of them race into the refresh path together.
	var sawUnauthorized sync.WaitGroup
	sawUnauthorized.Add(workers)

	go func() {
		sawUnauthorized.Wait()
		close(f.refreshGate)
	}()

	var group sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		group.Add(1)

		go func(i int) {
			defer group.Done()

			err := client.do(context.Background(), http.MethodGet, "/admin/organizations", nil, nil, callOpts{})
			errs[i] = err
		}(i)
	}

	// Each worker's first attempt is answered with a 401 before the
	// gate opens; count them down as the server serves them.
	go func() {
		served := int32(0)
		for atomic.LoadInt32(&f.resourceCalls) < workers {
			time.Sleep(time.Millisecond)
		}
		for ; served < workers; served++ {
			sawUnauthorized.Done()
		}
	}()

	group.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}

	// The refresh credential rotates on use, so exactly one refresh may
	// happen no matter how many requests raced into 401.
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.refreshCalls))
	assert.True(t, store.State().IsAuthenticated)
}

func TestClient_TimeoutSurfacesAsTransportError(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	store := session.NewStore(nil)
	client, err := New(Config{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, store)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/admin/organizations", nil)

	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTimeout, apiErr.Kind)
}

func TestClient_ConnectionRefusedIsClassified(t *testing.T) {
	store := session.NewStore(nil)
	client, err := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, store)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/admin/organizations", nil)

	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindConnectionRefused, apiErr.Kind)
}

func TestClient_MeReflectsServerSideRevocation(t *testing.T) {
	f := newFakePlatform(t)
	client, _ := newTestClient(t, f)
	login(t, client)

	before, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, before.Permissions.Allows(rbac.ModuleUsers, rbac.ActionEdit))

	// Archive the role server-side; grants disappear immediately and the
	// console re-fetches rather than patching locally.
	f.mu.Lock()
	f.permissions = map[string][]string{"organizations": {"view"}}
	f.mu.Unlock()

	after, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.False(t, after.Permissions.Allows(rbac.ModuleUsers, rbac.ActionEdit))
	assert.False(t, after.Permissions.HasModule(rbac.ModuleUsers))
}

func TestClient_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "backend.internal/api"}, session.NewStore(nil))
	assert.Error(t, err)
}
