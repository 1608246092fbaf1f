package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tenantline/tenantline-console/internal/session"
)

const (
	defaultTimeout = 15 * time.Second

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
)

// API paths consumed by the gateway.
const (
	loginPath          = "/auth/login"
	registerPath       = "/auth/register"
	refreshPath        = "/auth/refresh-token"
	mePath             = "/auth/me"
	logoutPath         = "/auth/logout"
	forgotPasswordPath = "/auth/forgot-password"
	resetPasswordPath  = "/auth/reset-password"
	rolesPath          = "/platform-rbac/roles"
	userRolesPathFmt   = "/platform-rbac/users/%s/roles"
)

// Config configures the gateway.
type Config struct {
	// BaseURL is the root of the platform backend API.
	BaseURL string `toml:"baseUrl"`
	// Timeout bounds every request including the refresh path. Zero
	// selects the default.
	Timeout time.Duration `toml:"timeout"`
}

// Client is the gateway to the platform backend. All console traffic,
// including the out-of-scope CRUD pages, flows through it.
type Client struct {
	base    *url.URL
	http    *http.Client
	session *session.Store
	timeout time.Duration

	// refresh coalesces concurrent token refreshes into one call.
	refresh singleflight.Group
}

// Option adjusts a Client beyond its Config.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The cookie jar of
// the replacement is preserved; tests use this to inject transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithCookieJar installs a jar for the refresh-credential cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// New creates a gateway bound to a session store.
func New(cfg Config, store *session.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("session store is nil")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid platform base URL")
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("platform base URL %q must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		base:    base,
		http:    &http.Client{},
		session: store,
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

type callOpts struct {
	// isLogin marks the login call: a 401 means bad credentials there
	// and must never trigger a refresh.
	isLogin bool
	// skipAuth omits the bearer header (refresh, public endpoints).
	skipAuth bool
}

// do performs one logical API call: send, and on a non-login 401 perform
// a single refresh-and-retry. The retried request is sent at most once
// and its 401, if any, is propagated without another refresh.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts callOpts) error {
	payload, err := encodeBody(body)
	if err != nil {
		return errors.Wrap(err, "encode request body")
	}

	status, respBody, err := c.send(ctx, method, path, payload, opts)
	if err != nil {
		return err
	}

	if status != http.StatusUnauthorized || opts.isLogin {
		return decodeResponse(status, respBody, out)
	}

	// Keep the original 401 so the caller sees a meaningful error even
	// when the refresh itself fails.
	originalErr := httpError(status, serverMessage(respBody))

	if _, err := c.refreshAccessToken(ctx); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("token refresh failed, ending session")
		c.session.Logout()

		return originalErr
	}

	status, respBody, err = c.send(ctx, method, path, payload, opts)
	if err != nil {
		return err
	}

	return decodeResponse(status, respBody, out)
}

// refreshAccessToken obtains a new access token using the refresh cookie
// and stores it. Concurrent callers share a single refresh call; the
// server rotates the refresh credential on every use, so only one call
// may be made per rotation.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	token, err, shared := c.refresh.Do("refresh", func() (any, error) {
		refreshAttempts.Inc()

		status, body, sendErr := c.send(ctx, http.MethodPost, refreshPath, nil, callOpts{skipAuth: true})
		if sendErr != nil {
			refreshFailures.Inc()
			return "", sendErr
		}

		var out struct {
			AccessToken string `json:"accessToken"`
		}

		if decodeErr := decodeResponse(status, body, &out); decodeErr != nil {
			refreshFailures.Inc()
			return "", decodeErr
		}

		if out.AccessToken == "" {
			refreshFailures.Inc()
			return "", errors.New("refresh response carried no access token")
		}

		c.session.SetToken(out.AccessToken)
		log.Debug().Msg("access token refreshed")

		return out.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		log.Debug().Msg("joined in-flight token refresh")
	}

	return token.(string), nil
}

// send performs a single HTTP exchange with timeout and bearer header.
// The token is read from the store at send time, so a retried request
// automatically carries the refreshed token.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, opts callOpts) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !opts.skipAuth {
		if token := c.session.Token(); token != "" {
			req.Header.Set(headerAuthorization, "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := transportError(err)
		requestsTotal.WithLabelValues(method, string(apiErr.Kind)).Inc()

		return 0, nil, apiErr
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transportError(err)
	}

	requestsTotal.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	return resp.StatusCode, respBody, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	return json.Marshal(body)
}

func decodeResponse(status int, body []byte, out any) error {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return httpError(status, serverMessage(body))
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response body")
	}

	return nil
}

// serverMessage extracts the backend's {"message": ...} when present.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return strings.TrimSpace(payload.Message)
}

func statusClass(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
