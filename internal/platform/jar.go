package platform

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CookieStore persists cookie data across process restarts.
type CookieStore interface {
	Save(blob []byte) error
	Load() ([]byte, error)
}

// persistentJar wraps a cookiejar.Jar and mirrors the backend's cookies
// (the refresh credential among them) to a CookieStore, the way a
// browser persists its cookie storage. Cookie values stay opaque to the
// rest of the console and are never part of the session blob.
type persistentJar struct {
	mu    sync.Mutex
	inner http.CookieJar
	store CookieStore
	base  *url.URL
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewPersistentJar creates a cookie jar whose contents for the backend
// host survive restarts via the given store.
func NewPersistentJar(baseURL string, store CookieStore) (http.CookieJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid platform base URL")
	}

	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	jar := &persistentJar{inner: inner, store: store, base: base}

	if err := jar.restore(); err != nil {
		log.Warn().Err(err).Msg("failed to restore persisted cookies, starting with an empty jar")
	}

	return jar, nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	if u.Host == j.base.Host {
		j.snapshot()
	}
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.inner.Cookies(u)
}

// snapshot persists the cookies the jar would send to the backend.
// Replay only needs name/value pairs; scoping attributes stay with the
// server-set originals for the lifetime of this process.
func (j *persistentJar) snapshot() {
	seen := make(map[string]struct{})

	var stored []storedCookie

	for _, path := range []string{"/", refreshPath} {
		target := *j.base
		target.Path = path

		for _, cookie := range j.inner.Cookies(&target) {
			if _, dup := seen[cookie.Name]; dup {
				continue
			}

			seen[cookie.Name] = struct{}{}
			stored = append(stored, storedCookie{Name: cookie.Name, Value: cookie.Value})
		}
	}

	blob, err := json.Marshal(stored)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode cookies")
		return
	}

	if err := j.store.Save(blob); err != nil {
		log.Error().Err(err).Msg("failed to persist cookies")
	}
}

func (j *persistentJar) restore() error {
	blob, err := j.store.Load()
	if err != nil {
		return err
	}

	if len(blob) == 0 {
		return nil
	}

	var stored []storedCookie
	if err := json.Unmarshal(blob, &stored); err != nil {
		return errors.Wrap(err, "decode persisted cookies")
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, cookie := range stored {
		cookies = append(cookies, &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: "/"})
	}

	j.inner.SetCookies(j.base, cookies)

	return nil
}
