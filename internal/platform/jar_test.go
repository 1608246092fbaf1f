package platform

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCookieStore struct {
	blob []byte
}

func (s *memoryCookieStore) Save(blob []byte) error {
	s.blob = append([]byte(nil), blob...)
	return nil
}

func (s *memoryCookieStore) Load() ([]byte, error) {
	return s.blob, nil
}

func TestPersistentJar_SurvivesRestart(t *testing.T) {
	store := &memoryCookieStore{}
	base := "https://platform.example.com"

	jar, err := NewPersistentJar(base, store)
	require.NoError(t, err)

	u, err := url.Parse(base + refreshPath)
	require.NoError(t, err)

	jar.SetCookies(u, []*http.Cookie{{
		Name:     "tl_refresh",
		Value:    "refresh-1",
		Path:     "/",
		HttpOnly: true,
	}})

	require.NotEmpty(t, store.blob)

	// A fresh jar over the same store sees the cookie again, so the
	// refresh credential outlives a process restart.
	reborn, err := NewPersistentJar(base, store)
	require.NoError(t, err)

	cookies := reborn.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "tl_refresh", cookies[0].Name)
	assert.Equal(t, "refresh-1", cookies[0].Value)
}

func TestPersistentJar_IgnoresOtherHosts(t *testing.T) {
	store := &memoryCookieStore{}

	jar, err := NewPersistentJar("https://platform.example.com", store)
	require.NoError(t, err)

	other, err := url.Parse("https://elsewhere.example.com/")
	require.NoError(t, err)

	jar.SetCookies(other, []*http.Cookie{{Name: "tracker", Value: "x", Path: "/"}})

	assert.Empty(t, store.blob)
}

func TestPersistentJar_EmptyStoreStartsClean(t *testing.T) {
	jar, err := NewPersistentJar("https://platform.example.com", &memoryCookieStore{})
	require.NoError(t, err)

	u, err := url.Parse("https://platform.example.com/")
	require.NoError(t, err)

	assert.Empty(t, jar.Cookies(u))
}
