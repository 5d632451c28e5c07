/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/janken/locale"
	"github.com/Seednode/janken/tournament"
)

func newTestConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		port:           8080,
		countdownSteps: 1,
		countdownTick:  time.Millisecond,
		revealDelay:    time.Millisecond,
		resultDelay:    time.Millisecond,
		rateLimit:      100,
		rateBurst:      100,
		metrics:        true,
	}
}

func newTestServer(t *testing.T, cfg *Config, newSource func() tournament.RandomSource) (*httptest.Server, *GameManager) {
	t.Helper()

	catalog, err := locale.Load()
	require.NoError(t, err)

	metrics := newMetrics()
	gm := newGameManager(cfg, catalog, metrics, newSource)
	errs := make(chan error, 64)

	srv := httptest.NewServer(newRouter(cfg, gm, metrics, errs))
	t.Cleanup(func() {
		gm.Close()
		srv.Close()
	})

	return srv, gm
}

// noRedirect returns a client that reports redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestStaticRoutes(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig(), nil)

	tests := []struct {
		name        string
		path        string
		contentType string
		contains    string
	}{
		{"healthz", "/healthz", "text/plain", "Ok"},
		{"version", "/version", "text/plain", "janken v" + releaseVersion},
		{"robots", "/robots.txt", "text/plain", "GPTBot"},
		{"favicon", "/favicon.svg", "image/svg+xml", "<svg"},
		{"manifest", "/favicons/site.webmanifest", "application/manifest+json", "janken"},
		{"script", "/assets/janken/app.js", "text/javascript", "start_tournament"},
		{"stylesheet", "/assets/janken/app.css", "text/css", ".participants"},
		{"metrics", "/metrics", "text/plain", "janken_sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.Client(), srv.URL+tt.path)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			assert.Contains(t, body, tt.contains)
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		})
	}
}

func TestMissingAsset(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig(), nil)

	resp, _ := get(t, srv.Client(), srv.URL+"/assets/janken/nope.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := newTestConfig()
	cfg.metrics = false
	srv, _ := newTestServer(t, cfg, nil)

	resp, _ := get(t, srv.Client(), srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHomeRedirectsToNewGame(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig(), nil)
	client := noRedirect()

	resp, _ := get(t, client, srv.URL+"/")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, gamePath, resp.Header.Get("Location"))

	resp, _ = get(t, client, srv.URL+gamePath)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Regexp(t, regexp.MustCompile(`^/janken/[a-z]+-[a-z]+-[a-z]+$`), resp.Header.Get("Location"))
}

func TestPrefix(t *testing.T) {
	cfg := newTestConfig()
	cfg.prefix = "/games"
	srv, _ := newTestServer(t, cfg, nil)

	resp, _ := get(t, noRedirect(), srv.URL+"/games/janken")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/games/janken/"))

	resp, _ = get(t, srv.Client(), srv.URL+"/games/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGamePage(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig(), nil)

	resp, body := get(t, srv.Client(), srv.URL+"/janken/brave-little-fox")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "app.js")

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			found = true
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found, "player cookie not set")

	resp, _ = get(t, srv.Client(), srv.URL+"/janken/bad.id")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQRCode(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig(), nil)

	resp, body := get(t, srv.Client(), srv.URL+"/janken/brave-little-fox/qr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", realIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:1234", realIP(r))

	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:1234", realIP(r))
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}

func TestProfileRoutes(t *testing.T) {
	cfg := newTestConfig()
	cfg.profile = true
	srv, _ := newTestServer(t, cfg, nil)

	resp, _ := get(t, srv.Client(), srv.URL+"/pprof/cmdline")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cfg = newTestConfig()
	srv, _ = newTestServer(t, cfg, nil)

	resp, _ = get(t, srv.Client(), srv.URL+"/pprof/cmdline")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
