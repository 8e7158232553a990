// Copyright 2024-2026 Aiku AI

package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRegistry struct {
	reg *Registry
}

func (s staticRegistry) Registry() *Registry { return s.reg }

func TestHandleLinks(t *testing.T) {
	t.Parallel()
	mux := NewAdminMux(staticRegistry{newTestRegistry(t, "200", "100")}, zerolog.Nop())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/links", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "tok-")
	assert.NotContains(t, rec.Body.String(), "wh-")

	var links []LinkInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	assert.Equal(t, []LinkInfo{
		{Name: "alpha", GuildID: "100", ChannelID: "110"},
		{Name: "beta", GuildID: "200", ChannelID: "210"},
	}, links)
}

func TestHandleLinksNotReady(t *testing.T) {
	t.Parallel()
	mux := NewAdminMux(staticRegistry{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/links", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminMethodNotAllowed(t *testing.T) {
	t.Parallel()
	mux := NewAdminMux(staticRegistry{newTestRegistry(t, "100")}, zerolog.Nop())

	for _, path := range []string{"/api/links", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestAdminMetrics(t *testing.T) {
	t.Parallel()
	deliveriesTotal.WithLabelValues(resultOK).Add(0)
	mux := NewAdminMux(staticRegistry{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guild_relay_deliveries_total")
}

func TestNewAdminServerTimeouts(t *testing.T) {
	t.Parallel()
	srv := NewAdminServer(":0", staticRegistry{}, zerolog.Nop())
	assert.Equal(t, ":0", srv.Addr)
	assert.NotZero(t, srv.ReadTimeout)
	assert.NotZero(t, srv.WriteTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}
