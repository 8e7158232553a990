// Copyright 2024-2026 Aiku AI

package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RegistrySource provides the active registry, or nil before ready.
type RegistrySource interface {
	Registry() *Registry
}

// LinkInfo is the public view of a link. Webhook credentials are never
// exposed.
type LinkInfo struct {
	Name      string `json:"name"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
}

// NewAdminServer returns the admin HTTP server serving /api/links and
// /metrics.
func NewAdminServer(addr string, src RegistrySource, log zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewAdminMux(src, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func NewAdminMux(src RegistrySource, log zerolog.Logger) *http.ServeMux {
	metrics := promhttp.Handler()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/links", func(w http.ResponseWriter, r *http.Request) {
		HandleLinks(w, r, src, log)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		metrics.ServeHTTP(w, r)
	})
	return mux
}

// HandleLinks is an HTTP handler for GET /api/links.
func HandleLinks(w http.ResponseWriter, r *http.Request, src RegistrySource, log zerolog.Logger) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reg := src.Registry()
	if reg == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	links := reg.Links()
	resp := make([]LinkInfo, 0, len(links))
	for _, link := range links {
		resp = append(resp, LinkInfo{Name: link.Name, GuildID: link.GuildID, ChannelID: link.ChannelID})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("Failed to write links response")
	}
}
