// Package api provides the peer's optional read-only HTTP status
// surface: a health probe, a JSON snapshot of ring state, and the
// Prometheus scrape endpoint. It never accepts a mutating request — the
// only way to drive the peer is the command surface documented in
// internal/command.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotSource supplies the current ring state for the /status
// endpoint. The cli package satisfies it with a small adapter around
// *peer.Engine's own Snapshot; the interface exists so this
// package doesn't need to import peer just to read a struct.
type SnapshotSource interface {
	Snapshot() StatusSnapshot
}

// StatusSnapshot is the subset of peer state exposed over HTTP.
type StatusSnapshot struct {
	Self      int    `json:"self"`
	S1        int    `json:"s1"`
	S2        int    `json:"s2"`
	P1        int    `json:"p1"`
	P2        int    `json:"p2"`
	LastDead  int    `json:"last_dead"`
	Seq       uint16 `json:"seq"`
	Ack1      uint16 `json:"ack1"`
	Ack2      uint16 `json:"ack2"`
	ShowPings bool   `json:"show_pings"`
}

// Server is the peer's status HTTP server.
type Server struct {
	source SnapshotSource
}

// NewServer creates a status server reading snapshots from source.
func NewServer(source SnapshotSource) *Server {
	return &Server{source: source}
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
