package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSource struct {
	snap StatusSnapshot
}

func (f fakeSource) Snapshot() StatusSnapshot { return f.snap }

func TestHandleHealthz(t *testing.T) {
	s := NewServer(fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := NewServer(fakeSource{snap: StatusSnapshot{Self: 3, S1: 5, S2: 1, P1: -1, P2: -1}})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestHandleMetrics(t *testing.T) {
	s := NewServer(fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
