package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatsEndpoint(t *testing.T) {
	stats := NewStats()
	stats.ActiveSessions.Increment()
	stats.TotalSessions.Increment()
	stats.TotalSessions.Increment()
	stats.RoundsPlayed.Increment()

	srv := httptest.NewServer(NewAPIServer("", stats).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["active_sessions"] != 1 || got["total_sessions"] != 2 || got["rounds_played"] != 1 {
		t.Fatalf("stats = %+v, want active 1, total 2, rounds 1", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewAPIServer("", NewStats()).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
