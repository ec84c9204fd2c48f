package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type apiFunc func(w http.ResponseWriter, r *http.Request) error

func makeHTTPHandleFunc(f apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			JSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
	}
}

func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// APIServer exposes the host's live counters over HTTP. It is read-only
// observability; game traffic never touches it.
type APIServer struct {
	listenAddr string
	stats      *Stats
}

func NewAPIServer(addr string, stats *Stats) *APIServer {
	return &APIServer{
		listenAddr: addr,
		stats:      stats,
	}
}

func (a *APIServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stats", makeHTTPHandleFunc(a.handleStats)).Methods(http.MethodGet)
	r.HandleFunc("/health", makeHTTPHandleFunc(a.handleHealth)).Methods(http.MethodGet)
	return r
}

func (a *APIServer) Run() error {
	return http.ListenAndServe(a.listenAddr, a.routes())
}

func (a *APIServer) handleStats(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, map[string]any{
		"active_sessions": a.stats.ActiveSessions.Get(),
		"total_sessions":  a.stats.TotalSessions.Get(),
		"rounds_played":   a.stats.RoundsPlayed.Get(),
	})
}

func (a *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
