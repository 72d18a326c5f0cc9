package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/GoobyCorp/xbdm-go/internal/logging"
)

// WebServer exposes a Hub's Snapshot over a single JSON endpoint.
// There is no UI to serve, just the raw counters.
type WebServer struct {
	srv *http.Server
	hub *Hub
	log logging.Logger
}

// NewWebServer builds an HTTP server serving hub's snapshot at /stats.
func NewWebServer(addr string, hub *Hub, logger logging.Logger) *WebServer {
	if logger == nil {
		logger = logging.Default()
	}
	ws := &WebServer{
		hub: hub,
		log: logger.With(logging.Field{Key: "subsystem", Value: "stats"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", ws.handleStats)
	ws.srv = &http.Server{Addr: addr, Handler: mux}
	return ws
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ws.hub.Snapshot())
}

// Start begins listening and shuts down when ctx is canceled.
func (ws *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := ws.srv.Shutdown(shutdownCtx); err != nil {
			ws.log.Warn("stats server shutdown", logging.Field{Key: "error", Value: err})
		}
	}()

	if err := ws.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Error("stats server error", logging.Field{Key: "error", Value: err})
	}
}
