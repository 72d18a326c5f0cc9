package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHubSessionLifecycle(t *testing.T) {
	h := NewHub()
	h.SessionOpened()
	h.SessionOpened()
	h.SessionClosed()

	snap := h.Snapshot()
	if snap.ActiveSessions != 1 {
		t.Fatalf("ActiveSessions = %d, want 1", snap.ActiveSessions)
	}
	if snap.TotalSessions != 2 {
		t.Fatalf("TotalSessions = %d, want 2", snap.TotalSessions)
	}
}

func TestHubBytesAndCommands(t *testing.T) {
	h := NewHub()
	h.CommandDispatched()
	h.CommandDispatched()
	h.BytesTransferred(100, 50)

	snap := h.Snapshot()
	if snap.CommandsServed != 2 {
		t.Fatalf("CommandsServed = %d, want 2", snap.CommandsServed)
	}
	if snap.BytesReceived != 100 || snap.BytesSent != 50 {
		t.Fatalf("bytes = %d/%d, want 100/50", snap.BytesReceived, snap.BytesSent)
	}
}

func TestWebServerHandleStats(t *testing.T) {
	h := NewHub()
	h.SessionOpened()
	ws := NewWebServer(":0", h, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	ws.handleStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var snap Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.ActiveSessions != 1 {
		t.Fatalf("ActiveSessions = %d, want 1", snap.ActiveSessions)
	}
}

func TestWebServerHandleStatsMethodNotAllowed(t *testing.T) {
	ws := NewWebServer(":0", NewHub(), nil)
	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rr := httptest.NewRecorder()
	ws.handleStats(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}
