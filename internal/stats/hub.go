// Package stats implements optional, protocol-inert server-side
// counters: active session count, commands dispatched, bytes
// transferred, and transfers in flight. A session never blocks on a Hub
// update; every mutation is a best-effort, lock-guarded increment.
package stats

import (
	"runtime"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the hub's counters, safe to
// marshal or print without holding the hub's lock.
type Snapshot struct {
	StartTime        time.Time     `json:"startTime"`
	Uptime           time.Duration `json:"uptime"`
	ActiveSessions   int64         `json:"activeSessions"`
	TotalSessions    int64         `json:"totalSessions"`
	CommandsServed   int64         `json:"commandsServed"`
	BytesReceived    int64         `json:"bytesReceived"`
	BytesSent        int64         `json:"bytesSent"`
	TransfersActive  int64         `json:"transfersActive"`
	NumGoroutine     int           `json:"numGoroutine"`
	MemoryAllocBytes uint64        `json:"memoryAllocBytes"`
}

// Hub accumulates per-server counters behind a sync.RWMutex. It is
// never consulted for protocol correctness, so a failure to update it
// is never surfaced to the session.
type Hub struct {
	mu sync.RWMutex

	startTime       time.Time
	activeSessions  int64
	totalSessions   int64
	commandsServed  int64
	bytesReceived   int64
	bytesSent       int64
	transfersActive int64
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{startTime: time.Now()}
}

// SessionOpened records a newly accepted connection.
func (h *Hub) SessionOpened() {
	h.mu.Lock()
	h.activeSessions++
	h.totalSessions++
	h.mu.Unlock()
}

// SessionClosed records a connection finishing.
func (h *Hub) SessionClosed() {
	h.mu.Lock()
	h.activeSessions--
	h.mu.Unlock()
}

// CommandDispatched records one command having been routed to a handler.
func (h *Hub) CommandDispatched() {
	h.mu.Lock()
	h.commandsServed++
	h.mu.Unlock()
}

// BytesTransferred records wire traffic in either direction.
func (h *Hub) BytesTransferred(received, sent int64) {
	h.mu.Lock()
	h.bytesReceived += received
	h.bytesSent += sent
	h.mu.Unlock()
}

// TransferStarted/TransferFinished bracket a file upload or download
// (ReceivingSingle/Multi, or a GETFILE/getmem binary reply).
func (h *Hub) TransferStarted() {
	h.mu.Lock()
	h.transfersActive++
	h.mu.Unlock()
}

func (h *Hub) TransferFinished() {
	h.mu.Lock()
	h.transfersActive--
	h.mu.Unlock()
}

// Snapshot returns a copy of the hub's current counters.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		StartTime:        h.startTime,
		Uptime:           time.Since(h.startTime),
		ActiveSessions:   h.activeSessions,
		TotalSessions:    h.totalSessions,
		CommandsServed:   h.commandsServed,
		BytesReceived:    h.bytesReceived,
		BytesSent:        h.bytesSent,
		TransfersActive:  h.transfersActive,
		NumGoroutine:     runtime.NumGoroutine(),
		MemoryAllocBytes: mem.Alloc,
	}
}
