package stats

import (
	"context"
	"time"

	"github.com/GoobyCorp/xbdm-go/internal/logging"
)

// StdoutReporter periodically logs a Hub's snapshot.
type StdoutReporter struct {
	hub    *Hub
	logger logging.Logger
}

// NewStdoutReporter builds a reporter for hub using logger (or the
// package default if nil).
func NewStdoutReporter(hub *Hub, logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{hub: hub, logger: logger}
}

// Run logs a snapshot every interval until ctx is canceled.
func (r StdoutReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logOnce()
		}
	}
}

func (r StdoutReporter) logOnce() {
	snap := r.hub.Snapshot()
	r.logger.Info("server stats",
		logging.Field{Key: "subsystem", Value: "stats"},
		logging.Field{Key: "active_sessions", Value: snap.ActiveSessions},
		logging.Field{Key: "total_sessions", Value: snap.TotalSessions},
		logging.Field{Key: "commands_served", Value: snap.CommandsServed},
		logging.Field{Key: "bytes_received", Value: snap.BytesReceived},
		logging.Field{Key: "bytes_sent", Value: snap.BytesSent},
		logging.Field{Key: "transfers_active", Value: snap.TransfersActive},
	)
}
