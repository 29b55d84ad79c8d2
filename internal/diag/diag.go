// Package diag periodically logs human-readable broker stats: client and
// route counts, and how long the node has been running, using
// dustin/go-humanize so an operator tailing logs gets "3 minutes ago"
// phrasing rather than raw durations.
package diag

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is the snapshot a caller reports on each tick.
type Stats struct {
	LocalClients  int
	RemoteClients int
	Routes        int
	Pending       int
}

// StatsFunc produces a fresh snapshot when asked.
type StatsFunc func() Stats

// Run logs a Stats snapshot every interval until ctx is done. Intended to
// be started in its own goroutine from internal/app's Run.
func Run(ctx context.Context, logger *slog.Logger, interval time.Duration, startedAt time.Time, snapshot StatsFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := snapshot()
			logger.Info("broker stats",
				"uptime", humanize.Time(startedAt),
				"local_clients", s.LocalClients,
				"remote_clients", s.RemoteClients,
				"routes", s.Routes,
				"pending", humanize.Comma(int64(s.Pending)),
			)
		}
	}
}
