// Package metrics periodically logs lobby occupancy. Grounded directly on
// rustyguts-bken/server/metrics.go's RunMetrics: same ticker-until-ctx-done
// shape, same "skip the line when there's nothing to report" guard.
package metrics

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"
)

// StatsFunc returns the current lobby occupancy snapshot.
type StatsFunc func() (loggedIn, liveMatches, pendingMatches int)

// Run logs lobby stats every interval until ctx is canceled. interval is
// used as given and must be positive; cmd/server passes its
// -metrics-interval flag, which defaults to 30s.
func Run(ctx context.Context, interval time.Duration, stats StatsFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loggedIn, live, pending := stats()
			if loggedIn == 0 && live == 0 && pending == 0 {
				continue
			}
			log.Printf("[metrics] clients=%d live_matches=%d pending_matches=%d running_since=%s",
				loggedIn, live, pending, humanize.Time(start))
		}
	}
}
