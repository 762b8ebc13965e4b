package checks

import (
	"context"
	"time"

	"github.com/charlesng35/huddle/internal/monitoring"
)

// Pinger is satisfied by cache backends that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Redis probes the Redis cache. When Redis was requested but could not be
// reached at startup (client is nil), the service runs on the database cache
// and reports degraded.
func Redis(client Pinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		switch {
		case !enabled:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		case client == nil:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable; using database cache"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
		defer cancel()
		return monitoring.ResultFromError(client.Ping(probeCtx), time.Since(start))
	})
}
