package checks

import (
	"context"
	"time"

	"github.com/charlesng35/scribekeys/internal/monitoring"
)

// RedisPinger is satisfied by *cache.RedisCounter.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Redis checks the shared rate-limit counter. Redis switched off reports up. Redis
// switched on but never connected reports degraded, since counters then fall back
// to the database.
func Redis(client RedisPinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		if !enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		}
		if client == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable, counting in the database"}
		}
		start := time.Now()
		return monitoring.ResultFromError(withTimeout(ctx, timeout, client.Ping), time.Since(start))
	})
}
