// Package checks holds the readiness checks for the service's backing stores.
package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/monitoring"
)

const defaultTimeout = 2 * time.Second

// Database pings the pool and, when it answers, reports how busy the pool is.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		start := time.Now()
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError(err, time.Since(start))
		}

		err = withTimeout(ctx, timeout, sqlDB.PingContext)
		result := monitoring.ResultFromError(err, time.Since(start))
		if err == nil {
			stats := sqlDB.Stats()
			result.Details = fmt.Sprintf("open=%d in_use=%d idle=%d", stats.OpenConnections, stats.InUse, stats.Idle)
		}
		return result
	})
}

func withTimeout(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return ping(ctx)
}
