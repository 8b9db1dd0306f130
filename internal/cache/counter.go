// Package cache holds the fixed-window counters behind request rate limits.
package cache

import (
	"context"
	"errors"
	"time"
)

// Window is the state of a fixed window right after a hit.
type Window struct {
	Hits    int64
	ResetIn time.Duration
}

// Counter counts hits per key in fixed windows. The first hit opens a window; later hits
// inside it never extend it.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (Window, error)
}

const defaultWindow = time.Minute

var errNilCounter = errors.New("cache: counter not initialised")

func windowOrDefault(window time.Duration) time.Duration {
	if window <= 0 {
		return defaultWindow
	}
	return window
}
