package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/monitoring"
	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// Pinger reports datastore reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns a simple status payload useful for liveness checks. When db is
// non-nil the datastore is pinged and a failure yields 503.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				response.Error(c, apperrors.New("UNAVAILABLE", "Database unavailable", http.StatusServiceUnavailable))
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

// Readiness reports every dependency probe; any probe that is not up yields 503.
func Readiness(readiness *monitoring.Readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := readiness.Evaluate(requestContext(c))
		status := http.StatusOK
		if !report.Ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response.Response{Success: report.Ready, Data: report})
	}
}
