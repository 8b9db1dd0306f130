package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/handlers"
	"github.com/charlesng35/scribekeys/internal/monitoring"
	"github.com/charlesng35/scribekeys/internal/monitoring/checks"
)

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, probes []monitoring.Check) {
	var pinger handlers.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}

	readiness := monitoring.NewReadiness(checks.Database(db, 0))
	for _, probe := range probes {
		readiness.Register(probe)
	}

	r.GET("/health", handlers.Health(pinger))
	r.GET("/health/ready", handlers.Readiness(readiness))
	r.GET("/api/health", handlers.Health(pinger))
}
