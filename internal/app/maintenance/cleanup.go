// Package maintenance runs the periodic retention jobs: pruning old audit rows and purging
// closed rate-limit windows from the database.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/cache"
	"github.com/charlesng35/scribekeys/internal/services"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

// Job names, also used as metric labels.
const (
	JobAuditRetention = "audit_retention"
	JobRateCounters   = "rate_counters"
)

// Schedule configures the jobs. Zero values fall back to the defaults.
type Schedule struct {
	AuditRetentionDays int
	AuditSpec          string
	CounterSpec        string
}

// DefaultSchedule keeps 90 days of audit history and purges counters hourly.
var DefaultSchedule = Schedule{AuditRetentionDays: 90, AuditSpec: "@daily", CounterSpec: "@hourly"}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (int64, error)
}

// Cleaner owns the cron scheduler for the retention jobs.
type Cleaner struct {
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
	jobs []job
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects the scheduler.
func WithCron(c *cron.Cron) Option {
	return func(cl *Cleaner) {
		if c != nil {
			cl.cron = c
		}
	}
}

// WithNow overrides the clock that decides which counter windows are closed.
func WithNow(now func() time.Time) Option {
	return func(cl *Cleaner) {
		if now != nil {
			cl.now = now
		}
	}
}

// NewCleaner registers a job for each dependency that is present: audit retention needs
// audit, counter purging needs db.
func NewCleaner(db *gorm.DB, audit *services.AuditService, schedule Schedule, opts ...Option) *Cleaner {
	cl := &Cleaner{now: time.Now, log: logger.WithModule("maintenance")}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.cron == nil {
		cl.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	schedule = schedule.withDefaults()
	if audit != nil {
		days := schedule.AuditRetentionDays
		cl.jobs = append(cl.jobs, job{name: JobAuditRetention, spec: schedule.AuditSpec, run: func(ctx context.Context) (int64, error) {
			return audit.CleanupOlderThan(ctx, days)
		}})
	}
	if db != nil {
		cl.jobs = append(cl.jobs, job{name: JobRateCounters, spec: schedule.CounterSpec, run: func(ctx context.Context) (int64, error) {
			return cache.PurgeExpired(ctx, db, cl.now())
		}})
	}
	return cl
}

func (s Schedule) withDefaults() Schedule {
	if s.AuditRetentionDays <= 0 {
		s.AuditRetentionDays = DefaultSchedule.AuditRetentionDays
	}
	if s.AuditSpec == "" {
		s.AuditSpec = DefaultSchedule.AuditSpec
	}
	if s.CounterSpec == "" {
		s.CounterSpec = DefaultSchedule.CounterSpec
	}
	return s
}

// Jobs lists the registered job names.
func (c *Cleaner) Jobs() []string {
	names := make([]string, 0, len(c.jobs))
	for _, j := range c.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start schedules every job. An invalid cron spec is returned before anything runs.
func (c *Cleaner) Start() error {
	if len(c.jobs) == 0 {
		return nil
	}
	for _, j := range c.jobs {
		if _, err := c.cron.AddFunc(j.spec, func() { _ = c.execute(context.Background(), j) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce runs every job now and returns all failures combined.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error
	for _, j := range c.jobs {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	removed, err := j.run(ctx)
	if err != nil {
		metrics.MaintenanceRuns.WithLabelValues(j.name, "failure").Inc()
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	metrics.MaintenanceRuns.WithLabelValues(j.name, "success").Inc()
	metrics.MaintenanceRemoved.WithLabelValues(j.name).Add(float64(removed))
	c.log.Debug("maintenance job complete", zap.String("job", j.name), zap.Int64("removed", removed))
	return nil
}
