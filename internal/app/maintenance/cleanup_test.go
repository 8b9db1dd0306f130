package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/scribekeys/internal/database/testutil"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/internal/services"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

func TestNewCleanerRegistersJobsForPresentDependencies(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.Equal(t, []string{JobAuditRetention, JobRateCounters}, NewCleaner(db, auditSvc, Schedule{}).Jobs())
	require.Equal(t, []string{JobRateCounters}, NewCleaner(db, nil, Schedule{}).Jobs())
	require.Empty(t, NewCleaner(nil, nil, Schedule{}).Jobs())
	require.NoError(t, NewCleaner(nil, nil, Schedule{}).Start())
}

func TestCleanerRunOnce(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	for _, action := range []string{"key_binding.delete", "key_binding.create"} {
		require.NoError(t, auditSvc.Log(ctx, services.AuditEntry{
			Action:     action,
			Result:     models.AuditResultSuccess,
			ActorEmail: "nurse@example.com",
		}))
	}
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", "key_binding.delete").
		Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	require.NoError(t, db.Create(&models.RateCounter{Key: "sync|closed", Hits: 7, ExpiresAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.RateCounter{Key: "sync|open", Hits: 1, ExpiresAt: now.Add(time.Minute)}).Error)

	removed := metrics.MaintenanceRemoved.WithLabelValues(JobRateCounters)
	before := testutil.ToFloat64(removed)

	c := NewCleaner(db, auditSvc, Schedule{AuditRetentionDays: 7},
		WithNow(func() time.Time { return now }),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, c.RunOnce(ctx))

	var actions []string
	require.NoError(t, db.Model(&models.AuditLog{}).Pluck("action", &actions).Error)
	require.Equal(t, []string{"key_binding.create"}, actions)

	var keys []string
	require.NoError(t, db.Model(&models.RateCounter{}).Pluck("counter_key", &keys).Error)
	require.Equal(t, []string{"sync|open"}, keys)
	require.Equal(t, before+1, testutil.ToFloat64(removed))
}

func TestCleanerRunOnceCollectsFailures(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	c := NewCleaner(db, auditSvc, Schedule{})
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = c.RunOnce(context.Background())
	require.ErrorContains(t, err, JobAuditRetention)
	require.ErrorContains(t, err, JobRateCounters)
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())

	c := NewCleaner(db, nil, Schedule{CounterSpec: "not a schedule"})
	require.ErrorContains(t, c.Start(), JobRateCounters)
}

func TestCleanerStartStop(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	c := NewCleaner(db, nil, DefaultSchedule)
	require.NoError(t, c.Start())
	<-c.Stop().Done()
}
