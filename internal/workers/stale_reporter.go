package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/floorscreen/internal/metrics"
)

// StaleCounter counts in-progress sessions not updated since olderThan.
type StaleCounter interface {
	CountStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// StaleSessionReporter periodically reports abandoned interviews. It only
// counts; sessions are never expired or modified.
type StaleSessionReporter struct {
	Sessions StaleCounter
	After    time.Duration
	Schedule string
	Logger   *logrus.Logger

	now  func() time.Time
	cron *cron.Cron
}

func NewStaleSessionReporter(s StaleCounter, after time.Duration, schedule string, log *logrus.Logger) *StaleSessionReporter {
	if log == nil {
		log = logrus.New()
	}
	if after <= 0 {
		after = 24 * time.Hour
	}
	if schedule == "" {
		schedule = "@every 15m"
	}
	return &StaleSessionReporter{
		Sessions: s,
		After:    after,
		Schedule: schedule,
		Logger:   log,
		now:      time.Now,
		cron:     cron.New(),
	}
}

func (r *StaleSessionReporter) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.Logger.WithError(err).Warn("stale session report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule stale session report %q: %w", r.Schedule, err)
	}
	r.cron.Start()
	r.Logger.WithField("schedule", r.Schedule).Info("stale session reporter started")
	return nil
}

// Stop waits for a running report to finish.
func (r *StaleSessionReporter) Stop() {
	<-r.cron.Stop().Done()
}

func (r *StaleSessionReporter) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.After)

	n, err := r.Sessions.CountStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.SetStaleSessions(n)

	entry := r.Logger.WithFields(logrus.Fields{"stale_sessions": n, "older_than": cutoff.Format(time.RFC3339)})
	if n > 0 {
		entry.Warn("in-progress interviews without activity")
	} else {
		entry.Debug("no stale interviews")
	}
	return n, nil
}
