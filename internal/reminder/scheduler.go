package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/queue"
)

// Store is the storage the scheduler needs.
type Store interface {
	ListCycleSettings(ctx context.Context) ([]database.CycleSettings, error)
	RecordNotification(ctx context.Context, n *database.Notification) error
	DeleteNotification(ctx context.Context, id int64) error
}

// RunStats summarizes one pass of the daily job.
type RunStats struct {
	Checked  int `json:"checked"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Scheduler sends a gentle reminder to every user whose cycle enters a new
// phase on the current day.
type Scheduler struct {
	store    Store
	catalog  *Catalog
	enqueuer queue.Enqueuer
	log      *slog.Logger
	loc      *time.Location

	cron *cron.Cron
}

// NewScheduler wires the daily job. loc decides which calendar day "today"
// is; nil means UTC.
func NewScheduler(store Store, c *Catalog, enq queue.Enqueuer, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:    store,
		catalog:  c,
		enqueuer: enq,
		log:      log,
		loc:      loc,
	}
}

// Start runs the job on the given cron spec (standard five fields) until
// Stop is called.
func (s *Scheduler) Start(spec string) error {
	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		stats, err := s.RunDaily(ctx, time.Now().In(s.loc))
		if err != nil {
			s.log.Error("daily reminder run failed", slog.Any("error", err))
			return
		}
		s.log.Info("daily reminder run complete",
			slog.Int("checked", stats.Checked),
			slog.Int("notified", stats.Notified),
			slog.Int("skipped", stats.Skipped),
			slog.Int("failed", stats.Failed),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	s.log.Info("reminder scheduler started",
		slog.String("schedule", spec),
		slog.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("reminder job still running at shutdown")
	}
}

// RunDaily checks every stored cycle against the calendar date of now.
//
// Users whose current day is the first day of a phase get that phase's
// gentle reminder. A reminder already recorded for the same day is not sent
// again, so running the job twice is harmless. A reminder that could not be
// handed to the queue is dropped and retried by the next run that day.
func (s *Scheduler) RunDaily(ctx context.Context, now time.Time) (RunStats, error) {
	var stats RunStats

	all, err := s.store.ListCycleSettings(ctx)
	if err != nil {
		return stats, fmt.Errorf("list cycle settings: %w", err)
	}

	today := cycle.FormatDate(now)

	for _, row := range all {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		log := s.log.With(slog.String("user_id", row.UserID))

		settings, err := row.Engine()
		if err != nil {
			log.Warn("stored cycle settings unusable", slog.Any("error", err))
			stats.Skipped++
			continue
		}

		c, err := cycle.Compute(settings, now)
		if err != nil {
			log.Warn("stored cycle settings invalid", slog.Any("error", err))
			stats.Skipped++
			continue
		}
		stats.Checked++

		if c.TodayOffset != c.Phase.Start {
			continue
		}

		message, err := s.catalog.PhaseReminder(StyleGentle, c.Phase.Kind)
		if err != nil {
			return stats, err
		}

		n := &database.Notification{
			UserID:  row.UserID,
			Kind:    database.NotificationKindPhaseStart,
			Phase:   string(c.Phase.Kind),
			Message: message,
			Date:    today,
		}
		if err := s.store.RecordNotification(ctx, n); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				stats.Skipped++
				continue
			}
			log.Error("record notification failed", slog.Any("error", err))
			stats.Failed++
			continue
		}

		err = s.enqueuer.EnqueueNotification(ctx, queue.Notification{
			ID:      n.ID,
			UserID:  n.UserID,
			Kind:    n.Kind,
			Phase:   n.Phase,
			Message: n.Message,
			Date:    n.Date,
		})
		if err != nil {
			log.Error("enqueue notification failed",
				slog.Int64("notification_id", n.ID),
				slog.Any("error", err),
			)
			// Leave no row behind, or the next run would see a duplicate
			// and the reminder would never go out.
			if derr := s.store.DeleteNotification(ctx, n.ID); derr != nil {
				log.Error("drop undelivered notification failed",
					slog.Int64("notification_id", n.ID),
					slog.Any("error", derr),
				)
			}
			stats.Failed++
			continue
		}
		stats.Notified++
	}

	return stats, nil
}
