package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/pkg/models"
	"github.com/go-co-op/gocron"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserLister
	progress  StatisticsProvider
	at        string
	log       *logger.Logger
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, outstanding []models.SetStatistics) error
}

// UserLister returns the users that accept reminders
type UserLister interface {
	ListNotifiable(ctx context.Context) ([]int64, error)
}

// StatisticsProvider reports a user's progress per content set
type StatisticsProvider interface {
	Statistics(ctx context.Context, userID int64) ([]models.SetStatistics, error)
}

// New creates a new scheduler instance running the daily reminder at the
// given "HH:MM" time in loc
func New(notifier Notifier, users UserLister, progress StatisticsProvider, at string, loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		users:     users,
		progress:  progress,
		at:        at,
		log:       log.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		s.checkAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "at", s.at, "location", s.scheduler.Location().String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders checks for users who need reminders and sends them
func (s *Scheduler) checkAndSendReminders(ctx context.Context) {
	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		s.log.Error("error getting users for notification", "error", err)
		return
	}

	sent := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		ok, err := s.remind(ctx, userID)
		if err != nil {
			s.log.Warn("error sending reminder", "user_id", userID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	s.log.Info("reminders checked", "users", len(users), "sent", sent)
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	return s.remind(ctx, userID)
}

// remind notifies a user about the sets they started but have not finished
func (s *Scheduler) remind(ctx context.Context, userID int64) (bool, error) {
	stats, err := s.progress.Statistics(ctx, userID)
	if err != nil {
		return false, err
	}

	var outstanding []models.SetStatistics
	for _, st := range stats {
		if st.Started() && !st.Finished() {
			outstanding = append(outstanding, st)
		}
	}
	if len(outstanding) == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminder(ctx, userID, outstanding); err != nil {
		return false, err
	}
	return true, nil
}
