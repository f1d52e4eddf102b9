package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/pkg/models"
)

// Default notification window (UTC hours, inclusive)
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier sends a due-card reminder to a chat
type Notifier interface {
	SendReminder(ctx context.Context, chatID int64, dueCount int) error
}

// ReminderSource provides the users to remind and their due counts
type ReminderSource interface {
	UsersForNotification(ctx context.Context, hour int) ([]models.UserSettings, error)
	DueCount(ctx context.Context, userID int64) (int, error)
}

// SessionSweeper drops idle study sessions
type SessionSweeper interface {
	SweepSessions() int
}

// Config configures the scheduler
type Config struct {
	StartHour     int
	EndHour       int
	SweepInterval time.Duration
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    ReminderSource
	notifier  Notifier
	sweeper   SessionSweeper
	cfg       Config
	logger    *slog.Logger
}

// New creates a new scheduler instance. notifier may be nil, in which case
// reminders are skipped and only housekeeping runs.
func New(source ReminderSource, notifier Notifier, sweeper SessionSweeper, cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.StartHour < 0 || cfg.StartHour > 23 {
		cfg.StartHour = DefaultNotificationStartHour
	}
	if cfg.EndHour < 0 || cfg.EndHour > 23 {
		cfg.EndHour = DefaultNotificationEndHour
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		source:    source,
		notifier:  notifier,
		sweeper:   sweeper,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(cfg.Logger, "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Hourly check for users who need notifications
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	if s.sweeper != nil {
		if _, err := s.scheduler.Every(s.cfg.SweepInterval).Do(s.sweepSessions); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.SendDueReminders(ctx); err != nil {
		s.logger.Error("reminder run failed", logging.Error(err))
	}
}

func (s *Scheduler) sweepSessions() {
	if removed := s.sweeper.SweepSessions(); removed > 0 {
		s.logger.Debug("idle study sessions removed", logging.Int("count", removed))
	}
}

// InWindow reports whether hour falls inside the notification window
func (s *Scheduler) InWindow(hour int) bool {
	return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
}

// SendDueReminders notifies every user whose reminder hour is now and who has
// due cards. It returns the number of reminders sent.
func (s *Scheduler) SendDueReminders(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	currentHour := s.cfg.Clock().Hour()
	if !s.InWindow(currentHour) {
		s.logger.Debug("outside notification hours, skipping reminders", logging.Args(
			logging.Int("hour", currentHour),
			logging.Int("start", s.cfg.StartHour),
			logging.Int("end", s.cfg.EndHour),
		)...)
		return 0, nil
	}

	users, err := s.source.UsersForNotification(ctx, currentHour)
	if err != nil {
		return 0, fmt.Errorf("get users for notification: %w", err)
	}

	sent := 0
	for _, user := range users {
		due, err := s.source.DueCount(ctx, user.UserID)
		if err != nil {
			s.logger.Warn("error getting due cards", logging.Args(logging.UserID(user.UserID), logging.Error(err))...)
			continue
		}
		if due == 0 {
			continue
		}
		if err := s.notifier.SendReminder(ctx, user.TelegramChatID, due); err != nil {
			s.logger.Warn("error sending reminder", logging.Args(logging.UserID(user.UserID), logging.Error(err))...)
			continue
		}
		sent++
	}
	s.logger.Info("reminders sent", logging.Args(logging.Int("hour", currentHour), logging.Int("sent", sent))...)
	return sent, nil
}

// RunManualCheck forces a reminder for one user regardless of the hour
func (s *Scheduler) RunManualCheck(ctx context.Context, userID, chatID int64) error {
	if s.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	due, err := s.source.DueCount(ctx, userID)
	if err != nil {
		return err
	}
	if due > 0 {
		return s.notifier.SendReminder(ctx, chatID, due)
	}
	return nil
}
