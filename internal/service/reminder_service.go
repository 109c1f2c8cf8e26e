package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/notify"
	"go.uber.org/zap"
)

// ReminderService sends one reminder per appointment starting within window.
type ReminderService struct {
	repo       appointment.Repository
	users      UserRepository
	dispatcher notify.Dispatcher
	window     time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewReminderService(repo appointment.Repository, users UserRepository, dispatcher notify.Dispatcher, window time.Duration, log *zap.Logger) *ReminderService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderService{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		window:     window,
		log:        log,
		now:        time.Now,
	}
}

// Run dispatches reminders for every due appointment and returns how many
// were sent.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	until := now.Add(s.window)

	due, err := s.repo.ListDueReminders(ctx, now, until)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		starts := a.StartsAt()
		// Candidates are selected by date; the exact start decides.
		if starts.Before(now) || starts.After(until) {
			continue
		}

		people, err := contacts(ctx, s.users, a.PatientID, a.DoctorID)
		if err != nil {
			return sent, err
		}
		s.dispatcher.Dispatch(ctx, notify.NewNotice(notify.KindReminder, a, people[a.PatientID], people[a.DoctorID]))

		if err := s.repo.MarkReminderSent(ctx, a.ID, now); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		s.log.Info("appointment reminders dispatched", zap.Int("count", sent))
	}
	return sent, nil
}

// Start runs the reminder pass every interval until ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("reminder pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
