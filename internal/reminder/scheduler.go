// Package reminder delivers scheduled reminders over WhatsApp.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jiva/internal/logging"
	"jiva/internal/store"
)

// Sender delivers one text message. *whatsapp.Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

type Scheduler struct {
	store    *store.Store
	sender   Sender
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(st *store.Store, sender Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		sender:   sender,
		interval: 60 * time.Second,
		log:      logging.Named("reminder"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps for due reminders until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("reminder scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error("reminder sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep sends every due reminder and marks it sent. A failed delivery
// leaves the reminder pending so the next sweep retries it.
func (s *Scheduler) Sweep(ctx context.Context) error {
	due, err := s.store.Due(ctx, s.now())
	if err != nil {
		return fmt.Errorf("query due reminders: %w", err)
	}

	for _, r := range due {
		user, err := s.store.UserByID(ctx, r.UserID)
		if err != nil {
			s.log.Error("reminder user lookup failed", zap.Int64("reminder", r.ID), zap.Error(err))
			continue
		}
		body := fmt.Sprintf("Reminder: %s", r.Message)
		if _, err := s.sender.SendText(ctx, user.PhoneNumber, body); err != nil {
			s.log.Error("reminder delivery failed",
				zap.Int64("reminder", r.ID),
				zap.String("phone", user.PhoneNumber),
				zap.Error(err))
			continue
		}
		if err := s.store.MarkSent(ctx, r.ID); err != nil {
			s.log.Error("failed to mark reminder sent", zap.Int64("reminder", r.ID), zap.Error(err))
			continue
		}
		s.log.Info("reminder delivered", zap.Int64("reminder", r.ID), zap.String("phone", user.PhoneNumber))
	}
	return nil
}
