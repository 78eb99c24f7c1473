// Package reminders sends appointment reminders to clients ahead of
// their visit.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ssavin/vetsystem/internal/metrics"
	"github.com/ssavin/vetsystem/internal/model"
)

// BookingStore provides the bookings that may need a reminder.
type BookingStore interface {
	// GetReminderCandidates returns planned or confirmed bookings starting
	// within the lead window that have not had a reminder sent.
	GetReminderCandidates(ctx context.Context, now time.Time, lead time.Duration) ([]model.Booking, error)

	// MarkReminderSent flags a booking's reminder as delivered.
	MarkReminderSent(ctx context.Context, bookingID int64) error
}

// Notifier delivers a reminder to the booking's client.
type Notifier interface {
	SendReminder(ctx context.Context, b *model.Booking) error
}

// Config controls the sweep loop.
type Config struct {
	// SweepInterval is how often to check for upcoming bookings.
	SweepInterval time.Duration

	// Lead is how far ahead of the appointment the reminder goes out.
	Lead time.Duration

	// RatePerSecond limits notification sends; Telegram caps bots at
	// roughly 30 messages per second.
	RatePerSecond float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 5 * time.Minute,
		Lead:          24 * time.Hour,
		RatePerSecond: 20,
	}
}

// Service periodically sweeps the store and sends due reminders.
type Service struct {
	config   Config
	store    BookingStore
	notifier Notifier
	limiter  *rate.Limiter
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a reminder service. Zero config fields fall back
// to DefaultConfig values.
func NewService(config Config, store BookingStore, notifier Notifier, logger zerolog.Logger) *Service {
	defaults := DefaultConfig()
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.Lead <= 0 {
		config.Lead = defaults.Lead
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = defaults.RatePerSecond
	}

	return &Service{
		config:   config,
		store:    store,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(config.RatePerSecond), int(config.RatePerSecond)),
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.config.SweepInterval).
		Dur("lead", s.config.Lead).
		Msg("reminder service started")

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("reminder sweep failed")
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder service stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep sends reminders for all due bookings. Failures on individual
// bookings are logged and do not stop the sweep.
func (s *Service) Sweep(ctx context.Context) error {
	now := s.now()
	candidates, err := s.store.GetReminderCandidates(ctx, now, s.config.Lead)
	if err != nil {
		return fmt.Errorf("get reminder candidates: %w", err)
	}

	for i := range candidates {
		b := &candidates[i]
		// The store filters by date; the lead window is checked against
		// the actual appointment time here.
		startAt := b.StartAt()
		if startAt.Before(now) || startAt.After(now.Add(s.config.Lead)) {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := s.notifier.SendReminder(ctx, b); err != nil {
			metrics.IncReminder("failed")
			s.logger.Error().Err(err).
				Int64("booking_id", b.ID).
				Msg("reminder delivery failed")
			continue
		}

		if err := s.store.MarkReminderSent(ctx, b.ID); err != nil {
			// The client was notified; a second reminder on the next
			// sweep is the lesser evil, but log it loudly.
			s.logger.Error().Err(err).
				Int64("booking_id", b.ID).
				Msg("failed to mark reminder as sent")
			continue
		}

		metrics.IncReminder("sent")
		s.logger.Info().
			Int64("booking_id", b.ID).
			Int64("client_id", b.ClientID).
			Time("start_at", startAt).
			Msg("reminder sent")
	}
	return nil
}
