// Package service orchestrates the scheduling engine and the store into
// the clinic's booking workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem/internal/cache"
	"github.com/ssavin/vetsystem/internal/database"
	"github.com/ssavin/vetsystem/internal/events"
	"github.com/ssavin/vetsystem/internal/metrics"
	"github.com/ssavin/vetsystem/internal/model"
	"github.com/ssavin/vetsystem/internal/schedule"
)

// ErrImmutableBooking is returned when a reschedule targets a booking in
// a terminal status. Corrections require cancelling and re-creating.
var ErrImmutableBooking = errors.New("completed or cancelled bookings cannot be rescheduled")

// Repository is the persistence surface the booking service needs.
type Repository interface {
	schedule.SchedulePort

	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	CreateBookingWithLock(ctx context.Context, b *model.Booking) (int64, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status model.BookingStatus) error
	RescheduleBooking(ctx context.Context, id, version int64, date time.Time, start, end model.TimeOfDay) error
}

// BookingService exposes the clinic's scheduling operations.
type BookingService struct {
	repo     Repository
	calc     *schedule.Calculator
	expander *schedule.Expander
	fsm      *schedule.StatusFSM
	slots    *cache.SlotCache
	bus      *events.EventBus
	logger   zerolog.Logger
}

// New creates the booking service. The slot cache may be a no-op cache;
// the bus may be nil when nothing subscribes.
func New(repo Repository, calc *schedule.Calculator, expander *schedule.Expander,
	slots *cache.SlotCache, bus *events.EventBus, logger zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		calc:     calc,
		expander: expander,
		fsm:      schedule.NewStatusFSM(),
		slots:    slots,
		bus:      bus,
		logger:   logger,
	}
}

// FreeSlots returns the doctor's free windows for the date and duration,
// consulting the cache first.
func (s *BookingService) FreeSlots(ctx context.Context, doctorID int64, date time.Time, durationMinutes int) ([]schedule.Window, error) {
	if cached, ok := s.slots.Get(ctx, doctorID, date, durationMinutes); ok {
		return cached, nil
	}

	windows, err := s.calc.FindFreeSlots(ctx, doctorID, date, durationMinutes)
	if err != nil {
		return nil, err
	}

	s.slots.Set(ctx, doctorID, date, durationMinutes, windows)
	return windows, nil
}

// CreateBooking validates and persists a single appointment. When the
// slot clashes with existing bookings, the clashing bookings are
// returned as data and nothing is persisted.
func (s *BookingService) CreateBooking(ctx context.Context, b *model.Booking) (*model.Booking, []model.Booking, error) {
	if err := normalize(b); err != nil {
		return nil, nil, err
	}

	existing, err := s.existingForCheck(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	conflicts, err := schedule.FindConflicts(b, existing)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		metrics.IncBookingConflict()
		return nil, conflicts, nil
	}

	if _, err := s.repo.CreateBookingWithLock(ctx, b); err != nil {
		if errors.Is(err, database.ErrBookingConflict) {
			// Lost the race between check and commit; report whoever won.
			metrics.IncBookingConflict()
			conflicts, ferr := s.conflictsNow(ctx, b)
			if ferr != nil {
				return nil, nil, ferr
			}
			return nil, conflicts, nil
		}
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}

	s.slots.Invalidate(ctx, b.DoctorID, b.Date)
	metrics.IncBookingCreated(string(b.Status))
	s.publish(events.Event{
		Type:      events.TypeBookingCreated,
		BookingID: b.ID,
		DoctorID:  b.DoctorID,
	})
	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("doctor_id", b.DoctorID).
		Str("date", b.Date.Format("2006-01-02")).
		Str("time", b.Start.Clock()+"-"+b.End.Clock()).
		Msg("booking created")

	return b, nil, nil
}

// SeriesResult reports the outcome of creating a recurring series.
type SeriesResult struct {
	SeriesID string                     `json:"series_id"`
	Created  []model.Booking            `json:"created"`
	Skipped  []schedule.SkippedInstance `json:"skipped"`
}

// CreateRecurringSeries expands the base booking by the repeat rule and
// persists every instance that passes conflict checking. Instances that
// clash, at expansion time or at commit time, are reported as skipped.
func (s *BookingService) CreateRecurringSeries(ctx context.Context, base model.Booking, rule model.RepeatRule, until time.Time) (*SeriesResult, error) {
	if err := normalize(&base); err != nil {
		return nil, err
	}

	expansion, err := s.expander.Expand(ctx, base, rule, until)
	if err != nil {
		return nil, err
	}

	result := &SeriesResult{
		SeriesID: expansion.SeriesID.String(),
		Skipped:  expansion.Skipped,
	}
	for i := range expansion.Accepted {
		instance := expansion.Accepted[i]
		if _, err := s.repo.CreateBookingWithLock(ctx, &instance); err != nil {
			if errors.Is(err, database.ErrBookingConflict) {
				metrics.IncRecurrence("skipped")
				result.Skipped = append(result.Skipped, schedule.SkippedInstance{
					Date:   instance.Date,
					Reason: "slot was taken while the series was being created",
				})
				continue
			}
			return nil, fmt.Errorf("create series instance %s: %w",
				instance.Date.Format("2006-01-02"), err)
		}
		s.slots.Invalidate(ctx, instance.DoctorID, instance.Date)
		metrics.IncRecurrence("accepted")
		result.Created = append(result.Created, instance)
	}

	for range expansion.Skipped {
		metrics.IncRecurrence("skipped")
	}

	s.publish(events.Event{
		Type:     events.TypeRecurrenceExpanded,
		DoctorID: base.DoctorID,
		Payload: map[string]any{
			"series_id": result.SeriesID,
			"created":   len(result.Created),
			"skipped":   len(result.Skipped),
		},
	})
	s.logger.Info().
		Str("series_id", result.SeriesID).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("recurring series created")

	return result, nil
}

// TransitionStatus applies a state-machine-checked status change.
func (s *BookingService) TransitionStatus(ctx context.Context, bookingID int64, to model.BookingStatus) (*model.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.fsm.Transition(b, to); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	b.Version++

	if to == model.StatusCancelled {
		// A cancelled slot becomes bookable again.
		s.slots.Invalidate(ctx, b.DoctorID, b.Date)
	}
	metrics.IncStatusTransition(string(to))
	s.publish(events.Event{
		Type:      events.TypeStatusChanged,
		BookingID: b.ID,
		DoctorID:  b.DoctorID,
		Payload:   map[string]any{"status": string(to)},
	})
	s.logger.Info().
		Int64("booking_id", b.ID).
		Str("status", string(to)).
		Msg("booking status changed")

	return b, nil
}

// Reschedule moves a non-terminal booking to a new date and time. The
// new slot is conflict-checked; clashes are returned as data.
func (s *BookingService) Reschedule(ctx context.Context, bookingID int64, date time.Time, start, end model.TimeOfDay) (*model.Booking, []model.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.Status.IsTerminal() {
		return nil, nil, ErrImmutableBooking
	}

	candidate := *b
	candidate.Date = date
	candidate.Start = start
	candidate.End = end
	if !candidate.ValidInterval() {
		return nil, nil, schedule.ErrInvalidInterval
	}

	existing, err := s.existingForCheck(ctx, &candidate)
	if err != nil {
		return nil, nil, err
	}
	existing = excludeBooking(existing, b.ID)

	conflicts, err := schedule.FindConflicts(&candidate, existing)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		metrics.IncBookingConflict()
		return nil, conflicts, nil
	}

	if err := s.repo.RescheduleBooking(ctx, b.ID, b.Version, date, start, end); err != nil {
		return nil, nil, fmt.Errorf("reschedule: %w", err)
	}

	s.slots.Invalidate(ctx, b.DoctorID, b.Date)
	s.slots.Invalidate(ctx, b.DoctorID, date)

	candidate.Duration = int(end - start)
	candidate.Version = b.Version + 1
	s.logger.Info().
		Int64("booking_id", b.ID).
		Str("date", date.Format("2006-01-02")).
		Str("time", start.Clock()+"-"+end.Clock()).
		Msg("booking rescheduled")

	return &candidate, nil, nil
}

// existingForCheck gathers the doctor's day plus the room's day when the
// candidate has a room assigned.
func (s *BookingService) existingForCheck(ctx context.Context, b *model.Booking) ([]model.Booking, error) {
	existing, err := s.repo.GetBookingsForDoctorOnDate(ctx, b.DoctorID, b.Date)
	if err != nil {
		return nil, fmt.Errorf("get doctor bookings: %w", err)
	}
	if b.RoomID == nil {
		return existing, nil
	}

	roomBookings, err := s.repo.GetBookingsForRoomOnDate(ctx, *b.RoomID, b.Date)
	if err != nil {
		return nil, fmt.Errorf("get room bookings: %w", err)
	}
	seen := make(map[int64]bool, len(existing))
	for _, eb := range existing {
		seen[eb.ID] = true
	}
	for _, rb := range roomBookings {
		if !seen[rb.ID] {
			existing = append(existing, rb)
		}
	}
	return existing, nil
}

func (s *BookingService) conflictsNow(ctx context.Context, b *model.Booking) ([]model.Booking, error) {
	existing, err := s.existingForCheck(ctx, b)
	if err != nil {
		return nil, err
	}
	return schedule.FindConflicts(b, existing)
}

func (s *BookingService) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// normalize fills derived booking fields and validates the interval.
func normalize(b *model.Booking) error {
	if b.End == 0 && b.Duration > 0 {
		b.End = b.Start.Add(b.Duration)
	}
	if !b.ValidInterval() {
		return schedule.ErrInvalidInterval
	}
	b.Duration = int(b.End - b.Start)
	b.Date = model.DateOnly(b.Date)
	if b.Status == "" {
		b.Status = model.StatusPlanned
	}
	if b.Type == "" {
		b.Type = model.TypePrimary
	}
	if b.Repeat == "" {
		b.Repeat = model.RepeatNone
	}
	return nil
}

func excludeBooking(bookings []model.Booking, id int64) []model.Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
