package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ssavin/vetsystem/internal/model"
)

// DefaultMaxInstances bounds how many instances a single expansion may
// produce. Chosen to cover a year of daily repeats.
const DefaultMaxInstances = 366

// SkippedInstance records a series date that was rejected and why.
type SkippedInstance struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// ExpandResult holds the outcome of a recurrence expansion: the instances
// that passed conflict checking and the ones that were skipped. Skips are
// reported, never silently dropped.
type ExpandResult struct {
	SeriesID uuid.UUID         `json:"series_id"`
	Accepted []model.Booking   `json:"accepted"`
	Skipped  []SkippedInstance `json:"skipped"`
}

// Expander generates concrete booking instances from a repeat rule.
type Expander struct {
	port         SchedulePort
	maxInstances int
}

// NewExpander creates an expander. A non-positive cap falls back to
// DefaultMaxInstances.
func NewExpander(port SchedulePort, maxInstances int) *Expander {
	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	return &Expander{port: port, maxInstances: maxInstances}
}

// Expand generates the dated instances of a recurring series from the
// base booking's date to until, inclusive. Every instance is checked
// against the bookings already scheduled on its date (and against earlier
// instances of this same series) before being accepted. The returned
// bookings carry no ids; the caller assigns them at commit time.
func (e *Expander) Expand(ctx context.Context, base model.Booking, rule model.RepeatRule, until time.Time) (*ExpandResult, error) {
	if !base.ValidInterval() {
		return nil, fmt.Errorf("expand: %w", ErrInvalidInterval)
	}
	if rule == model.RepeatNone || rule == "" {
		return nil, fmt.Errorf("expand: %w", ErrInvalidRepeatRule)
	}

	baseDate := model.DateOnly(base.Date)
	untilDate := model.DateOnly(until)
	if untilDate.Before(baseDate) {
		return nil, fmt.Errorf("expand: until %s before base %s: %w",
			untilDate.Format("2006-01-02"), baseDate.Format("2006-01-02"), ErrInvalidRange)
	}

	dates, err := seriesDates(baseDate, untilDate, rule, e.maxInstances)
	if err != nil {
		return nil, err
	}

	seriesID := uuid.New()
	if base.SeriesID != nil {
		seriesID = *base.SeriesID
	}

	result := &ExpandResult{SeriesID: seriesID}
	for _, d := range dates {
		instance := base
		instance.ID = 0
		instance.Date = d
		instance.Status = model.StatusPlanned
		instance.Repeat = rule
		instance.RepeatUntil = &untilDate
		sid := seriesID
		instance.SeriesID = &sid

		existing, err := e.existingOnDate(ctx, &instance, result.Accepted)
		if err != nil {
			return nil, err
		}

		conflicts, err := FindConflicts(&instance, existing)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			result.Skipped = append(result.Skipped, SkippedInstance{
				Date:   d,
				Reason: skipReason(conflicts),
			})
			continue
		}
		result.Accepted = append(result.Accepted, instance)
	}

	return result, nil
}

// existingOnDate gathers the bookings an instance must not clash with:
// the doctor's day, the room's day if a room is set, and any earlier
// accepted instances of the series falling on the same date.
func (e *Expander) existingOnDate(ctx context.Context, instance *model.Booking, accepted []model.Booking) ([]model.Booking, error) {
	existing, err := e.port.GetBookingsForDoctorOnDate(ctx, instance.DoctorID, instance.Date)
	if err != nil {
		return nil, fmt.Errorf("get doctor bookings: %w", err)
	}

	if instance.RoomID != nil {
		roomBookings, err := e.port.GetBookingsForRoomOnDate(ctx, *instance.RoomID, instance.Date)
		if err != nil {
			return nil, fmt.Errorf("get room bookings: %w", err)
		}
		seen := make(map[int64]bool, len(existing))
		for _, b := range existing {
			seen[b.ID] = true
		}
		for _, b := range roomBookings {
			if !seen[b.ID] {
				existing = append(existing, b)
			}
		}
	}

	for _, b := range accepted {
		if model.SameDate(b.Date, instance.Date) {
			existing = append(existing, b)
		}
	}
	return existing, nil
}

// seriesDates enumerates the dates of a series, enforcing the instance cap.
func seriesDates(base, until time.Time, rule model.RepeatRule, maxInstances int) ([]time.Time, error) {
	var dates []time.Time

	switch rule {
	case model.RepeatDaily, model.RepeatWeekly:
		step := 1
		if rule == model.RepeatWeekly {
			step = 7
		}
		for d := base; !d.After(until); d = d.AddDate(0, 0, step) {
			dates = append(dates, d)
			if len(dates) > maxInstances {
				return nil, fmt.Errorf("series of more than %d instances: %w", maxInstances, ErrTooManyInstances)
			}
		}

	case model.RepeatMonthly:
		day := base.Day()
		for y, m := base.Year(), base.Month(); ; {
			d := time.Date(y, m, day, 0, 0, 0, 0, base.Location())
			if d.After(until) {
				break
			}
			// time.Date normalizes Feb 31 into March: a shifted day
			// means the target month is short, so that month is skipped
			// rather than clamped to its last day.
			if d.Day() == day {
				dates = append(dates, d)
				if len(dates) > maxInstances {
					return nil, fmt.Errorf("series of more than %d instances: %w", maxInstances, ErrTooManyInstances)
				}
			}
			m++
			if m > time.December {
				m = time.January
				y++
			}
		}

	default:
		return nil, fmt.Errorf("rule %q: %w", rule, ErrInvalidRepeatRule)
	}

	return dates, nil
}

func skipReason(conflicts []model.Booking) string {
	first := conflicts[0]
	if len(conflicts) == 1 {
		return fmt.Sprintf("conflicts with booking %d (%s-%s)", first.ID, first.Start, first.End)
	}
	return fmt.Sprintf("conflicts with %d bookings, first is %d (%s-%s)",
		len(conflicts), first.ID, first.Start, first.End)
}
