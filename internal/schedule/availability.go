package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ssavin/vetsystem/internal/model"
)

// DefaultGranularity is the fixed step, in minutes, between candidate
// slot start times. It is a policy constant, not derived from the
// requested duration.
const DefaultGranularity = 15

// Window is a free time range on a single date, half-open [Start, End).
type Window struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
}

// Calculator computes free slots for a doctor on a date.
type Calculator struct {
	port        SchedulePort
	granularity int
}

// NewCalculator creates a calculator over the given persistence port.
// A non-positive granularity falls back to DefaultGranularity.
func NewCalculator(port SchedulePort, granularity int) *Calculator {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Calculator{port: port, granularity: granularity}
}

// FindFreeSlots returns all free windows of the requested duration for
// the doctor on the date, in chronological order. A doctor with no
// working interval for the weekday, a non-working interval, or approved
// time-off covering the date yields an empty result, not an error.
func (c *Calculator) FindFreeSlots(ctx context.Context, doctorID int64, date time.Time, durationMinutes int) ([]Window, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("find free slots: %w", ErrInvalidDuration)
	}

	timeOff, err := c.port.GetTimeOff(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("get time off: %w", err)
	}
	if timeOff != nil && timeOff.IsApproved && timeOff.Covers(date) {
		return []Window{}, nil
	}

	intervals, err := c.port.GetWorkingIntervals(ctx, doctorID, model.WeekdayIndex(date))
	if err != nil {
		return nil, fmt.Errorf("get working intervals: %w", err)
	}

	bookings, err := c.port.GetBookingsForDoctorOnDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	busy := busyIntervals(bookings)

	// Split shifts: every working interval contributes candidates
	// independently, results are merged and sorted afterwards.
	slots := []Window{}
	for _, iv := range intervals {
		if !iv.IsWorking {
			continue
		}
		slots = append(slots, c.slotsWithin(iv.Start, iv.End, durationMinutes, busy)...)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots, nil
}

// slotsWithin enumerates free candidate slots inside one working window.
func (c *Calculator) slotsWithin(winStart, winEnd model.TimeOfDay, duration int, busy []Window) []Window {
	var out []Window
	for cursor := winStart; cursor.Add(duration) <= winEnd; cursor = cursor.Add(c.granularity) {
		slot := Window{Start: cursor, End: cursor.Add(duration)}
		if !overlapsAny(slot, busy) {
			out = append(out, slot)
		}
	}
	return out
}

// busyIntervals extracts the busy windows from non-cancelled bookings.
func busyIntervals(bookings []model.Booking) []Window {
	var busy []Window
	for _, b := range bookings {
		if b.Status == model.StatusCancelled {
			continue
		}
		busy = append(busy, Window{Start: b.Start, End: b.End})
	}
	return busy
}

// overlaps is the canonical half-open interval overlap rule shared by the
// availability calculator and the conflict detector: [a1,a2) and [b1,b2)
// overlap iff a1 < b2 && b1 < a2. Exact boundary adjacency is not an
// overlap.
func overlaps(a, b Window) bool {
	return a.Start < b.End && b.Start < a.End
}

func overlapsAny(w Window, busy []Window) bool {
	for _, b := range busy {
		if overlaps(w, b) {
			return true
		}
	}
	return false
}
