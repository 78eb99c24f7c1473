package schedule

import (
	"context"
	"time"

	"github.com/ssavin/vetsystem/internal/model"
)

// SchedulePort provides the read-only snapshots the availability
// calculator works over. Implementations return data as of the call;
// guarding staleness between fetch and commit is the persistence layer's
// job, not the engine's.
type SchedulePort interface {
	// GetWorkingIntervals returns all interval rows for a doctor on a
	// weekday (0 = Monday). Several rows mean split shifts.
	GetWorkingIntervals(ctx context.Context, doctorID int64, dayOfWeek int) ([]model.WorkingInterval, error)

	// GetTimeOff returns the approved time-off covering the date, or nil.
	GetTimeOff(ctx context.Context, staffID int64, date time.Time) (*model.TimeOff, error)

	// GetBookingsForDoctorOnDate returns the doctor's bookings on a date,
	// cancelled ones included; the engine filters by status itself.
	GetBookingsForDoctorOnDate(ctx context.Context, doctorID int64, date time.Time) ([]model.Booking, error)

	// GetBookingsForRoomOnDate returns a room's bookings on a date.
	GetBookingsForRoomOnDate(ctx context.Context, roomID int64, date time.Time) ([]model.Booking, error)
}
