// Package schedule implements the clinic's scheduling engine: free-slot
// calculation, booking conflict detection, recurring-series expansion and
// the appointment status state machine. All operations are pure
// computations over data the caller has already fetched; the engine itself
// performs no I/O beyond its read-only persistence ports.
package schedule

import "errors"

var (
	// ErrInvalidDuration is returned for a zero or negative slot duration.
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	// ErrInvalidInterval is returned when a booking's start is not before its end.
	ErrInvalidInterval = errors.New("start time must be before end time")

	// ErrInvalidRange is returned when a repeat-until date precedes the base date.
	ErrInvalidRange = errors.New("repeat-until date precedes the base booking date")

	// ErrInvalidRepeatRule is returned when an expansion is requested for
	// a booking without a repeat rule.
	ErrInvalidRepeatRule = errors.New("repeat rule does not describe a recurring series")

	// ErrTooManyInstances is returned when a recurrence range would expand
	// beyond the configured instance cap.
	ErrTooManyInstances = errors.New("recurrence range produces too many instances")

	// ErrInvalidTransition is returned when a status change violates the
	// booking state machine.
	ErrInvalidTransition = errors.New("invalid booking status transition")
)
