package schedule

import (
	"fmt"

	"github.com/ssavin/vetsystem/internal/model"
)

// StatusFSM guards booking status transitions.
//
// Happy path: planned -> confirmed -> client_waiting -> in_progress ->
// completed. Cancellation and no-show are reachable only before the
// visit starts. Completed, cancelled and no_show are terminal.
type StatusFSM struct {
	transitions map[model.BookingStatus][]model.BookingStatus
}

// NewStatusFSM creates the FSM with the clinic's transition table.
func NewStatusFSM() *StatusFSM {
	return &StatusFSM{
		transitions: map[model.BookingStatus][]model.BookingStatus{
			model.StatusPlanned:       {model.StatusConfirmed, model.StatusCancelled, model.StatusNoShow},
			model.StatusConfirmed:     {model.StatusClientWaiting, model.StatusCancelled, model.StatusNoShow},
			model.StatusClientWaiting: {model.StatusInProgress, model.StatusCancelled, model.StatusNoShow},
			model.StatusInProgress:    {model.StatusCompleted},
			model.StatusCompleted:     {},
			model.StatusCancelled:     {},
			model.StatusNoShow:        {},
		},
	}
}

// CanTransition checks if a status change is allowed.
func (f *StatusFSM) CanTransition(from, to model.BookingStatus) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition applies the status change to the booking if allowed. On a
// forbidden transition the booking is left untouched and
// ErrInvalidTransition is returned.
func (f *StatusFSM) Transition(b *model.Booking, to model.BookingStatus) error {
	if !f.CanTransition(b.Status, to) {
		return fmt.Errorf("%s -> %s: %w", b.Status, to, ErrInvalidTransition)
	}
	b.Status = to
	return nil
}
