package schedule

import (
	"errors"
	"testing"

	"github.com/ssavin/vetsystem/internal/model"
)

func TestStatusFSMTransitions(t *testing.T) {
	fsm := NewStatusFSM()

	tests := []struct {
		name        string
		from        model.BookingStatus
		to          model.BookingStatus
		shouldAllow bool
	}{
		{"planned to confirmed", model.StatusPlanned, model.StatusConfirmed, true},
		{"confirmed to client waiting", model.StatusConfirmed, model.StatusClientWaiting, true},
		{"client waiting to in progress", model.StatusClientWaiting, model.StatusInProgress, true},
		{"in progress to completed", model.StatusInProgress, model.StatusCompleted, true},
		{"planned cancel", model.StatusPlanned, model.StatusCancelled, true},
		{"confirmed cancel", model.StatusConfirmed, model.StatusCancelled, true},
		{"client waiting cancel", model.StatusClientWaiting, model.StatusCancelled, true},
		{"planned no-show", model.StatusPlanned, model.StatusNoShow, true},
		{"confirmed no-show", model.StatusConfirmed, model.StatusNoShow, true},
		// Forbidden
		{"in progress cancel", model.StatusInProgress, model.StatusCancelled, false},
		{"completed cancel", model.StatusCompleted, model.StatusCancelled, false},
		{"completed back to planned", model.StatusCompleted, model.StatusPlanned, false},
		{"completed to confirmed", model.StatusCompleted, model.StatusConfirmed, false},
		{"cancelled to planned", model.StatusCancelled, model.StatusPlanned, false},
		{"no-show to confirmed", model.StatusNoShow, model.StatusConfirmed, false},
		{"planned skips to in progress", model.StatusPlanned, model.StatusInProgress, false},
		{"unknown status", model.BookingStatus("bogus"), model.StatusPlanned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := fsm.CanTransition(tt.from, tt.to)
			if allowed != tt.shouldAllow {
				t.Errorf("transition %s -> %s: expected allowed=%v, got %v",
					tt.from, tt.to, tt.shouldAllow, allowed)
			}
		})
	}
}

func TestTransitionRejectedLeavesStatusUnchanged(t *testing.T) {
	fsm := NewStatusFSM()
	b := booking(1, monday, "10:00", "10:30", model.StatusCompleted)

	err := fsm.Transition(&b, model.StatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if b.Status != model.StatusCompleted {
		t.Errorf("status mutated on rejected transition: %s", b.Status)
	}
}

func TestTransitionApplies(t *testing.T) {
	fsm := NewStatusFSM()
	b := booking(1, monday, "10:00", "10:30", model.StatusPlanned)

	if err := fsm.Transition(&b, model.StatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", b.Status)
	}
}
