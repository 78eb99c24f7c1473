package schedule

import (
	"fmt"

	"github.com/ssavin/vetsystem/internal/model"
)

// HasConflict reports whether the candidate booking clashes with any of
// the existing bookings. It is a pure predicate: scoping the existing set
// (same date, same doctor or room) is the caller's responsibility.
//
// A clash exists against any non-cancelled booking with either the same
// doctor and overlapping time, or the same room (non-nil on both sides)
// and overlapping time. Assistant double-booking is deliberately not
// checked; the clinic's data model allows it.
func HasConflict(candidate *model.Booking, existing []model.Booking) (bool, error) {
	conflicts, err := FindConflicts(candidate, existing)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns every existing booking that clashes with the
// candidate, so callers can report all of them at once.
func FindConflicts(candidate *model.Booking, existing []model.Booking) ([]model.Booking, error) {
	if !candidate.ValidInterval() {
		return nil, fmt.Errorf("candidate %s-%s: %w", candidate.Start, candidate.End, ErrInvalidInterval)
	}

	var conflicts []model.Booking
	for i := range existing {
		other := &existing[i]
		if other.Status == model.StatusCancelled {
			continue
		}
		if !candidate.Overlaps(other) {
			continue
		}
		if candidate.DoctorID == other.DoctorID || sameRoom(candidate, other) {
			conflicts = append(conflicts, *other)
		}
	}
	return conflicts, nil
}

func sameRoom(a, b *model.Booking) bool {
	return a.RoomID != nil && b.RoomID != nil && *a.RoomID == *b.RoomID
}
