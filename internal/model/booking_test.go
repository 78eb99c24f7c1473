package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"9:30", 570, false},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"10", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockRoundTrip(t *testing.T) {
	assert.Equal(t, "09:05", MustClock("9:05").Clock())
	assert.Equal(t, "10:30", MustClock("10:00").Add(30).Clock())
}

func TestWeekdayIndex(t *testing.T) {
	// 2024-01-01 is a Monday.
	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		assert.Equal(t, i, WeekdayIndex(mon.AddDate(0, 0, i)), "day offset %d", i)
	}
}

func TestBookingOverlaps(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(start, end string) *Booking {
		return &Booking{
			DoctorID: 1, Date: date,
			Start: MustClock(start), End: MustClock(end),
		}
	}

	a := mk("10:00", "11:00")

	// Half-open: touching boundaries do not overlap.
	assert.False(t, a.Overlaps(mk("11:00", "12:00")))
	assert.False(t, a.Overlaps(mk("09:00", "10:00")))

	assert.True(t, a.Overlaps(mk("10:30", "11:30")))
	assert.True(t, a.Overlaps(mk("09:30", "10:30")))
	assert.True(t, a.Overlaps(mk("10:15", "10:45")))
	assert.True(t, a.Overlaps(mk("09:00", "12:00")))

	// Different dates never overlap.
	other := mk("10:00", "11:00")
	other.Date = date.AddDate(0, 0, 1)
	assert.False(t, a.Overlaps(other))
}

func TestTimeOffCovers(t *testing.T) {
	off := &TimeOff{
		StaffID:   1,
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, off.Covers(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, off.Covers(time.Date(2024, 2, 10, 23, 30, 0, 0, time.UTC)))
	assert.True(t, off.Covers(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)))
	assert.False(t, off.Covers(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, off.Covers(time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusNoShow.IsTerminal())
	assert.False(t, StatusPlanned.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}
