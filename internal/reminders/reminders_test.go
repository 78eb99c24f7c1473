package reminders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ssavin/vetsystem/internal/model"
)

type fakeStore struct {
	candidates []model.Booking
	marked     []int64
	markErr    error
}

func (s *fakeStore) GetReminderCandidates(_ context.Context, _ time.Time, _ time.Duration) ([]model.Booking, error) {
	return s.candidates, nil
}

func (s *fakeStore) MarkReminderSent(_ context.Context, bookingID int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, bookingID)
	return nil
}

type fakeNotifier struct {
	sent    []int64
	failFor map[int64]error
}

func (n *fakeNotifier) SendReminder(_ context.Context, b *model.Booking) error {
	if err, ok := n.failFor[b.ID]; ok {
		return err
	}
	n.sent = append(n.sent, b.ID)
	return nil
}

var sweepNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newSweepService(store *fakeStore, notifier *fakeNotifier) *Service {
	svc := NewService(Config{
		SweepInterval: time.Minute,
		Lead:          24 * time.Hour,
		RatePerSecond: 1000,
	}, store, notifier, zerolog.New(io.Discard))
	svc.now = func() time.Time { return sweepNow }
	return svc
}

func candidate(id int64, date time.Time, start model.TimeOfDay) model.Booking {
	return model.Booking{
		ID:       id,
		ClientID: id * 10,
		DoctorID: 7,
		Date:     date,
		Start:    start,
		End:      start.Add(30),
		Status:   model.StatusConfirmed,
	}
}

func TestSweep_SendsAndMarks(t *testing.T) {
	store := &fakeStore{candidates: []model.Booking{
		candidate(1, sweepNow, model.MustClock("15:00")),
		candidate(2, sweepNow.AddDate(0, 0, 1), model.MustClock("10:00")),
	}}
	notifier := &fakeNotifier{}

	err := newSweepService(store, notifier).Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, notifier.sent)
	assert.Equal(t, []int64{1, 2}, store.marked)
}

func TestSweep_SkipsOutsideLeadWindow(t *testing.T) {
	store := &fakeStore{candidates: []model.Booking{
		// Already started earlier today.
		candidate(1, sweepNow, model.MustClock("09:00")),
		// Tomorrow afternoon, beyond the 24h lead.
		candidate(2, sweepNow.AddDate(0, 0, 1), model.MustClock("15:00")),
		// Tomorrow morning, inside the lead.
		candidate(3, sweepNow.AddDate(0, 0, 1), model.MustClock("09:00")),
	}}
	notifier := &fakeNotifier{}

	err := newSweepService(store, notifier).Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int64{3}, notifier.sent)
}

func TestSweep_DeliveryFailureDoesNotMark(t *testing.T) {
	store := &fakeStore{candidates: []model.Booking{
		candidate(1, sweepNow, model.MustClock("15:00")),
		candidate(2, sweepNow, model.MustClock("16:00")),
	}}
	notifier := &fakeNotifier{failFor: map[int64]error{
		1: errors.New("chat not found"),
	}}

	err := newSweepService(store, notifier).Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int64{2}, notifier.sent)
	assert.Equal(t, []int64{2}, store.marked)
}

func TestSweep_MarkFailureContinues(t *testing.T) {
	store := &fakeStore{
		candidates: []model.Booking{
			candidate(1, sweepNow, model.MustClock("15:00")),
		},
		markErr: errors.New("disk full"),
	}
	notifier := &fakeNotifier{}

	err := newSweepService(store, notifier).Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int64{1}, notifier.sent)
	assert.Empty(t, store.marked)
}
