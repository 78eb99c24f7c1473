package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem/internal/cache"
	"github.com/ssavin/vetsystem/internal/database"
	"github.com/ssavin/vetsystem/internal/model"
	"github.com/ssavin/vetsystem/internal/schedule"
	"github.com/ssavin/vetsystem/internal/service"
)

// memRepo is an in-memory service.Repository for handler tests.
type memRepo struct {
	intervals []model.WorkingInterval
	timeOffs  []model.TimeOff
	bookings  map[int64]*model.Booking
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[int64]*model.Booking), nextID: 1}
}

func (r *memRepo) GetWorkingIntervals(_ context.Context, doctorID int64, dayOfWeek int) ([]model.WorkingInterval, error) {
	var out []model.WorkingInterval
	for _, wi := range r.intervals {
		if wi.DoctorID == doctorID && wi.DayOfWeek == dayOfWeek {
			out = append(out, wi)
		}
	}
	return out, nil
}

func (r *memRepo) GetTimeOff(_ context.Context, staffID int64, date time.Time) (*model.TimeOff, error) {
	for i := range r.timeOffs {
		to := &r.timeOffs[i]
		if to.StaffID == staffID && to.IsApproved && to.Covers(date) {
			return to, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetBookingsForDoctorOnDate(_ context.Context, doctorID int64, date time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range r.bookings {
		if b.DoctorID == doctorID && model.SameDate(b.Date, date) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) GetBookingsForRoomOnDate(_ context.Context, roomID int64, date time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range r.bookings {
		if b.RoomID != nil && *b.RoomID == roomID && model.SameDate(b.Date, date) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) GetBooking(_ context.Context, id int64) (*model.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memRepo) CreateBookingWithLock(ctx context.Context, b *model.Booking) (int64, error) {
	existing, _ := r.GetBookingsForDoctorOnDate(ctx, b.DoctorID, b.Date)
	conflict, err := schedule.HasConflict(b, existing)
	if err != nil {
		return 0, err
	}
	if conflict {
		return 0, database.ErrBookingConflict
	}
	b.ID = r.nextID
	b.Version = 1
	r.nextID++
	stored := *b
	r.bookings[b.ID] = &stored
	return b.ID, nil
}

func (r *memRepo) UpdateBookingStatusWithVersion(_ context.Context, id, version int64, status model.BookingStatus) error {
	b, ok := r.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	if b.Version != version {
		return database.ErrVersionConflict
	}
	b.Status = status
	b.Version++
	return nil
}

func (r *memRepo) RescheduleBooking(_ context.Context, id, version int64, date time.Time, start, end model.TimeOfDay) error {
	b, ok := r.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	if b.Version != version {
		return database.ErrVersionConflict
	}
	b.Date = date
	b.Start = start
	b.End = end
	b.Version++
	return nil
}

// monday 2024-01-01 maps to weekday index 0.
var apiMonday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) (*httptest.Server, *memRepo) {
	t.Helper()

	repo := newMemRepo()
	repo.intervals = []model.WorkingInterval{{
		DoctorID:  7,
		DayOfWeek: 0,
		Start:     model.MustClock("09:00"),
		End:       model.MustClock("12:00"),
		IsWorking: true,
	}}

	logger := zerolog.New(io.Discard)
	calc := schedule.NewCalculator(repo, schedule.DefaultGranularity)
	expander := schedule.NewExpander(repo, schedule.DefaultMaxInstances)
	svc := service.New(repo, calc, expander, cache.NewSlotCache(nil, 0), nil, logger)
	server := NewHTTPServer(":0", svc, logger)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleAvailability(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/availability", AvailabilityRequest{
		DoctorID:        7,
		Date:            "2024-01-01",
		DurationMinutes: 60,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody[AvailabilityResponse](t, resp)
	// 09:00-12:00 shift, 60-minute slots on a 15-minute grid.
	if len(body.Slots) != 9 {
		t.Fatalf("len(slots) = %d, want 9", len(body.Slots))
	}
	if body.Slots[0].Start != model.MustClock("09:00") {
		t.Errorf("first slot = %s, want 09:00", body.Slots[0].Start)
	}
}

func TestHandleAvailability_Validation(t *testing.T) {
	ts, _ := setupTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name:       "missing doctor_id",
			body:       map[string]any{"date": "2024-01-01", "duration_minutes": 30},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date format",
			body:       map[string]any{"doctor_id": 7, "date": "01-01-2024", "duration_minutes": 30},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero duration",
			body:       map[string]any{"doctor_id": 7, "date": "2024-01-01", "duration_minutes": 0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			body:       map[string]any{"doctor_id": 7, "date": "2024-01-01", "duration_minutes": 30, "bogus": 1},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/availability", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHandleCreateBooking(t *testing.T) {
	ts, repo := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/bookings", BookingRequest{
		ClientID:  1,
		PatientID: 2,
		DoctorID:  7,
		Date:      "2024-01-01",
		StartTime: "10:00",
		EndTime:   "10:30",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	body := decodeBody[BookingResponse](t, resp)
	if !body.Success || body.Booking == nil {
		t.Fatalf("expected created booking, got %+v", body)
	}
	if _, ok := repo.bookings[body.Booking.ID]; !ok {
		t.Errorf("booking %d not persisted", body.Booking.ID)
	}
}

func TestHandleCreateBooking_Conflict(t *testing.T) {
	ts, _ := setupTestServer(t)

	first := postJSON(t, ts.URL+"/api/bookings", BookingRequest{
		ClientID: 1, PatientID: 2, DoctorID: 7,
		Date: "2024-01-01", StartTime: "10:00", EndTime: "11:00",
	})
	first.Body.Close()

	resp := postJSON(t, ts.URL+"/api/bookings", BookingRequest{
		ClientID: 3, PatientID: 4, DoctorID: 7,
		Date: "2024-01-01", StartTime: "10:30", EndTime: "11:00",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	body := decodeBody[BookingResponse](t, resp)
	if body.Success || len(body.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", body)
	}
}

func TestHandleCreateSeries(t *testing.T) {
	ts, repo := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/bookings/recurring", map[string]any{
		"client_id":  1,
		"patient_id": 2,
		"doctor_id":  7,
		"date":       "2024-01-01",
		"start_time": "09:00",
		"end_time":   "09:30",
		"repeat":     "weekly",
		"repeat_until": apiMonday.AddDate(0, 0, 21).
			Format("2006-01-02"),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	body := decodeBody[service.SeriesResult](t, resp)
	if len(body.Created) != 4 {
		t.Fatalf("created = %d, want 4", len(body.Created))
	}
	if len(repo.bookings) != 4 {
		t.Errorf("persisted = %d, want 4", len(repo.bookings))
	}
}

func TestHandleStatusChange(t *testing.T) {
	ts, repo := setupTestServer(t)
	repo.bookings[1] = &model.Booking{
		ID: 1, DoctorID: 7, Date: apiMonday,
		Start: model.MustClock("10:00"), End: model.MustClock("10:30"),
		Status: model.StatusPlanned, Version: 1,
	}
	repo.nextID = 2

	resp := postJSON(t, ts.URL+"/api/bookings/status", StatusChangeRequest{
		BookingID: 1,
		Status:    "confirmed",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if repo.bookings[1].Status != model.StatusConfirmed {
		t.Errorf("stored status = %s, want confirmed", repo.bookings[1].Status)
	}
}

func TestHandleStatusChange_InvalidTransition(t *testing.T) {
	ts, repo := setupTestServer(t)
	repo.bookings[1] = &model.Booking{
		ID: 1, DoctorID: 7, Date: apiMonday,
		Start: model.MustClock("10:00"), End: model.MustClock("10:30"),
		Status: model.StatusCompleted, Version: 1,
	}
	repo.nextID = 2

	resp := postJSON(t, ts.URL+"/api/bookings/status", StatusChangeRequest{
		BookingID: 1,
		Status:    "confirmed",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHandleStatusChange_NotFound(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/bookings/status", StatusChangeRequest{
		BookingID: 999,
		Status:    "confirmed",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleReschedule(t *testing.T) {
	ts, repo := setupTestServer(t)
	repo.bookings[1] = &model.Booking{
		ID: 1, DoctorID: 7, Date: apiMonday,
		Start: model.MustClock("10:00"), End: model.MustClock("10:30"),
		Status: model.StatusPlanned, Version: 1,
	}
	repo.nextID = 2

	resp := postJSON(t, ts.URL+"/api/bookings/reschedule", RescheduleRequest{
		BookingID: 1,
		Date:      "2024-01-08",
		StartTime: "11:00",
		EndTime:   "11:30",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	stored := repo.bookings[1]
	if !model.SameDate(stored.Date, apiMonday.AddDate(0, 0, 7)) {
		t.Errorf("stored date = %s, want 2024-01-08", stored.Date.Format("2006-01-02"))
	}
	if stored.Start != model.MustClock("11:00") {
		t.Errorf("stored start = %s, want 11:00", stored.Start)
	}
}

func TestHandleHealth(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
