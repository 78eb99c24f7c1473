package api

import (
	"fmt"
	"net/http"

	"github.com/ssavin/vetsystem/internal/metrics"
	"github.com/ssavin/vetsystem/internal/model"
)

// BookingRequest is the request body for POST /api/bookings.
type BookingRequest struct {
	ClientID        int64  `json:"client_id"`
	PatientID       int64  `json:"patient_id"`
	DoctorID        int64  `json:"doctor_id"`
	AssistantID     *int64 `json:"assistant_id,omitempty"`
	RoomID          *int64 `json:"room_id,omitempty"`
	Date            string `json:"date"`       // Format: YYYY-MM-DD
	StartTime       string `json:"start_time"` // Format: HH:MM
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"` // Alternative to end_time
	Type            string `json:"type,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Equipment       string `json:"equipment,omitempty"`
}

// BookingResponse reports a created or updated booking, or the clashes
// that prevented the write.
type BookingResponse struct {
	Success   bool            `json:"success"`
	Booking   *model.Booking  `json:"booking,omitempty"`
	Conflicts []model.Booking `json:"conflicts,omitempty"`
}

// SeriesRequest is the request body for POST /api/bookings/recurring.
type SeriesRequest struct {
	BookingRequest
	Repeat      string `json:"repeat"`       // daily, weekly or monthly
	RepeatUntil string `json:"repeat_until"` // Format: YYYY-MM-DD, inclusive
}

// StatusChangeRequest is the request body for POST /api/bookings/status.
type StatusChangeRequest struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
}

// RescheduleRequest is the request body for POST /api/bookings/reschedule.
type RescheduleRequest struct {
	BookingID int64  `json:"booking_id"`
	Date      string `json:"date"`       // Format: YYYY-MM-DD
	StartTime string `json:"start_time"` // Format: HH:MM
	EndTime   string `json:"end_time"`   // Format: HH:MM
}

func (req *BookingRequest) toBooking() (*model.Booking, error) {
	if req.ClientID <= 0 || req.PatientID <= 0 || req.DoctorID <= 0 {
		return nil, fmt.Errorf("client_id, patient_id and doctor_id are required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
	}
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time; expected HH:MM")
	}

	b := &model.Booking{
		ClientID:    req.ClientID,
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		AssistantID: req.AssistantID,
		RoomID:      req.RoomID,
		Date:        date,
		Start:       start,
		Duration:    req.DurationMinutes,
		Type:        model.BookingType(req.Type),
		Reason:      req.Reason,
		Notes:       req.Notes,
		Equipment:   req.Equipment,
	}
	if req.EndTime != "" {
		end, err := model.ParseClock(req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time; expected HH:MM")
		}
		b.End = end
	} else if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("either end_time or duration_minutes is required")
	}
	return b, nil
}

// handleCreateBooking creates a single appointment.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req BookingRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b, err := req.toBooking()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, conflicts, err := s.svc.CreateBooking(r.Context(), b)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(conflicts) > 0 {
		writeJSON(w, http.StatusConflict, BookingResponse{
			Success:   false,
			Conflicts: conflicts,
		})
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		Success: true,
		Booking: created,
	})
}

// handleCreateSeries creates a recurring series of appointments.
// POST /api/bookings/recurring
func (s *HTTPServer) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_series")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req SeriesRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	base, err := req.toBooking()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	until, err := parseDate(req.RepeatUntil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repeat_until format; expected YYYY-MM-DD")
		return
	}

	result, err := s.svc.CreateRecurringSeries(r.Context(), *base, model.RepeatRule(req.Repeat), until)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleStatusChange moves a booking through its status state machine.
// POST /api/bookings/status
func (s *HTTPServer) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("status_change")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req StatusChangeRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BookingID <= 0 {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	b, err := s.svc.TransitionStatus(r.Context(), req.BookingID, model.BookingStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BookingResponse{Success: true, Booking: b})
}

// handleReschedule moves a booking to a new date and time.
// POST /api/bookings/reschedule
func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reschedule")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req RescheduleRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BookingID <= 0 {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected HH:MM")
		return
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time; expected HH:MM")
		return
	}

	b, conflicts, err := s.svc.Reschedule(r.Context(), req.BookingID, date, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(conflicts) > 0 {
		writeJSON(w, http.StatusConflict, BookingResponse{
			Success:   false,
			Conflicts: conflicts,
		})
		return
	}

	writeJSON(w, http.StatusOK, BookingResponse{Success: true, Booking: b})
}
