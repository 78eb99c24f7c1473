package api

import (
	"net/http"

	"github.com/ssavin/vetsystem/internal/metrics"
	"github.com/ssavin/vetsystem/internal/schedule"
)

// AvailabilityRequest is the request body for POST /api/availability.
type AvailabilityRequest struct {
	DoctorID        int64  `json:"doctor_id"`
	Date            string `json:"date"`             // Format: YYYY-MM-DD
	DurationMinutes int    `json:"duration_minutes"` // Requested appointment length
}

// AvailabilityResponse is the response for POST /api/availability.
type AvailabilityResponse struct {
	DoctorID int64             `json:"doctor_id"`
	Date     string            `json:"date"`
	Slots    []schedule.Window `json:"slots"`
}

// handleAvailability returns a doctor's free slots on a date.
// POST /api/availability
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req AvailabilityRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DoctorID <= 0 {
		writeError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.svc.FreeSlots(r.Context(), req.DoctorID, date, req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if slots == nil {
		slots = []schedule.Window{}
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Slots:    slots,
	})
}
