package model

import "time"

// WorkingInterval is a doctor's regular availability on one weekday.
// A doctor may have several rows per weekday (split shifts).
type WorkingInterval struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Monday ... 6 = Sunday
	Start     TimeOfDay `json:"start_time"`
	End       TimeOfDay `json:"end_time"`
	IsWorking bool      `json:"is_working"`
	RoomID    *int64    `json:"room_id,omitempty"`
}

// TimeOff is an approved or pending exception period for a staff member.
// The date range is inclusive on both ends.
type TimeOff struct {
	ID         int64     `json:"id"`
	StaffID    int64     `json:"staff_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Reason     string    `json:"reason"`
	IsApproved bool      `json:"is_approved"`
}

// Covers reports whether the time-off period includes the given date.
func (t *TimeOff) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(t.StartDate)) && !d.After(DateOnly(t.EndDate))
}

// Room is a physical location with a capacity of one booking per time window.
type Room struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	Equipment string `json:"equipment"`
	IsActive  bool   `json:"is_active"`
}

// Staff is a clinic employee (doctor, assistant, groomer).
type Staff struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

// FullName returns "Last First" for display and logs.
func (s *Staff) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	return s.LastName + " " + s.FirstName
}
