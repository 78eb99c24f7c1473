package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle status of an appointment.
type BookingStatus string

const (
	StatusPlanned       BookingStatus = "planned"
	StatusConfirmed     BookingStatus = "confirmed"
	StatusClientWaiting BookingStatus = "client_waiting"
	StatusInProgress    BookingStatus = "in_progress"
	StatusCompleted     BookingStatus = "completed"
	StatusNoShow        BookingStatus = "no_show"
	StatusCancelled     BookingStatus = "cancelled"
)

// IsTerminal reports whether the status allows no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// BookingType is the kind of appointment.
type BookingType string

const (
	TypePrimary       BookingType = "primary"
	TypeRepeat        BookingType = "repeat"
	TypeConsultation  BookingType = "consultation"
	TypeProcedure     BookingType = "procedure"
	TypeOperation     BookingType = "operation"
	TypeVaccination   BookingType = "vaccination"
	TypeDiagnostics   BookingType = "diagnostics"
	TypeTherapy       BookingType = "therapy"
	TypeGrooming      BookingType = "grooming"
	TypeSterilization BookingType = "sterilization"
	TypeDentistry     BookingType = "dentistry"
	TypeUltrasound    BookingType = "ultrasound"
	TypeXRay          BookingType = "x_ray"
)

// RepeatRule describes how an appointment recurs.
type RepeatRule string

const (
	RepeatNone    RepeatRule = "none"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
)

// Booking represents a single appointment record.
type Booking struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id"`
	PatientID   int64         `json:"patient_id"`
	DoctorID    int64         `json:"doctor_id"`
	AssistantID *int64        `json:"assistant_id,omitempty"`
	RoomID      *int64        `json:"room_id,omitempty"`
	Date        time.Time     `json:"date"` // calendar date, time part ignored
	Start       TimeOfDay     `json:"start_time"`
	End         TimeOfDay     `json:"end_time"`
	Duration    int           `json:"duration"` // minutes, equals End-Start
	Type        BookingType   `json:"type"`
	Status      BookingStatus `json:"status"`
	Repeat      RepeatRule    `json:"repeat_pattern"`
	RepeatUntil *time.Time    `json:"repeat_until,omitempty"`
	SeriesID    *uuid.UUID    `json:"series_id,omitempty"` // shared by all instances of one recurring series
	Reason      string        `json:"reason"`
	Notes       string        `json:"notes"`
	Equipment   string        `json:"equipment_needed,omitempty"`

	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int64     `json:"version"`
}

// Overlaps reports whether two bookings occupy intersecting time on the
// same date, using half-open [start, end) semantics: a booking ending
// exactly when another starts is not an overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	if !SameDate(b.Date, other.Date) {
		return false
	}
	return b.Start < other.End && other.Start < b.End
}

// ValidInterval reports whether the booking's time range is well-formed.
func (b *Booking) ValidInterval() bool {
	return b.Start < b.End
}

// StartAt combines the booking's date and start time into a timestamp.
func (b *Booking) StartAt() time.Time {
	d := DateOnly(b.Date)
	return d.Add(time.Duration(b.Start) * time.Minute)
}
