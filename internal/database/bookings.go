package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ssavin/vetsystem/internal/model"
	"github.com/ssavin/vetsystem/internal/schedule"
)

const appointmentColumns = `id, client_id, patient_id, doctor_id, assistant_id, room_id,
	date, start_time, end_time, duration, type, status,
	repeat_pattern, repeat_until, series_id, reason, notes, equipment_needed,
	reminder_sent, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var assistantID, roomID sql.NullInt64
	var date, start, end string
	var repeatUntil, seriesID sql.NullString

	err := row.Scan(
		&b.ID, &b.ClientID, &b.PatientID, &b.DoctorID, &assistantID, &roomID,
		&date, &start, &end, &b.Duration, &b.Type, &b.Status,
		&b.Repeat, &repeatUntil, &seriesID, &b.Reason, &b.Notes, &b.Equipment,
		&b.ReminderSent, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if assistantID.Valid {
		b.AssistantID = &assistantID.Int64
	}
	if roomID.Valid {
		b.RoomID = &roomID.Int64
	}
	if b.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("booking %d date: %w", b.ID, err)
	}
	if b.Start, err = model.ParseClock(start); err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if b.End, err = model.ParseClock(end); err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if repeatUntil.Valid {
		until, err := time.Parse(dateLayout, repeatUntil.String)
		if err != nil {
			return nil, fmt.Errorf("booking %d repeat_until: %w", b.ID, err)
		}
		b.RepeatUntil = &until
	}
	if seriesID.Valid {
		sid, err := uuid.Parse(seriesID.String)
		if err != nil {
			return nil, fmt.Errorf("booking %d series_id: %w", b.ID, err)
		}
		b.SeriesID = &sid
	}
	return &b, nil
}

// GetBooking returns one appointment by id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

// GetBookingsForDoctorOnDate returns all of a doctor's appointments on a
// date, cancelled ones included; the engine filters by status itself.
func (db *DB) GetBookingsForDoctorOnDate(ctx context.Context, doctorID int64, date time.Time) ([]model.Booking, error) {
	return db.queryBookings(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE doctor_id = ? AND date = ? ORDER BY start_time",
		doctorID, model.DateOnly(date).Format(dateLayout))
}

// GetBookingsForRoomOnDate returns all appointments in a room on a date.
func (db *DB) GetBookingsForRoomOnDate(ctx context.Context, roomID int64, date time.Time) ([]model.Booking, error) {
	return db.queryBookings(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE room_id = ? AND date = ? ORDER BY start_time",
		roomID, model.DateOnly(date).Format(dateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CreateBookingWithLock inserts a booking after re-running the conflict
// check inside the same transaction, closing the race between the
// caller's availability check and the commit. Returns ErrBookingConflict
// if the slot was taken in between.
func (db *DB) CreateBookingWithLock(ctx context.Context, b *model.Booking) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	dateStr := model.DateOnly(b.Date).Format(dateLayout)

	existing, err := db.bookingsForCheckTx(ctx, tx, b, dateStr)
	if err != nil {
		return 0, err
	}

	conflict, err := schedule.HasConflict(b, existing)
	if err != nil {
		return 0, err
	}
	if conflict {
		return 0, ErrBookingConflict
	}

	var assistantID, roomID, repeatUntil, seriesID any
	if b.AssistantID != nil {
		assistantID = *b.AssistantID
	}
	if b.RoomID != nil {
		roomID = *b.RoomID
	}
	if b.RepeatUntil != nil {
		repeatUntil = model.DateOnly(*b.RepeatUntil).Format(dateLayout)
	}
	if b.SeriesID != nil {
		seriesID = b.SeriesID.String()
	}

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (
			client_id, patient_id, doctor_id, assistant_id, room_id,
			date, start_time, end_time, duration, type, status,
			repeat_pattern, repeat_until, series_id, reason, notes, equipment_needed,
			reminder_sent, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 1)`,
		b.ClientID, b.PatientID, b.DoctorID, assistantID, roomID,
		dateStr, b.Start.Clock(), b.End.Clock(), b.Duration, b.Type, b.Status,
		b.Repeat, repeatUntil, seriesID, b.Reason, b.Notes, b.Equipment,
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1
	return id, nil
}

// bookingsForCheckTx fetches, inside the transaction, the bookings the
// candidate must be checked against: the doctor's day plus the room's day
// when a room is assigned.
func (db *DB) bookingsForCheckTx(ctx context.Context, tx *sql.Tx, b *model.Booking, dateStr string) ([]model.Booking, error) {
	query := "SELECT " + appointmentColumns + " FROM appointments WHERE doctor_id = ? AND date = ?"
	args := []any{b.DoctorID, dateStr}
	if b.RoomID != nil {
		query = "SELECT " + appointmentColumns + ` FROM appointments
			WHERE date = ? AND (doctor_id = ? OR room_id = ?)`
		args = []any{dateStr, b.DoctorID, *b.RoomID}
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []model.Booking
	for rows.Next() {
		eb, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		existing = append(existing, *eb)
	}
	return existing, rows.Err()
}

// UpdateBookingStatusWithVersion applies a status change with optimistic
// locking. The caller is expected to have validated the transition.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status model.BookingStatus) error {
	res, err := db.ExecContext(ctx, `
		UPDATE appointments
		SET status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		status, time.Now(), id, version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// RescheduleBooking moves a booking to a new date and time with
// optimistic locking. Status checks belong to the service layer.
func (db *DB) RescheduleBooking(ctx context.Context, id, version int64, date time.Time, start, end model.TimeOfDay) error {
	res, err := db.ExecContext(ctx, `
		UPDATE appointments
		SET date = ?, start_time = ?, end_time = ?, duration = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		model.DateOnly(date).Format(dateLayout), start.Clock(), end.Clock(), int(end-start),
		time.Now(), id, version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// GetReminderCandidates returns planned or confirmed bookings starting
// within the lead window that have not had a reminder sent.
func (db *DB) GetReminderCandidates(ctx context.Context, now time.Time, lead time.Duration) ([]model.Booking, error) {
	from := model.DateOnly(now).Format(dateLayout)
	to := model.DateOnly(now.Add(lead)).Format(dateLayout)
	return db.queryBookings(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE reminder_sent = 0
		AND status IN ('planned', 'confirmed')
		AND date >= ? AND date <= ?
		ORDER BY date, start_time`,
		from, to)
}

// MarkReminderSent flags a booking's reminder as delivered.
func (db *DB) MarkReminderSent(ctx context.Context, bookingID int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE appointments SET reminder_sent = 1, updated_at = ? WHERE id = ?",
		time.Now(), bookingID)
	return err
}
