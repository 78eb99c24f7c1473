package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ssavin/vetsystem/internal/model"
)

const dateLayout = "2006-01-02"

// GetWorkingIntervals returns all interval rows for a doctor on a weekday
// (0 = Monday), split shifts included.
func (db *DB) GetWorkingIntervals(ctx context.Context, doctorID int64, dayOfWeek int) ([]model.WorkingInterval, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_working, room_id
		FROM working_intervals
		WHERE doctor_id = ? AND day_of_week = ?
		ORDER BY start_time`,
		doctorID, dayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []model.WorkingInterval
	for rows.Next() {
		var iv model.WorkingInterval
		var start, end string
		var roomID sql.NullInt64
		if err := rows.Scan(&iv.ID, &iv.DoctorID, &iv.DayOfWeek, &start, &end, &iv.IsWorking, &roomID); err != nil {
			return nil, err
		}
		if iv.Start, err = model.ParseClock(start); err != nil {
			return nil, fmt.Errorf("interval %d: %w", iv.ID, err)
		}
		if iv.End, err = model.ParseClock(end); err != nil {
			return nil, fmt.Errorf("interval %d: %w", iv.ID, err)
		}
		if roomID.Valid {
			iv.RoomID = &roomID.Int64
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// SetWorkingInterval creates or replaces one weekly availability row.
func (db *DB) SetWorkingInterval(ctx context.Context, iv *model.WorkingInterval) (int64, error) {
	var roomID any
	if iv.RoomID != nil {
		roomID = *iv.RoomID
	}
	if iv.ID != 0 {
		_, err := db.ExecContext(ctx, `
			UPDATE working_intervals
			SET day_of_week = ?, start_time = ?, end_time = ?, is_working = ?, room_id = ?
			WHERE id = ?`,
			iv.DayOfWeek, iv.Start.Clock(), iv.End.Clock(), iv.IsWorking, roomID, iv.ID,
		)
		return iv.ID, err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO working_intervals (doctor_id, day_of_week, start_time, end_time, is_working, room_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		iv.DoctorID, iv.DayOfWeek, iv.Start.Clock(), iv.End.Clock(), iv.IsWorking, roomID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTimeOff returns the approved time-off covering the date, or nil.
func (db *DB) GetTimeOff(ctx context.Context, staffID int64, date time.Time) (*model.TimeOff, error) {
	d := model.DateOnly(date).Format(dateLayout)
	var t model.TimeOff
	var start, end string
	err := db.QueryRowContext(ctx, `
		SELECT id, staff_id, start_date, end_date, reason, is_approved
		FROM time_offs
		WHERE staff_id = ? AND is_approved = 1 AND start_date <= ? AND end_date >= ?
		LIMIT 1`,
		staffID, d, d,
	).Scan(&t.ID, &t.StaffID, &start, &end, &t.Reason, &t.IsApproved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.StartDate, err = time.Parse(dateLayout, start); err != nil {
		return nil, fmt.Errorf("time off %d: %w", t.ID, err)
	}
	if t.EndDate, err = time.Parse(dateLayout, end); err != nil {
		return nil, fmt.Errorf("time off %d: %w", t.ID, err)
	}
	return &t, nil
}

// AddTimeOff stores an exception period for a staff member.
func (db *DB) AddTimeOff(ctx context.Context, t *model.TimeOff) (int64, error) {
	if t.EndDate.Before(t.StartDate) {
		return 0, fmt.Errorf("time off end date precedes start date")
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO time_offs (staff_id, start_date, end_date, reason, is_approved)
		VALUES (?, ?, ?, ?, ?)`,
		t.StaffID,
		model.DateOnly(t.StartDate).Format(dateLayout),
		model.DateOnly(t.EndDate).Format(dateLayout),
		t.Reason, t.IsApproved,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddRoom stores a room.
func (db *DB) AddRoom(ctx context.Context, r *model.Room) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO rooms (name, number, equipment, is_active)
		VALUES (?, ?, ?, ?)`,
		r.Name, r.Number, r.Equipment, r.IsActive,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListActiveRooms returns all bookable rooms.
func (db *DB) ListActiveRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, number, equipment, is_active FROM rooms WHERE is_active = 1 ORDER BY number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Number, &r.Equipment, &r.IsActive); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// AddStaff stores a staff member.
func (db *DB) AddStaff(ctx context.Context, s *model.Staff) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO staff (first_name, last_name, role, is_active)
		VALUES (?, ?, ?, ?)`,
		s.FirstName, s.LastName, s.Role, s.IsActive,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetStaff returns a staff member by id.
func (db *DB) GetStaff(ctx context.Context, id int64) (*model.Staff, error) {
	var s model.Staff
	err := db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, role, is_active FROM staff WHERE id = ?", id,
	).Scan(&s.ID, &s.FirstName, &s.LastName, &s.Role, &s.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
