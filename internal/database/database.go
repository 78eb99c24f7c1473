// Package database is the SQLite persistence layer behind the scheduling
// engine's ports.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrBookingConflict is returned when the in-transaction re-check
	// finds a clash between check and commit.
	ErrBookingConflict = errors.New("booking conflicts with an existing appointment")

	// ErrVersionConflict is returned when an optimistic update lost the race.
	ErrVersionConflict = errors.New("booking was modified concurrently")

	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
)

// DB wraps sql.DB for the clinic schedule store.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS staff (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'doctor',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT DEFAULT '',
			email TEXT DEFAULT '',
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS patients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			species TEXT NOT NULL DEFAULT '',
			breed TEXT DEFAULT '',
			birth_date TEXT,
			notes TEXT DEFAULT '',
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,

		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			number TEXT NOT NULL,
			equipment TEXT DEFAULT '',
			is_active BOOLEAN DEFAULT 1
		)`,

		// Weekly recurring availability; several rows per (doctor, day)
		// mean split shifts.
		`CREATE TABLE IF NOT EXISTS working_intervals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doctor_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_working BOOLEAN DEFAULT 1,
			room_id INTEGER,
			FOREIGN KEY (doctor_id) REFERENCES staff(id),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,

		`CREATE TABLE IF NOT EXISTS time_offs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			staff_id INTEGER NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			reason TEXT DEFAULT '',
			is_approved BOOLEAN DEFAULT 0,
			FOREIGN KEY (staff_id) REFERENCES staff(id)
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			patient_id INTEGER NOT NULL,
			doctor_id INTEGER NOT NULL,
			assistant_id INTEGER,
			room_id INTEGER,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 30,
			type TEXT NOT NULL DEFAULT 'primary',
			status TEXT NOT NULL DEFAULT 'planned',
			repeat_pattern TEXT NOT NULL DEFAULT 'none',
			repeat_until TEXT,
			series_id TEXT,
			reason TEXT DEFAULT '',
			notes TEXT DEFAULT '',
			equipment_needed TEXT DEFAULT '',
			reminder_sent BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (doctor_id) REFERENCES staff(id),
			FOREIGN KEY (assistant_id) REFERENCES staff(id),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date ON appointments(doctor_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_room_date ON appointments(room_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_working_intervals_doctor ON working_intervals(doctor_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_time_offs_staff ON time_offs(staff_id, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_patients_client ON patients(client_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
