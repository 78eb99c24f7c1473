package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ssavin/vetsystem/internal/model"
)

// AddClient inserts a client and backfills the generated ID.
func (db *DB) AddClient(ctx context.Context, c *model.Client) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO clients (first_name, last_name, phone, email, telegram_chat_id)
		VALUES (?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Phone, c.Email, c.TelegramChatID)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetClient returns a client by ID.
func (db *DB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	var c model.Client
	err := db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, phone, email, telegram_chat_id, created_at
		FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email,
			&c.TelegramChatID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return &c, nil
}

// ChatIDForClient resolves a client's Telegram chat for reminder
// delivery. A client without a linked chat yields ErrNotFound.
func (db *DB) ChatIDForClient(ctx context.Context, clientID int64) (int64, error) {
	var chatID int64
	err := db.QueryRowContext(ctx,
		"SELECT telegram_chat_id FROM clients WHERE id = ?", clientID).
		Scan(&chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get chat for client %d: %w", clientID, err)
	}
	if chatID == 0 {
		return 0, fmt.Errorf("client %d has no linked telegram chat: %w", clientID, ErrNotFound)
	}
	return chatID, nil
}

// AddPatient inserts a patient and backfills the generated ID.
func (db *DB) AddPatient(ctx context.Context, p *model.Patient) error {
	var birth any
	if p.BirthDate != nil {
		birth = p.BirthDate.Format(dateLayout)
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO patients (client_id, name, species, breed, birth_date, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ClientID, p.Name, p.Species, p.Breed, birth, p.Notes)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetPatientsForClient returns all of a client's animals.
func (db *DB) GetPatientsForClient(ctx context.Context, clientID int64) ([]model.Patient, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, client_id, name, species, breed, birth_date, notes
		FROM patients WHERE client_id = ? ORDER BY name`, clientID)
	if err != nil {
		return nil, fmt.Errorf("get patients for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		var p model.Patient
		var birth sql.NullString
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Species,
			&p.Breed, &birth, &p.Notes); err != nil {
			return nil, err
		}
		if birth.Valid {
			d, err := time.Parse(dateLayout, birth.String)
			if err == nil {
				p.BirthDate = &d
			}
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
