// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/propcrest/bulletin-go/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Queries wraps a database handle with the statements the service
// runs. Methods are safe for concurrent use.
type Queries struct {
	db *sql.DB
}

// New returns a Queries bound to db.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// CreateUser inserts a new account and returns it with its assigned ID.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.PasswordHash, now, now)
	if err != nil {
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("reading user id: %w", err)
	}
	return model.User{
		ID:        id,
		Name:      arg.Name,
		Email:     arg.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetUserByID looks up an account by its primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("selecting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks up an account by its (lowercased) email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("selecting user: %w", err)
	}
	return u, nil
}

// UpdateUserPassword replaces an account's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// LoadRecord reads the bulletin record. Returns ErrNotFound when the
// table has never been seeded.
func (q *Queries) LoadRecord(ctx context.Context) (model.BulletinRecord, error) {
	var raw []byte
	err := q.db.QueryRowContext(ctx, `SELECT record FROM bulletin WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BulletinRecord{}, ErrNotFound
	}
	if err != nil {
		return model.BulletinRecord{}, fmt.Errorf("selecting bulletin record: %w", err)
	}

	var rec model.BulletinRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.BulletinRecord{}, fmt.Errorf("decoding bulletin record: %w", err)
	}
	return rec, nil
}

// SaveRecord replaces the bulletin record wholesale, tagging the row
// with the intent behind the write.
func (q *Queries) SaveRecord(ctx context.Context, rec model.BulletinRecord, intent string) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding bulletin record: %w", err)
	}

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO bulletin (id, record, intent, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record,
		                               intent = excluded.intent,
		                               updated_at = excluded.updated_at`,
		raw, intent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting bulletin record: %w", err)
	}
	return nil
}

// InsertEvent appends an audit log entry.
func (q *Queries) InsertEvent(ctx context.Context, ev model.Event) error {
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Level, ev.Category, ev.Message, ev.UserID, ev.Metadata, created)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// ListRecentEvents returns up to limit events, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Level, &ev.Category, &ev.Message, &ev.UserID, &ev.Metadata, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PruneEvents deletes events older than cutoff and reports how many
// rows were removed.
func (q *Queries) PruneEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return res.RowsAffected()
}
