// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// User is an authenticated account. Whether a user may edit the
// bulletin is not stored here; the admin gate derives it from the
// configured allow-list on every check.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdminSession is the ephemeral view of an account's auth state that
// the gate evaluates. TokenExpired is set when the session token is
// missing or no longer resolves to a user.
type AdminSession struct {
	IsAuthenticated bool
	Name            string
	Email           string
	TokenExpired    bool
}

// Event levels for the audit log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories for the audit log.
const (
	EventCategoryAuth     = "auth"
	EventCategoryBulletin = "bulletin"
	EventCategorySystem   = "system"
)

// Event is an audit log entry.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    *int64    `json:"user_id,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
