// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/store"
)

// Event listing bounds for the admin audit view.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventsHandler serves the audit log to administrators.
type EventsHandler struct {
	queries *store.Queries
	gate    *bulletin.Gate
	logger  *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(queries *store.Queries, gate *bulletin.Gate, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{queries: queries, gate: gate, logger: logger}
}

// List serves GET /api/v1/admin/events. Events are returned newest
// first; ?limit= caps the page, clamped to [1, 500].
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	switch h.gate.CheckAccess(sess) {
	case bulletin.DecisionGranted:
	case bulletin.DecisionMustAuthenticate:
		WriteUnauthorized(w, "Sign in to view the event log")
		return
	default:
		WriteForbidden(w, "This account is not an administrator")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("event listing failed", "error", err)
		WriteInternalError(w, "Could not load the event log")
		return
	}

	WriteSuccess(w, events, nil)
}
