// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the events table for auditing.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/propcrest/bulletin-go/internal/model"
	"github.com/propcrest/bulletin-go/internal/store"
)

// EventHandler wraps another slog.Handler and additionally writes
// records at or above its threshold to the events table.
type EventHandler struct {
	inner   slog.Handler
	queries *store.Queries
	min     slog.Level
}

// NewEventHandler wraps inner, forwarding WARN and above to queries.
func NewEventHandler(inner slog.Handler, queries *store.Queries) *EventHandler {
	return &EventHandler{inner: inner, queries: queries, min: slog.LevelWarn}
}

func (h *EventHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.min {
		h.record(r)
	}
	return nil
}

func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, min: h.min}
}

func (h *EventHandler) WithGroup(name string) slog.Handler {
	return &EventHandler{inner: h.inner.WithGroup(name), queries: h.queries, min: h.min}
}

// record writes the event on a background context so a cancelled
// request cannot lose its own audit trail.
func (h *EventHandler) record(r slog.Record) {
	_ = h.queries.InsertEvent(context.Background(), model.Event{
		Level:     eventLevel(r.Level),
		Category:  eventCategory(r),
		Message:   r.Message,
		Metadata:  attrsJSON(r),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// eventCategory prefers an explicit "category" attribute and falls
// back to keyword inference from the message.
func eventCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "sign") || strings.Contains(msg, "login"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "bulletin") || strings.Contains(msg, "listing") || strings.Contains(msg, "record"):
		return model.EventCategoryBulletin
	default:
		return model.EventCategorySystem
	}
}

func attrsJSON(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return ""
	}
	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})
	raw, err := json.Marshal(attrs)
	if err != nil {
		return ""
	}
	return string(raw)
}

var _ slog.Handler = (*EventHandler)(nil)
