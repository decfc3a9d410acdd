// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/model"
	"github.com/propcrest/bulletin-go/internal/store"
)

func newEventsHandler(t *testing.T) (*EventsHandler, *store.Queries) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "events_test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	queries := store.New(db)
	gate := bulletin.NewGate([]string{testAdminEmail})
	return NewEventsHandler(queries, gate, discardLogger()), queries
}

func eventsRequest(url string, sess model.AdminSession) *http.Request {
	req := httptest.NewRequest("GET", url, nil)
	return req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyAdminSession, sess))
}

func TestEvents_RequiresAdmin(t *testing.T) {
	h, _ := newEventsHandler(t)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest("GET", "/api/v1/admin/events", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	sess := model.AdminSession{IsAuthenticated: true, Email: "visitor@example.com"}
	h.List(rr, eventsRequest("/api/v1/admin/events", sess))
	if rr.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", rr.Code)
	}
}

func TestEvents_ListNewestFirst(t *testing.T) {
	h, queries := newEventsHandler(t)

	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		ev := model.Event{Level: model.EventLevelInfo, Category: model.EventCategorySystem, Message: msg}
		if err := queries.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}

	sess := model.AdminSession{IsAuthenticated: true, Email: testAdminEmail}
	rr := httptest.NewRecorder()
	h.List(rr, eventsRequest("/api/v1/admin/events?limit=2", sess))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Data []model.Event `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(resp.Data))
	}
	if resp.Data[0].Message != "third" || resp.Data[1].Message != "second" {
		t.Errorf("order = %q, %q, want newest first", resp.Data[0].Message, resp.Data[1].Message)
	}
}

func TestEvents_InvalidLimit(t *testing.T) {
	h, _ := newEventsHandler(t)

	sess := model.AdminSession{IsAuthenticated: true, Email: testAdminEmail}
	for _, limit := range []string{"0", "-3", "many"} {
		rr := httptest.NewRecorder()
		h.List(rr, eventsRequest("/api/v1/admin/events?limit="+limit, sess))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", limit, rr.Code)
		}
	}
}
