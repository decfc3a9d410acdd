// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/model"
)

const testAdminEmail = "admin@propcrest.ng"

type memRepo struct {
	record model.BulletinRecord
	saves  int
	intent string
}

func (m *memRepo) LoadRecord(_ context.Context) (model.BulletinRecord, error) {
	return m.record.Clone(), nil
}

func (m *memRepo) SaveRecord(_ context.Context, rec model.BulletinRecord, intent string) error {
	m.record = rec.Clone()
	m.saves++
	m.intent = intent
	return nil
}

type noopCache struct{}

func (noopCache) GetRecord(_ context.Context) (model.BulletinRecord, bool) {
	return model.BulletinRecord{}, false
}

func (noopCache) SetRecord(_ context.Context, _ model.BulletinRecord) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedListings(n int) model.BulletinRecord {
	rec := model.BulletinRecord{
		HeaderTitle: "ACME PROPERTIES",
		CompanyName: "Acme Properties Ltd",
	}
	for i := 0; i < n; i++ {
		rec.Listings = append(rec.Listings, model.Listing{
			ID:          fmt.Sprintf("l%02d", i),
			Title:       fmt.Sprintf("Listing %d", i),
			Description: "3 bedroom flat",
			Location:    "Lekki Phase 1",
			Price:       "₦120,000,000",
			Rent:        "₦150k/night",
		})
	}
	return rec
}

func newTestHandler(t *testing.T, rec model.BulletinRecord) (*BulletinHandler, *memRepo) {
	t.Helper()
	repo := &memRepo{record: rec.Clone()}
	gate := bulletin.NewGate([]string{testAdminEmail})
	svc := bulletin.NewService(repo, noopCache{}, gate, rec.Clone(), discardLogger())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return NewBulletinHandler(svc, 5, discardLogger()), repo
}

func adminRequest(method, url string, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, url, nil)
	} else {
		r = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	sess := model.AdminSession{IsAuthenticated: true, Email: testAdminEmail}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyAdminSession, sess))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return resp
}

func enterEdit(t *testing.T, h *BulletinHandler) int64 {
	t.Helper()
	rr := httptest.NewRecorder()
	h.EnterEdit(rr, adminRequest("POST", "/api/v1/admin/bulletin/edit", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("EnterEdit status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			EditToken int64 `json:"edit_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding edit token: %v", err)
	}
	return resp.Data.EditToken
}

func TestBulletinView_Anonymous(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(12))

	rr := httptest.NewRecorder()
	h.View(rr, httptest.NewRequest("GET", "/api/v1/bulletin?page=2", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Data BulletinView `json:"data"`
		Meta Meta         `json:"meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if resp.Meta.Total != 12 || resp.Meta.Page != 2 || resp.Meta.PerPage != 5 || resp.Meta.Pages != 3 {
		t.Errorf("meta = %+v, want total 12, page 2, per_page 5, pages 3", resp.Meta)
	}
	if len(resp.Data.Listings) != 5 {
		t.Fatalf("got %d listings, want 5", len(resp.Data.Listings))
	}
	if resp.Data.Listings[0].ID != "l05" {
		t.Errorf("first listing on page 2 = %q, want l05", resp.Data.Listings[0].ID)
	}
	if resp.Data.Editing {
		t.Error("anonymous view reports editing")
	}
	if resp.Data.Listings[0].DescriptionHTML == "" {
		t.Error("description HTML not rendered")
	}
}

func TestBulletinView_OutOfRangePageRendersFirst(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(6))

	rr := httptest.NewRecorder()
	h.View(rr, httptest.NewRequest("GET", "/api/v1/bulletin?page=4", nil))

	var resp struct {
		Meta Meta `json:"meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Meta.Page != 1 {
		t.Errorf("out-of-range page rendered page %d, want 1", resp.Meta.Page)
	}
}

func TestBulletinView_ShortletModePrice(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))

	rr := httptest.NewRecorder()
	h.View(rr, httptest.NewRequest("GET", "/api/v1/bulletin?type=shortlet", nil))

	var resp struct {
		Data BulletinView `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got := resp.Data.Listings[0].DisplayPrice; got != "₦150k/night" {
		t.Errorf("shortlet display price = %q, want rent", got)
	}
}

func TestEnterEdit_Permissions(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))

	tests := []struct {
		name       string
		sess       model.AdminSession
		wantStatus int
		wantCode   string
	}{
		{"anonymous", model.AdminSession{}, http.StatusUnauthorized, "unauthorized"},
		{"expired", model.AdminSession{IsAuthenticated: true, Email: testAdminEmail, TokenExpired: true}, http.StatusUnauthorized, "unauthorized"},
		{"not allow-listed", model.AdminSession{IsAuthenticated: true, Email: "guest@example.com"}, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/admin/bulletin/edit", nil)
			r = r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyAdminSession, tt.sess))
			rr := httptest.NewRecorder()
			h.EnterEdit(rr, r)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if resp := decodeError(t, rr); resp.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestEditSaveRoundtrip(t *testing.T) {
	h, repo := newTestHandler(t, seedListings(2))
	token := enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateField(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/field",
		`{"field":"header_title","value":"PROPCREST LISTINGS"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateField status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Save(rr, adminRequest("POST", "/api/v1/admin/bulletin/save",
		fmt.Sprintf(`{"edit_token":%d}`, token)))
	if rr.Code != http.StatusOK {
		t.Fatalf("Save status = %d, body %s", rr.Code, rr.Body.String())
	}

	if repo.saves != 1 || repo.intent != model.PersistIntentUserSave {
		t.Errorf("saves = %d intent = %q, want 1 save with user-save intent", repo.saves, repo.intent)
	}
	if repo.record.HeaderTitle != "PROPCREST LISTINGS" {
		t.Errorf("persisted title = %q", repo.record.HeaderTitle)
	}
}

func TestVisitorViewRevokesEditing(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))
	token := enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateField(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/field",
		`{"field":"header_title","value":"DRAFT ONLY"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateField status = %d", rr.Code)
	}

	// A visitor view never surfaces the draft, and the effectiveness
	// loss it observes tears the edit session down.
	rr = httptest.NewRecorder()
	h.View(rr, httptest.NewRequest("GET", "/api/v1/bulletin", nil))
	var visitor struct {
		Data BulletinView `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&visitor); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if visitor.Data.HeaderTitle != "ACME PROPERTIES" {
		t.Errorf("visitor sees draft title %q", visitor.Data.HeaderTitle)
	}

	rr = httptest.NewRecorder()
	h.Save(rr, adminRequest("POST", "/api/v1/admin/bulletin/save",
		fmt.Sprintf(`{"edit_token":%d}`, token)))
	if rr.Code != http.StatusConflict {
		t.Errorf("save after revocation status = %d, want 409", rr.Code)
	}
}

func TestSave_StaleToken(t *testing.T) {
	h, repo := newTestHandler(t, seedListings(2))

	stale := enterEdit(t, h)
	// A second edit session supersedes the first.
	fresh := enterEdit(t, h)
	if fresh == stale {
		t.Fatalf("second edit session reused token %d", stale)
	}

	rr := httptest.NewRecorder()
	h.Save(rr, adminRequest("POST", "/api/v1/admin/bulletin/save",
		fmt.Sprintf(`{"edit_token":%d}`, stale)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "stale_edit_session" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
	if repo.saves != 0 {
		t.Errorf("stale save persisted %d times", repo.saves)
	}
}

func TestUpdateField_OutsideEditing(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))

	rr := httptest.NewRecorder()
	h.UpdateField(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/field",
		`{"field":"header_title","value":"X"}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "not_editing" {
		t.Errorf("error code = %q, want not_editing", resp.Error.Code)
	}
}

func TestUpdateField_UnknownField(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateField(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/field",
		`{"field":"bogus","value":"X"}`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestAddListing_DirectsToFirstPage(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(7))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.AddListing(rr, adminRequest("POST", "/api/v1/admin/bulletin/listings", ""))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			Listing model.Listing `json:"listing"`
			Page    int           `json:"page"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Data.Page != 1 {
		t.Errorf("page = %d, want 1", resp.Data.Page)
	}
	if resp.Data.Listing.Title != "New Property Title" {
		t.Errorf("placeholder title = %q", resp.Data.Listing.Title)
	}

	// The new listing heads the admin's first page.
	rr = httptest.NewRecorder()
	h.View(rr, adminRequest("GET", "/api/v1/bulletin", ""))
	var view struct {
		Data BulletinView `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if view.Data.Listings[0].ID != resp.Data.Listing.ID {
		t.Errorf("first listing = %q, want the new listing %q", view.Data.Listings[0].ID, resp.Data.Listing.ID)
	}
}

func TestUpdateListing_ByPageLocalIndex(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(12))
	enterEdit(t, h)

	// Local index 1 on page 2 is absolute index 6, listing l06.
	rr := httptest.NewRecorder()
	h.UpdateListing(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/listings?page=2",
		`{"index":1,"field":"price","value":"₦95,000,000"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.View(rr, adminRequest("GET", "/api/v1/bulletin?page=2", ""))
	var view struct {
		Data BulletinView `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got := view.Data.Listings[1].Price; got != "₦95,000,000" {
		t.Errorf("listing price = %q after index update", got)
	}
	if view.Data.Listings[0].Price == "₦95,000,000" {
		t.Error("neighbour listing was modified")
	}
}

func TestUpdateListing_ByID(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(3))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateListing(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/listings",
		`{"id":"l02","field":"location","value":"Victoria Island"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.UpdateListing(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/listings",
		`{"id":"nope","field":"location","value":"X"}`))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rr.Code)
	}
}

func TestUpdateListing_MissingAddress(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(3))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateListing(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/listings",
		`{"field":"location","value":"X"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRemoveListing_OutsideWindow(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(12))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.RemoveListing(rr, adminRequest("DELETE", "/api/v1/admin/bulletin/listings?page=3",
		`{"index":5}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for index past the final page's items", rr.Code)
	}
}

func TestRemoveListing_FromFinalPage(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(12))
	enterEdit(t, h)

	// Local index 0 on page 3 is absolute index 10, listing l10.
	rr := httptest.NewRecorder()
	h.RemoveListing(rr, adminRequest("DELETE", "/api/v1/admin/bulletin/listings?page=3",
		`{"index":0}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.View(rr, adminRequest("GET", "/api/v1/bulletin?page=3", ""))
	var view struct {
		Data BulletinView `json:"data"`
		Meta Meta         `json:"meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if view.Meta.Total != 11 {
		t.Errorf("total = %d, want 11", view.Meta.Total)
	}
	for _, l := range view.Data.Listings {
		if l.ID == "l10" {
			t.Error("removed listing still present")
		}
	}
}

func TestReset_RequiresConfirmation(t *testing.T) {
	h, repo := newTestHandler(t, seedListings(2))

	rr := httptest.NewRecorder()
	h.Reset(rr, adminRequest("POST", "/api/v1/admin/bulletin/reset", `{"confirm":false}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed reset status = %d, want 400", rr.Code)
	}
	if repo.saves != 0 {
		t.Errorf("unconfirmed reset persisted %d times", repo.saves)
	}

	rr = httptest.NewRecorder()
	h.Reset(rr, adminRequest("POST", "/api/v1/admin/bulletin/reset", `{"confirm":true}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("confirmed reset status = %d, body %s", rr.Code, rr.Body.String())
	}
	if repo.intent != model.PersistIntentSeedInit {
		t.Errorf("reset intent = %q, want seed-init", repo.intent)
	}
}

func TestCancel_DiscardsDraft(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(2))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.UpdateField(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/field",
		`{"field":"company_name","value":"Changed"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateField status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Cancel(rr, adminRequest("POST", "/api/v1/admin/bulletin/cancel", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("Cancel status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.View(rr, adminRequest("GET", "/api/v1/bulletin", ""))
	var view struct {
		Data BulletinView `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if view.Data.CompanyName != "Acme Properties Ltd" {
		t.Errorf("company name = %q after cancel", view.Data.CompanyName)
	}
	if view.Data.Editing {
		t.Error("still editing after cancel")
	}
}

func TestPhoneEntryLifecycle(t *testing.T) {
	h, _ := newTestHandler(t, seedListings(1))
	enterEdit(t, h)

	rr := httptest.NewRecorder()
	h.AddPhoneEntry(rr, adminRequest("POST", "/api/v1/admin/bulletin/phones", ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("AddPhoneEntry status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.UpdatePhoneEntry(rr, adminRequest("PATCH", "/api/v1/admin/bulletin/phones",
		`{"index":0,"field":"phone_number","value":"+234 801 234 5678"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("UpdatePhoneEntry status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.RemovePhoneEntry(rr, adminRequest("DELETE", "/api/v1/admin/bulletin/phones",
		`{"index":0}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("RemovePhoneEntry status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.RemovePhoneEntry(rr, adminRequest("DELETE", "/api/v1/admin/bulletin/phones",
		`{"index":5}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("out-of-range phone removal status = %d, want 400", rr.Code)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"confirm":true,"extra":1}`))
	var dst struct {
		Confirm bool `json:"confirm"`
	}
	if err := DecodeJSON(r, &dst); err == nil {
		t.Error("DecodeJSON accepted unknown field")
	}
}
