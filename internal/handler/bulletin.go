// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/model"
	"github.com/propcrest/bulletin-go/internal/render"
	"github.com/propcrest/bulletin-go/internal/validator"
)

// BulletinHandler serves the public bulletin view and the admin edit
// operations.
type BulletinHandler struct {
	svc            *bulletin.Service
	defaultPerPage int
	logger         *slog.Logger
}

// NewBulletinHandler creates a BulletinHandler.
func NewBulletinHandler(svc *bulletin.Service, defaultPerPage int, logger *slog.Logger) *BulletinHandler {
	return &BulletinHandler{svc: svc, defaultPerPage: defaultPerPage, logger: logger}
}

// ListingView is a listing plus its mode-dependent display price and
// the sanitized HTML rendering of its markdown fields.
type ListingView struct {
	model.Listing
	DisplayPrice    string `json:"display_price"`
	DescriptionHTML string `json:"description_html,omitempty"`
	NoteHTML        string `json:"note_html,omitempty"`
}

// PageLink is one pagination control entry.
type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// BulletinView is the assembled page payload.
type BulletinView struct {
	HeaderTitle   string             `json:"header_title"`
	CompanyName   string             `json:"company_name"`
	CompanyType   string             `json:"company_type"`
	OfficeAddress string             `json:"office_address"`
	OfficeEmail   string             `json:"office_email"`
	OfficeWebsite string             `json:"office_website"`
	PhoneEntries  []model.PhoneEntry `json:"phone_entries"`
	Listings      []ListingView      `json:"listings"`
	Pages         []PageLink         `json:"pages"`
	Editing       bool               `json:"editing"`
}

// View serves GET /api/v1/bulletin. The page cursor is validated
// against the active record on every request; an out-of-range page
// renders page 1.
func (h *BulletinHandler) View(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, h.defaultPerPage)

	mode := r.URL.Query().Get("type")
	if !validator.In(mode, model.ListingModeSale, model.ListingModeShortlet) {
		mode = model.ListingModeSale
	}

	v := h.svc.View(sess, page, perPage)

	listings := make([]ListingView, 0, len(v.Listings))
	for _, l := range v.Listings {
		lv := ListingView{Listing: l, DisplayPrice: l.ActivePrice(mode)}
		if html, err := render.Markdown(l.Description); err == nil {
			lv.DescriptionHTML = html
		}
		if l.Note != "" {
			if html, err := render.Markdown(l.Note); err == nil {
				lv.NoteHTML = html
			}
		}
		listings = append(listings, lv)
	}

	links := make([]PageLink, 0, len(v.Pages))
	for _, p := range v.Pages {
		links = append(links, PageLink{Number: p.Number, Current: p.IsCurrent, Ellipsis: p.IsEllipsis})
	}

	WriteSuccess(w, BulletinView{
		HeaderTitle:   v.Record.HeaderTitle,
		CompanyName:   v.Record.CompanyName,
		CompanyType:   v.Record.CompanyType,
		OfficeAddress: v.Record.OfficeAddress,
		OfficeEmail:   v.Record.OfficeEmail,
		OfficeWebsite: v.Record.OfficeWebsite,
		PhoneEntries:  v.Record.PhoneEntries,
		Listings:      listings,
		Pages:         links,
		Editing:       v.Editing,
	}, &Meta{
		Total:   v.Window.TotalItems,
		Page:    v.Window.Page,
		PerPage: v.Window.PerPage,
		Pages:   v.Window.TotalPages,
	})
}

// EnterEdit serves POST /api/v1/admin/bulletin/edit.
func (h *BulletinHandler) EnterEdit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	token, err := h.svc.EnterEdit(sess)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"edit_token": token}, nil)
}

// Save serves POST /api/v1/admin/bulletin/save.
func (h *BulletinHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EditToken int64 `json:"edit_token"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	if err := h.svc.Save(r.Context(), sess, req.EditToken); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "saved"}, nil)
}

// Cancel serves POST /api/v1/admin/bulletin/cancel. Walking away from
// a draft needs no permission check.
func (h *BulletinHandler) Cancel(w http.ResponseWriter, _ *http.Request) {
	h.svc.Cancel()
	WriteSuccess(w, map[string]string{"status": "cancelled"}, nil)
}

// Reset serves POST /api/v1/admin/bulletin/reset. Without an explicit
// confirmation the request is rejected and nothing changes.
func (h *BulletinHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	if err := h.svc.Reset(r.Context(), sess, req.Confirm); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "reset"}, nil)
}

// UpdateField serves PATCH /api/v1/admin/bulletin/field for the
// record's scalar fields.
func (h *BulletinHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	if err := h.svc.Editor().UpdateField(sess, req.Field, req.Value); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "updated"}, nil)
}

// AddListing serves POST /api/v1/admin/bulletin/listings. The new
// listing is prepended, so the response directs the client to page 1
// where it is visible.
func (h *BulletinHandler) AddListing(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	added, err := h.svc.Editor().AddListing(sess)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, map[string]any{"listing": added, "page": 1})
}

// UpdateListing serves PATCH /api/v1/admin/bulletin/listings. The
// listing is addressed either by id or by page-local index.
func (h *BulletinHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id,omitempty"`
		Index *int   `json:"index,omitempty"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	editor := h.svc.Editor()

	switch {
	case req.ID != "":
		if err := editor.UpdateListingByID(sess, req.ID, req.Field, req.Value); err != nil {
			h.writeServiceError(w, err)
			return
		}
	case req.Index != nil:
		win := h.currentWindow(r, sess)
		abs, ok := win.AbsoluteIndex(*req.Index)
		if !ok {
			WriteBadRequest(w, "Listing index outside the current page", nil)
			return
		}
		if err := editor.UpdateListingField(sess, abs, req.Field, req.Value); err != nil {
			h.writeServiceError(w, err)
			return
		}
	default:
		WriteBadRequest(w, "Either id or index is required", nil)
		return
	}
	WriteSuccess(w, map[string]string{"status": "updated"}, nil)
}

// RemoveListing serves DELETE /api/v1/admin/bulletin/listings. The
// index is page-local; translation to the collection index uses the
// same window as the rendered page.
func (h *BulletinHandler) RemoveListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	win := h.currentWindow(r, sess)
	if err := h.svc.Editor().RemoveListing(sess, win, req.Index); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "removed"}, nil)
}

// AddPhoneEntry serves POST /api/v1/admin/bulletin/phones.
func (h *BulletinHandler) AddPhoneEntry(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	added, err := h.svc.Editor().AddPhoneEntry(sess)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, map[string]any{"phone_entry": added})
}

// UpdatePhoneEntry serves PATCH /api/v1/admin/bulletin/phones.
func (h *BulletinHandler) UpdatePhoneEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int    `json:"index"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	if err := h.svc.Editor().UpdatePhoneEntry(sess, req.Index, req.Field, req.Value); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "updated"}, nil)
}

// RemovePhoneEntry serves DELETE /api/v1/admin/bulletin/phones.
func (h *BulletinHandler) RemovePhoneEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	sess := middleware.GetAdminSession(r)
	if err := h.svc.Editor().RemovePhoneEntry(sess, req.Index); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"status": "removed"}, nil)
}

// currentWindow evaluates the pagination window the client is looking
// at, from its page and per_page query parameters.
func (h *BulletinHandler) currentWindow(r *http.Request, sess model.AdminSession) bulletin.Window {
	page := ParsePageParam(r)
	perPage := ParsePerPageParam(r, h.defaultPerPage)
	return h.svc.View(sess, page, perPage).Window
}

// writeServiceError maps domain errors onto API error responses.
func (h *BulletinHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bulletin.ErrMustAuthenticate):
		WriteUnauthorized(w, "Sign in to edit the bulletin")
	case errors.Is(err, bulletin.ErrForbidden), errors.Is(err, bulletin.ErrNotPermitted):
		WriteForbidden(w, "This account is not an administrator")
	case errors.Is(err, bulletin.ErrNotEditing):
		WriteConflict(w, "not_editing", "Enter edit mode first")
	case errors.Is(err, bulletin.ErrStaleEditSession):
		WriteConflict(w, "stale_edit_session", "This edit session has been superseded")
	case errors.Is(err, bulletin.ErrConfirmRequired):
		WriteBadRequest(w, "Reset requires explicit confirmation", nil)
	case errors.Is(err, bulletin.ErrUnknownField):
		WriteBadRequest(w, "Unknown field", nil)
	case errors.Is(err, bulletin.ErrIndexOutOfRange):
		WriteBadRequest(w, "Index out of range", nil)
	case errors.Is(err, bulletin.ErrUnknownID):
		WriteNotFound(w, "No listing with that id")
	default:
		h.logger.Error("bulletin operation failed", "error", err)
		WriteInternalError(w, "Something went wrong")
	}
}
