// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/imagehost"
	"github.com/propcrest/bulletin-go/internal/middleware"
)

// UploadHandler forwards listing photos to the external image host.
type UploadHandler struct {
	svc      *bulletin.Service
	uploader *imagehost.Client
	logger   *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(svc *bulletin.Service, uploader *imagehost.Client, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{svc: svc, uploader: uploader, logger: logger}
}

// Upload serves POST /api/v1/admin/upload. The file is validated
// locally before any bytes reach the image host, and the resulting URL
// is returned for the client to set on a listing's image field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetAdminSession(r)
	switch h.svc.Gate().CheckAccess(sess) {
	case bulletin.DecisionGranted:
	case bulletin.DecisionMustAuthenticate:
		WriteUnauthorized(w, "Sign in to upload images")
		return
	default:
		WriteForbidden(w, "This account is not an administrator")
		return
	}

	if !h.uploader.Enabled() {
		WriteError(w, http.StatusServiceUnavailable, "uploads_disabled", "Image uploads are not configured", nil)
		return
	}

	// One byte over the limit aborts the read instead of buffering an
	// arbitrarily large body.
	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxUploadBytes+1)
	if err := r.ParseMultipartForm(imagehost.MaxUploadBytes); err != nil {
		WriteBadRequest(w, "Invalid multipart form or file too large", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteBadRequest(w, "Could not read uploaded file", nil)
		return
	}

	result, err := h.uploader.Upload(r.Context(), header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, imagehost.ErrTooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error(), nil)
		case errors.Is(err, imagehost.ErrNotAnImage):
			WriteError(w, http.StatusUnsupportedMediaType, "not_an_image", "Uploaded file is not a supported image", nil)
		default:
			h.logger.Error("image upload failed", "error", err, "filename", header.Filename)
			WriteError(w, http.StatusBadGateway, "upload_failed", "Image host rejected the upload", nil)
		}
		return
	}

	h.logger.Info("image uploaded", "category", "bulletin", "url", result.URL, "bytes", result.Bytes)
	WriteCreated(w, result)
}
