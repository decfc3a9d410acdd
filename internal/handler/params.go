// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/propcrest/bulletin-go/internal/config"
	"github.com/propcrest/bulletin-go/internal/validator"
)

// ParsePageParam reads the page query parameter. Anything absent or
// unparseable becomes page 1; range validation happens when the page
// window is evaluated against the collection.
func ParsePageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParsePerPageParam reads the per_page query parameter, restricted to
// the configured options. Invalid values fall back to fallback.
func ParsePerPageParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("per_page")
	if raw == "" {
		return fallback
	}
	perPage, err := strconv.Atoi(raw)
	if err != nil || !validator.In(perPage, config.PerPageOptions...) {
		return fallback
	}
	return perPage
}
