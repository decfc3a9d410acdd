// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts admin-entered markdown into sanitized HTML
// for the public bulletin page.
package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Listing descriptions and notes are user-generated content; UGCPolicy
// strips scripts and event handlers while keeping basic formatting.
var sanitizer = bluemonday.UGCPolicy()

// Markdown renders source to sanitized HTML.
func Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}

// SanitizeHTML strips unsafe markup from already-rendered HTML.
func SanitizeHTML(html string) string {
	return sanitizer.Sanitize(html)
}
