// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imagehost uploads listing photos to an external image host
// using an unsigned upload preset, validating the file before any
// bytes leave the server.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// MaxUploadBytes caps listing photos at 5 MiB.
const MaxUploadBytes = 5 << 20

var (
	ErrNotConfigured = errors.New("image uploads are not configured")
	ErrTooLarge      = fmt.Errorf("image exceeds %d bytes", MaxUploadBytes)
	ErrNotAnImage    = errors.New("file is not a supported image")
)

// UploadResult is the hosted image reference returned to the editor.
type UploadResult struct {
	URL    string `json:"secure_url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// Client talks to the upload endpoint. A zero URL disables uploads.
type Client struct {
	uploadURL string
	preset    string
	http      *http.Client
}

// New returns a Client for uploadURL with the given unsigned preset.
func New(uploadURL, preset string) *Client {
	return &Client{
		uploadURL: uploadURL,
		preset:    preset,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an upload endpoint is configured.
func (c *Client) Enabled() bool {
	return c.uploadURL != ""
}

// Validate rejects data unless it is an image within the size limit
// that actually decodes. Detection inspects content, not the filename.
func Validate(data []byte) error {
	if len(data) > MaxUploadBytes {
		return ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return nil
}

// Upload validates data and posts it to the image host. The returned
// URL is what gets stored on the listing.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	if !c.Enabled() {
		return UploadResult{}, ErrNotConfigured
	}
	if err := Validate(data); err != nil {
		return UploadResult{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return UploadResult{}, fmt.Errorf("writing preset field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("posting image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return UploadResult{}, fmt.Errorf("image host returned %d: %s", resp.StatusCode, snippet)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.URL == "" {
		return UploadResult{}, errors.New("image host response missing secure_url")
	}
	return result, nil
}
