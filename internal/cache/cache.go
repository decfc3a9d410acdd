// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the caching layer: an in-memory default, a
// Redis backend for multi-instance deployments, and the typed adapter
// the bulletin service reads through.
package cache

import (
	"context"
	"time"
)

// Cache is the byte-oriented store both backends implement. All
// implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss when absent or
	// expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero TTL means the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Has reports whether key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Clear removes every entry this cache owns.
	Clear(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
