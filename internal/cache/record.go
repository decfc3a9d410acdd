// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/propcrest/bulletin-go/internal/model"
)

// recordKey is the single cache slot the bulletin record occupies.
const recordKey = "bulletin:record"

// RecordCache adapts a byte Cache to the typed record accessors the
// bulletin service uses. A decode failure counts as a miss so a
// corrupt entry can never poison startup.
type RecordCache struct {
	cache  Cache
	logger *slog.Logger
}

// NewRecordCache wraps cache. logger may not be nil.
func NewRecordCache(cache Cache, logger *slog.Logger) *RecordCache {
	return &RecordCache{cache: cache, logger: logger}
}

// GetRecord returns the cached record and whether one was found.
func (rc *RecordCache) GetRecord(ctx context.Context) (model.BulletinRecord, bool) {
	raw, err := rc.cache.Get(ctx, recordKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			rc.logger.Warn("record cache read failed", "error", err)
		}
		return model.BulletinRecord{}, false
	}

	var rec model.BulletinRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		rc.logger.Warn("discarding undecodable cached record", "error", err)
		_ = rc.cache.Delete(ctx, recordKey)
		return model.BulletinRecord{}, false
	}
	return rec, true
}

// SetRecord stores rec under the record slot with the default TTL.
func (rc *RecordCache) SetRecord(ctx context.Context, rec model.BulletinRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return rc.cache.Set(ctx, recordKey, raw, 0)
}
