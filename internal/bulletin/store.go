// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bulletin holds the edit-mode state machine for the property
// bulletin: the two-copy published/draft store, the admin gate, the
// paginator, and the field-level editor operating on the draft.
package bulletin

import (
	"sync"

	"github.com/propcrest/bulletin-go/internal/model"
)

// Mode is the edit-surface state.
type Mode string

const (
	// ModeViewing shows the published record.
	ModeViewing Mode = "viewing"
	// ModeEditing shows and mutates the draft copy.
	ModeEditing Mode = "editing"
)

// DraftStore holds two value-typed copies of the bulletin record:
// published (last confirmed save or fetch) and draft (the working
// copy). All methods are atomic; no caller observes a partially
// applied transition. Records are passed by value in and out, so the
// slots can never alias caller-held state.
type DraftStore struct {
	mu        sync.Mutex
	published model.BulletinRecord
	draft     model.BulletinRecord
	mode      Mode
	editToken int64
}

// NewDraftStore returns a store in viewing mode with empty slots.
func NewDraftStore() *DraftStore {
	return &DraftStore{mode: ModeViewing}
}

// Load replaces both copies with the given record. Used after a
// successful remote fetch or save.
func (s *DraftStore) Load(rec model.BulletinRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = rec.Clone()
	s.draft = rec.Clone()
}

// EnterEdit clones the published record into the draft slot,
// discarding any stale prior draft, and switches to editing mode.
// It returns the edit-session token; a later Commit must present the
// same token or it is discarded as stale. The caller is responsible
// for checking the admin gate first.
func (s *DraftStore) EnterEdit() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.published.Clone()
	s.mode = ModeEditing
	s.editToken++
	return s.editToken
}

// CancelEdit returns to viewing mode. The draft is left in place but
// is no longer observable; the next EnterEdit re-clones from
// published, so unsaved changes are lost.
func (s *DraftStore) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeViewing
}

// Revoke forces the store back to viewing mode. Called when the
// editing session loses admin effectiveness or signs out; no session
// may remain in edit mode once its privileges are gone.
func (s *DraftStore) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeViewing
}

// Commit publishes a persisted record: published := rec, mode :=
// viewing. The token must match the edit session that produced rec;
// a stale token (the user has since cancelled and re-entered edit
// mode) is discarded so a slow save can never overwrite newer edits.
// Returns whether the commit was applied.
func (s *DraftStore) Commit(token int64, rec model.BulletinRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.editToken || s.mode != ModeEditing {
		return false
	}
	s.published = rec.Clone()
	s.draft = rec.Clone()
	s.mode = ModeViewing
	return true
}

// Mode returns the current edit-surface state.
func (s *DraftStore) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Token returns the current edit-session token.
func (s *DraftStore) Token() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editToken
}

// Published returns a copy of the published record.
func (s *DraftStore) Published() model.BulletinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published.Clone()
}

// Draft returns a copy of the draft record.
func (s *DraftStore) Draft() model.BulletinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// SnapshotForSave returns the draft for persistence only when the
// token still identifies the current edit session. A stale token, or a
// store that has already left editing mode, returns false and the
// caller must not persist. Commit re-checks the same condition after
// the write, so the token guards both sides of the persistence call.
func (s *DraftStore) SnapshotForSave(token int64) (model.BulletinRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.editToken || s.mode != ModeEditing {
		return model.BulletinRecord{}, false
	}
	return s.draft.Clone(), true
}

// Active selects the visible record: the draft only while editing AND
// the caller is admin-effective, otherwise the published copy. The
// selection is re-evaluated on every call, never cached, so a mid-edit
// loss of effectiveness immediately reverts the visible content even
// before the mode flag is forced back by SyncMode.
func (s *DraftStore) Active(effective bool) model.BulletinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeEditing && effective {
		return s.draft.Clone()
	}
	return s.published.Clone()
}

// SyncMode re-applies the privilege invariant after an auth-state
// change: if the store is editing and the caller is no longer
// effective, the mode is forced back to viewing. Returns true when a
// revocation happened.
func (s *DraftStore) SyncMode(effective bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeEditing && !effective {
		s.mode = ModeViewing
		return true
	}
	return false
}

// UpdateDraft applies a copy-on-write mutation to the draft while in
// editing mode. The function receives a copy and must return the new
// record value; the store never hands out its internal slot. Returns
// false when not editing.
func (s *DraftStore) UpdateDraft(fn func(model.BulletinRecord) model.BulletinRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return false
	}
	s.draft = fn(s.draft.Clone())
	return true
}
