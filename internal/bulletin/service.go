// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package bulletin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propcrest/bulletin-go/internal/model"
)

// Repository is the persistence collaborator for the bulletin record.
type Repository interface {
	// LoadRecord fetches the canonical published record.
	LoadRecord(ctx context.Context) (model.BulletinRecord, error)
	// SaveRecord persists a record with the given intent tag
	// (model.PersistIntentSeedInit or model.PersistIntentUserSave).
	SaveRecord(ctx context.Context, rec model.BulletinRecord, intent string) error
}

// RecordCache is the last-known-good blob cache collaborator. Writes
// are best-effort; last-write-wins is acceptable.
type RecordCache interface {
	GetRecord(ctx context.Context) (model.BulletinRecord, bool)
	SetRecord(ctx context.Context, rec model.BulletinRecord) error
}

// Service errors surfaced to the command handlers.
var (
	// ErrMustAuthenticate corresponds to DecisionMustAuthenticate.
	ErrMustAuthenticate = errors.New("must authenticate")
	// ErrForbidden corresponds to DecisionForbidden.
	ErrForbidden = errors.New("forbidden")
	// ErrConfirmRequired is returned when a destructive command is
	// issued without explicit confirmation. Declining is a no-op, not
	// an error, so the caller maps this to a fresh confirmation
	// prompt, never a failure state.
	ErrConfirmRequired = errors.New("confirmation required")
	// ErrStaleEditSession is returned when a save completes for an
	// edit session that is no longer current; the result is discarded
	// rather than overwriting newer edits.
	ErrStaleEditSession = errors.New("stale edit session")
)

// accessErr maps a gate decision to a service error, nil on granted.
func accessErr(d Decision) error {
	switch d {
	case DecisionMustAuthenticate:
		return ErrMustAuthenticate
	case DecisionForbidden:
		return ErrForbidden
	default:
		return nil
	}
}

// Service composes the draft store, admin gate, paginator and editor
// into the bulletin command surface: view, enter-edit, save, cancel,
// reset, sign-out.
type Service struct {
	store  *DraftStore
	gate   *Gate
	editor *Editor
	repo   Repository
	cache  RecordCache
	seed   model.BulletinRecord
	logger *slog.Logger
}

// NewService creates the bulletin service. The seed record is what
// Reset restores.
func NewService(repo Repository, cache RecordCache, gate *Gate, seed model.BulletinRecord, logger *slog.Logger) *Service {
	store := NewDraftStore()
	return &Service{
		store:  store,
		gate:   gate,
		editor: NewEditor(store, gate),
		repo:   repo,
		cache:  cache,
		seed:   seed,
		logger: logger,
	}
}

// Store exposes the draft store for middleware mode syncing.
func (s *Service) Store() *DraftStore { return s.store }

// Editor exposes the gated field editor.
func (s *Service) Editor() *Editor { return s.editor }

// Gate exposes the admin gate.
func (s *Service) Gate() *Gate { return s.gate }

// Start primes the store at startup: the cached last-known-good record
// is loaded first so the page can render immediately, then the
// canonical record is fetched. A fetch failure is tolerated when the
// cache had a copy.
func (s *Service) Start(ctx context.Context) error {
	cached, hit := s.cache.GetRecord(ctx)
	if hit {
		s.store.Load(cached)
	}

	if err := s.Refresh(ctx); err != nil {
		if hit {
			s.logger.Warn("record fetch failed, serving cached copy", "error", err)
			return nil
		}
		return fmt.Errorf("loading bulletin record: %w", err)
	}
	return nil
}

// Refresh fetches the canonical record, replaces both store copies,
// and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) error {
	rec, err := s.repo.LoadRecord(ctx)
	if err != nil {
		return err
	}
	s.store.Load(rec)
	if err := s.cache.SetRecord(ctx, rec); err != nil {
		s.logger.Warn("record cache write failed", "error", err)
	}
	return nil
}

// View is the paginated read model of the active record.
type View struct {
	Record   model.BulletinRecord
	Listings []model.Listing
	Window   Window
	Pages    []PageItem
	Editing  bool
}

// View assembles the visible page: the active record (draft only for
// an effective admin in editing mode), windowed over its listing
// collection. The page cursor is re-validated on every call.
func (s *Service) View(sess model.AdminSession, page, perPage int) View {
	effective := s.gate.Effective(sess)
	s.store.SyncMode(effective)

	rec := s.store.Active(effective)
	w := Paginate(len(rec.Listings), page, perPage)
	return View{
		Record:   rec,
		Listings: rec.Listings[w.StartIndex:w.EndIndex],
		Window:   w,
		Pages:    w.PageItems(),
		Editing:  s.store.Mode() == ModeEditing && effective,
	}
}

// EnterEdit transitions viewing → editing for an effective admin,
// seeding the draft from the published record. Returns the
// edit-session token to present at save time.
func (s *Service) EnterEdit(sess model.AdminSession) (int64, error) {
	if err := accessErr(s.gate.CheckAccess(sess)); err != nil {
		return 0, err
	}
	token := s.store.EnterEdit()
	s.logger.Info("edit mode entered", "email", sess.Email, "token", token)
	return token, nil
}

// Save persists the draft and, on success, commits it as published.
// On persist failure the state machine stays in editing with the draft
// unchanged. A stale token rejects the save before anything is
// written, so a superseded session can never reach the repository.
func (s *Service) Save(ctx context.Context, sess model.AdminSession, token int64) error {
	if err := accessErr(s.gate.CheckAccess(sess)); err != nil {
		return err
	}
	if s.store.Mode() != ModeEditing {
		return ErrNotEditing
	}

	draft, ok := s.store.SnapshotForSave(token)
	if !ok {
		s.logger.Warn("rejecting stale save", "token", token)
		return ErrStaleEditSession
	}
	if err := s.repo.SaveRecord(ctx, draft, model.PersistIntentUserSave); err != nil {
		return fmt.Errorf("persisting draft: %w", err)
	}

	if !s.store.Commit(token, draft) {
		s.logger.Warn("discarding stale save result", "token", token)
		return ErrStaleEditSession
	}

	if err := s.cache.SetRecord(ctx, draft); err != nil {
		s.logger.Warn("record cache write failed", "error", err)
	}
	s.logger.Info("bulletin saved", "email", sess.Email, "listings", len(draft.Listings))
	return nil
}

// Cancel abandons the edit session. Always allowed while editing; no
// admin check is needed to walk away from a draft.
func (s *Service) Cancel() {
	s.store.CancelEdit()
}

// Reset persists the seed record and re-fetches the canonical copy.
// Destructive: requires explicit confirmation; declining is a no-op.
func (s *Service) Reset(ctx context.Context, sess model.AdminSession, confirmed bool) error {
	if err := accessErr(s.gate.CheckAccess(sess)); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmRequired
	}

	if err := s.repo.SaveRecord(ctx, s.seed, model.PersistIntentSeedInit); err != nil {
		return fmt.Errorf("persisting seed record: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("re-fetching after reset: %w", err)
	}
	s.store.Revoke()
	s.logger.Info("bulletin reset to seed data", "email", sess.Email)
	return nil
}

// SignOut forces the edit surface back to viewing. Session teardown
// itself is the transport layer's job; this only guarantees no
// anonymous session is ever left in edit mode.
func (s *Service) SignOut() {
	s.store.Revoke()
}
