// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: refreshing the
// published record from the canonical store and pruning old event
// log entries.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/model"
	"github.com/propcrest/bulletin-go/internal/store"
)

// Scheduler handles periodic background jobs.
type Scheduler struct {
	svc            *bulletin.Service
	queries        *store.Queries
	cron           *cron.Cron
	logger         *slog.Logger
	eventRetention time.Duration
}

// New creates a new scheduler instance. retentionDays controls how long
// event log entries are kept before the nightly prune removes them.
func New(svc *bulletin.Service, queries *store.Queries, retentionDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		svc:            svc,
		queries:        queries,
		cron:           cron.New(),
		logger:         logger,
		eventRetention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start registers the jobs and begins the scheduler.
func (s *Scheduler) Start() error {
	// Refresh the published record hourly so a multi-instance
	// deployment converges on the canonical store.
	if _, err := s.cron.AddFunc("@hourly", func() {
		if err := s.refreshRecord(); err != nil {
			s.logger.Error("failed to refresh bulletin record", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering refresh job: %w", err)
	}

	// Prune old events nightly at 03:00.
	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering prune job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// refreshRecord reloads the published record from the canonical store.
// Skipped while an edit session is active so a pending draft is never
// clobbered by a background reload.
func (s *Scheduler) refreshRecord() error {
	if s.svc.Store().Mode() == bulletin.ModeEditing {
		s.logger.Debug("skipping record refresh during active edit session")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.svc.Refresh(ctx)
}

// pruneEvents removes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	if s.eventRetention <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.eventRetention)
	removed, err := s.queries.PruneEvents(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info("pruned old events", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
		err := s.queries.InsertEvent(ctx, model.Event{
			Level:    "info",
			Category: "system",
			Message:  fmt.Sprintf("Pruned %d event log entries", removed),
		})
		if err != nil {
			s.logger.Warn("failed to log prune event", "error", err)
		}
	}

	return nil
}
