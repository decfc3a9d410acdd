// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propcrest/bulletin-go/internal/auth"
	"github.com/propcrest/bulletin-go/internal/model"
)

// Default admin credentials, replaced on first login in production.
const (
	DefaultAdminEmail    = "admin@propcrest.ng"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// SeedRecord is the bulletin content installed on first run and
// restored by the reset operation.
func SeedRecord() model.BulletinRecord {
	return model.BulletinRecord{
		HeaderTitle:   "PROPCREST PROPERTIES",
		CompanyName:   "Propcrest & Co.",
		CompanyType:   "Chartered Estate Surveyors & Valuers",
		OfficeAddress: "Suite B4 Harbour Plaza, KM 15 Lekki/Epe Expressway, Lekki, Lagos",
		OfficeEmail:   "info@propcrest.ng",
		OfficeWebsite: "www.propcrest.ng",
		PhoneEntries: []model.PhoneEntry{
			{ID: 1, PhoneNumber: "08026000001", Name: "Adaeze"},
			{ID: 2, PhoneNumber: "08032000002", Name: "Adaeze"},
			{ID: 3, PhoneNumber: "08022000003", Name: "Seyi"},
			{ID: 4, PhoneNumber: "09044000004", Name: "Seyi"},
		},
		Listings: []model.Listing{
			{
				ID:          "seed-01",
				Description: "Brand new and exquisitely finished 5 bedroom detached smart house with BQ",
				Location:    "Peaceville Estate, Idado, Lekki",
				Title:       "C of O & Approved Building Plan",
				Price:       "₦550M (ONO)",
			},
			{
				ID:          "seed-02",
				Description: "Brand new 9 nos. 2 bedroom luxury flats with 1-room BQ in a serene estate",
				Location:    "Agungi/Idado area, Lekki",
				Title:       "Governor's Consent",
				Price:       "₦80M/unit",
			},
			{
				ID:          "seed-03",
				Description: "Almost completed 6 nos. detached houses with 1-room BQ each",
				Location:    "Peaceville Estate, Idado, Lekki",
				Title:       "Approved Building Plan",
				Price:       "4 bedrooms ₦230M, 5 bedrooms ₦260M",
			},
			{
				ID:          "seed-04",
				Description: "Brand new 2 nos. 5 bedroom detached houses with BQ each",
				Location:    "Ocean Bay Estate, Orchid Road",
				Title:       "Governor's Consent",
				Price:       "₦230M/unit",
			},
			{
				ID:          "seed-05",
				Description: "5 bedroom detached house with 2-room BQ and swimming pool on 800sqm",
				Location:    "Northern Foreshore Estate, Off Chevron Drive, Lekki",
				Title:       "Governor's Consent",
				Price:       "₦500M",
			},
			{
				ID:          "seed-06",
				Description: "Brand new and spacious 1 & 2 bedroom flats",
				Location:    "Lekki Phase 1",
				Title:       "Governor's Consent",
				Price:       "₦180M & ₦220M respectively",
			},
			{
				ID:          "seed-07",
				Description: "Serviced 3 bedroom apartment, fully furnished, 24h power",
				Location:    "Ikate, Lekki",
				Title:       "Shortlet",
				Rent:        "₦350k/night",
				Note:        "Minimum 2 nights",
			},
			{
				ID:          "seed-08",
				Description: "Serviced 4 bedroom townhouse with 1-room BQ",
				Location:    "Ikate, Lekki",
				Title:       "Governor's Consent",
				Price:       "₦260M",
			},
		},
	}
}

// Seed installs the default admin user and the seed bulletin record
// when they are missing. Safe to run on every startup.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries); err != nil {
		return err
	}
	return seedBulletin(ctx, queries)
}

func seedAdmin(ctx context.Context, queries *Queries) error {
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Name:         DefaultAdminName,
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
	)
	return nil
}

func seedBulletin(ctx context.Context, queries *Queries) error {
	_, err := queries.LoadRecord(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for bulletin record: %w", err)
	}

	if err := queries.SaveRecord(ctx, SeedRecord(), model.PersistIntentSeedInit); err != nil {
		return fmt.Errorf("seeding bulletin record: %w", err)
	}
	slog.Info("seeded bulletin record")
	return nil
}
