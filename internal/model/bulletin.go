// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the bulletin content aggregate and the
// account types used by the admin edit surface.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing display modes. Exactly one of Price/Rent is active per mode;
// the mode is supplied by the caller and never stored on the record.
const (
	ListingModeSale     = "sale"
	ListingModeShortlet = "shortlet"
)

// PhoneEntry is an office contact number with the person it reaches.
// ID is assigned at creation time and is unique within the record; it
// is the stable identity for list diffing while editing, independent
// of position.
type PhoneEntry struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
}

// Listing is a single property entry on the bulletin.
type Listing struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Title       string `json:"title"`
	Price       string `json:"price,omitempty"`
	Rent        string `json:"rent,omitempty"`
	Note        string `json:"note,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ActivePrice returns the price or rent depending on the display mode.
func (l Listing) ActivePrice(mode string) string {
	if mode == ListingModeShortlet {
		return l.Rent
	}
	return l.Price
}

// BulletinRecord is the full bulletin content: office contact details
// plus the ordered listing collection. Every field is optional at
// rest; absent fields render as empty. The record is a single
// aggregate with no foreign keys.
type BulletinRecord struct {
	HeaderTitle   string       `json:"header_title,omitempty"`
	OfficeAddress string       `json:"office_address,omitempty"`
	OfficeEmail   string       `json:"office_email,omitempty"`
	OfficeWebsite string       `json:"office_website,omitempty"`
	CompanyName   string       `json:"company_name,omitempty"`
	CompanyType   string       `json:"company_type,omitempty"`
	PhoneEntries  []PhoneEntry `json:"phone_entries,omitempty"`
	Listings      []Listing    `json:"listings,omitempty"`
}

// Clone returns a deep copy of the record. Slices are copied so the
// clone shares no backing arrays with the original; mutating one can
// never alias the other.
func (r BulletinRecord) Clone() BulletinRecord {
	out := r
	if r.PhoneEntries != nil {
		out.PhoneEntries = make([]PhoneEntry, len(r.PhoneEntries))
		copy(out.PhoneEntries, r.PhoneEntries)
	}
	if r.Listings != nil {
		out.Listings = make([]Listing, len(r.Listings))
		copy(out.Listings, r.Listings)
	}
	return out
}

// Equal reports whether two records hold the same content.
func (r BulletinRecord) Equal(other BulletinRecord) bool {
	if r.HeaderTitle != other.HeaderTitle ||
		r.OfficeAddress != other.OfficeAddress ||
		r.OfficeEmail != other.OfficeEmail ||
		r.OfficeWebsite != other.OfficeWebsite ||
		r.CompanyName != other.CompanyName ||
		r.CompanyType != other.CompanyType {
		return false
	}
	if len(r.PhoneEntries) != len(other.PhoneEntries) || len(r.Listings) != len(other.Listings) {
		return false
	}
	for i := range r.PhoneEntries {
		if r.PhoneEntries[i] != other.PhoneEntries[i] {
			return false
		}
	}
	for i := range r.Listings {
		if r.Listings[i] != other.Listings[i] {
			return false
		}
	}
	return true
}

// NewListing returns a listing with a fresh unique id and placeholder
// text values, ready to be edited.
func NewListing() Listing {
	return Listing{
		ID:          uuid.NewString(),
		Description: "New Property Description",
		Location:    "New Location",
		Title:       "New Property Title",
		Price:       "₦0",
	}
}

// NewPhoneEntry returns a phone entry with placeholder values. The id
// is timestamp-based but always strictly greater than any id already
// in existing, so entries created within the same millisecond stay
// unique within their record.
func NewPhoneEntry(existing []PhoneEntry) PhoneEntry {
	id := time.Now().UnixMilli()
	for _, e := range existing {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	return PhoneEntry{
		ID:          id,
		PhoneNumber: "New Phone Number",
		Name:        "New Name",
	}
}

// Persist intent tags, recorded alongside the stored record.
const (
	PersistIntentSeedInit = "seed-init"
	PersistIntentUserSave = "user-save"
)
