// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package bulletin

import (
	"errors"
	"fmt"

	"github.com/propcrest/bulletin-go/internal/model"
)

// Editor errors.
var (
	// ErrNotPermitted is returned when a mutation is invoked without
	// admin effectiveness. Every operation short-circuits on this
	// before touching the draft, even if somehow invoked.
	ErrNotPermitted = errors.New("not permitted")
	// ErrNotEditing is returned when the store is not in editing mode.
	ErrNotEditing = errors.New("not in editing mode")
	// ErrUnknownField is returned for a field name the record does not
	// carry.
	ErrUnknownField = errors.New("unknown field")
	// ErrIndexOutOfRange is returned when an index does not address an
	// existing entry.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownID is returned when an id does not address an existing
	// entry.
	ErrUnknownID = errors.New("unknown id")
)

// Record scalar field names accepted by UpdateField.
const (
	FieldHeaderTitle   = "header_title"
	FieldOfficeAddress = "office_address"
	FieldOfficeEmail   = "office_email"
	FieldOfficeWebsite = "office_website"
	FieldCompanyName   = "company_name"
	FieldCompanyType   = "company_type"
)

// Listing field names accepted by the listing update operations.
const (
	ListingFieldDescription = "description"
	ListingFieldLocation    = "location"
	ListingFieldTitle       = "title"
	ListingFieldPrice       = "price"
	ListingFieldRent        = "rent"
	ListingFieldNote        = "note"
	ListingFieldImage       = "image"
)

// Phone entry field names accepted by UpdatePhoneEntry.
const (
	PhoneFieldNumber = "phone_number"
	PhoneFieldName   = "name"
)

// Editor applies field-level mutations to the draft. Every operation
// re-checks the gate and operates copy-on-write: a mutation produces a
// new record value with only the touched collection replaced, so
// change detection by identity comparison stays reliable.
type Editor struct {
	store *DraftStore
	gate  *Gate
}

// NewEditor creates an editor over the given store and gate.
func NewEditor(store *DraftStore, gate *Gate) *Editor {
	return &Editor{store: store, gate: gate}
}

// apply runs a draft mutation behind the gate and mode checks.
func (e *Editor) apply(sess model.AdminSession, fn func(model.BulletinRecord) (model.BulletinRecord, error)) error {
	if !e.gate.Effective(sess) {
		return ErrNotPermitted
	}
	var opErr error
	ok := e.store.UpdateDraft(func(rec model.BulletinRecord) model.BulletinRecord {
		next, err := fn(rec)
		if err != nil {
			opErr = err
			return rec
		}
		return next
	})
	if !ok {
		return ErrNotEditing
	}
	return opErr
}

// UpdateField replaces a scalar field on the draft record.
func (e *Editor) UpdateField(sess model.AdminSession, field, value string) error {
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		switch field {
		case FieldHeaderTitle:
			rec.HeaderTitle = value
		case FieldOfficeAddress:
			rec.OfficeAddress = value
		case FieldOfficeEmail:
			rec.OfficeEmail = value
		case FieldOfficeWebsite:
			rec.OfficeWebsite = value
		case FieldCompanyName:
			rec.CompanyName = value
		case FieldCompanyType:
			rec.CompanyType = value
		default:
			return rec, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return rec, nil
	})
}

// setListingField writes one field of a listing value.
func setListingField(l *model.Listing, field, value string) error {
	switch field {
	case ListingFieldDescription:
		l.Description = value
	case ListingFieldLocation:
		l.Location = value
	case ListingFieldTitle:
		l.Title = value
	case ListingFieldPrice:
		l.Price = value
	case ListingFieldRent:
		l.Rent = value
	case ListingFieldNote:
		l.Note = value
	case ListingFieldImage:
		l.Image = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// UpdateListingField replaces one field of the listing at the absolute
// index. Callers holding a window-local index must translate it with
// Window.AbsoluteIndex first.
func (e *Editor) UpdateListingField(sess model.AdminSession, absIndex int, field, value string) error {
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		if absIndex < 0 || absIndex >= len(rec.Listings) {
			return rec, fmt.Errorf("%w: listing %d", ErrIndexOutOfRange, absIndex)
		}
		listings := make([]model.Listing, len(rec.Listings))
		copy(listings, rec.Listings)
		if err := setListingField(&listings[absIndex], field, value); err != nil {
			return rec, err
		}
		rec.Listings = listings
		return rec, nil
	})
}

// UpdateListingByID replaces one field of the listing with the given
// id, independent of position.
func (e *Editor) UpdateListingByID(sess model.AdminSession, id, field, value string) error {
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		for i := range rec.Listings {
			if rec.Listings[i].ID == id {
				listings := make([]model.Listing, len(rec.Listings))
				copy(listings, rec.Listings)
				if err := setListingField(&listings[i], field, value); err != nil {
					return rec, err
				}
				rec.Listings = listings
				return rec, nil
			}
		}
		return rec, fmt.Errorf("%w: listing %q", ErrUnknownID, id)
	})
}

// AddListing prepends a new listing with a fresh id and placeholder
// values. Insertion is at the front so that page 1 always shows the
// new entry; callers reset their page cursor to 1 accordingly.
func (e *Editor) AddListing(sess model.AdminSession) (model.Listing, error) {
	listing := model.NewListing()
	err := e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		listings := make([]model.Listing, 0, len(rec.Listings)+1)
		listings = append(listings, listing)
		listings = append(listings, rec.Listings...)
		rec.Listings = listings
		return rec, nil
	})
	if err != nil {
		return model.Listing{}, err
	}
	return listing, nil
}

// RemoveListing removes the listing addressed by a window-local index.
// The absolute position is derived through the window translation. The
// page cursor is not adjusted here; pagination re-validates it on the
// next read.
func (e *Editor) RemoveListing(sess model.AdminSession, w Window, localIndex int) error {
	abs, ok := w.AbsoluteIndex(localIndex)
	if !ok {
		return fmt.Errorf("%w: local index %d in window [%d,%d)", ErrIndexOutOfRange, localIndex, w.StartIndex, w.EndIndex)
	}
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		if abs >= len(rec.Listings) {
			return rec, fmt.Errorf("%w: listing %d", ErrIndexOutOfRange, abs)
		}
		listings := make([]model.Listing, 0, len(rec.Listings)-1)
		listings = append(listings, rec.Listings[:abs]...)
		listings = append(listings, rec.Listings[abs+1:]...)
		rec.Listings = listings
		return rec, nil
	})
}

// AddPhoneEntry appends a new phone entry with placeholder values.
// Phone entries have no pagination layer, so position addressing is
// direct.
func (e *Editor) AddPhoneEntry(sess model.AdminSession) (model.PhoneEntry, error) {
	var entry model.PhoneEntry
	err := e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		entry = model.NewPhoneEntry(rec.PhoneEntries)
		entries := make([]model.PhoneEntry, 0, len(rec.PhoneEntries)+1)
		entries = append(entries, rec.PhoneEntries...)
		entries = append(entries, entry)
		rec.PhoneEntries = entries
		return rec, nil
	})
	if err != nil {
		return model.PhoneEntry{}, err
	}
	return entry, nil
}

// RemovePhoneEntry removes the phone entry at the given position.
func (e *Editor) RemovePhoneEntry(sess model.AdminSession, index int) error {
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		if index < 0 || index >= len(rec.PhoneEntries) {
			return rec, fmt.Errorf("%w: phone entry %d", ErrIndexOutOfRange, index)
		}
		entries := make([]model.PhoneEntry, 0, len(rec.PhoneEntries)-1)
		entries = append(entries, rec.PhoneEntries[:index]...)
		entries = append(entries, rec.PhoneEntries[index+1:]...)
		rec.PhoneEntries = entries
		return rec, nil
	})
}

// UpdatePhoneEntry replaces one field of the phone entry at the given
// position.
func (e *Editor) UpdatePhoneEntry(sess model.AdminSession, index int, field, value string) error {
	return e.apply(sess, func(rec model.BulletinRecord) (model.BulletinRecord, error) {
		if index < 0 || index >= len(rec.PhoneEntries) {
			return rec, fmt.Errorf("%w: phone entry %d", ErrIndexOutOfRange, index)
		}
		entries := make([]model.PhoneEntry, len(rec.PhoneEntries))
		copy(entries, rec.PhoneEntries)
		switch field {
		case PhoneFieldNumber:
			entries[index].PhoneNumber = value
		case PhoneFieldName:
			entries[index].Name = value
		default:
			return rec, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		rec.PhoneEntries = entries
		return rec, nil
	})
}
