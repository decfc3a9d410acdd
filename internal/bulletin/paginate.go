// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package bulletin

// maxVisiblePages is the number of contiguous page links shown around
// the current page.
const maxVisiblePages = 5

// Window is the computed pagination view over an ordered collection.
// It has no dependency on edit state.
type Window struct {
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
	StartIndex int // absolute index of the first item in the window
	EndIndex   int // absolute index one past the last item in the window
}

// PageItem is a single page link in the pagination display, or an
// ellipsis placeholder.
type PageItem struct {
	Number     int
	IsCurrent  bool
	IsEllipsis bool
}

// CalculateTotalPages returns the number of pages needed for
// totalItems at perPage items each. Always at least 1.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage < 1 {
		return 1
	}
	pages := (totalItems + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ResetPage validates page against totalPages. Pages below 1 or above
// the bound reset to 1: when the collection shrinks under the cursor,
// the view snaps back to the first page rather than the nearest valid
// one.
func ResetPage(page, totalPages int) int {
	if page < 1 || page > totalPages {
		return 1
	}
	return page
}

// Paginate computes the window over a collection of the given length.
// The page is re-validated on every call, so a stale cursor can never
// address past the end of a shrunk collection.
func Paginate(length, page, perPage int) Window {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := CalculateTotalPages(length, perPage)
	page = ResetPage(page, totalPages)

	start := (page - 1) * perPage
	end := start + perPage
	if start > length {
		start = length
	}
	if end > length {
		end = length
	}

	return Window{
		Page:       page,
		PerPage:    perPage,
		TotalItems: length,
		TotalPages: totalPages,
		StartIndex: start,
		EndIndex:   end,
	}
}

// AbsoluteIndex translates a position within the current window to the
// absolute position in the full collection. Mutations addressed by
// window position must go through this translation; it is the single
// place the startIndex offset is applied. Returns false when the local
// index does not fall inside the window.
func (w Window) AbsoluteIndex(localIndex int) (int, bool) {
	if localIndex < 0 || w.StartIndex+localIndex >= w.EndIndex {
		return 0, false
	}
	return w.StartIndex + localIndex, true
}

// Len returns the number of items in the window.
func (w Window) Len() int {
	return w.EndIndex - w.StartIndex
}

// PageItems builds the page-number display for the window: up to five
// contiguous numbers centered on the current page, clamped to
// [1, totalPages], with first/last shortcuts and ellipses when the
// run does not reach the boundary.
func (w Window) PageItems() []PageItem {
	start := w.Page - maxVisiblePages/2
	if start < 1 {
		start = 1
	}
	end := start + maxVisiblePages - 1
	if end > w.TotalPages {
		end = w.TotalPages
		start = end - maxVisiblePages + 1
		if start < 1 {
			start = 1
		}
	}

	var items []PageItem
	if start > 1 {
		items = append(items, PageItem{Number: 1})
		if start > 2 {
			items = append(items, PageItem{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		items = append(items, PageItem{Number: i, IsCurrent: i == w.Page})
	}
	if end < w.TotalPages {
		if end < w.TotalPages-1 {
			items = append(items, PageItem{IsEllipsis: true})
		}
		items = append(items, PageItem{Number: w.TotalPages})
	}
	return items
}
