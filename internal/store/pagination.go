// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

// Page carries pagination metadata for a listing result.
type Page struct {
	Number      int
	PerPage     int
	TotalPages  int
	TotalItems  int
	HasNext     bool
	HasPrevious bool
}

// Paginate clamps the requested page into the valid range for the given
// total and returns the row offset alongside the page metadata. An empty
// result set still reports one page so out-of-range requests land
// somewhere sensible instead of erroring.
func Paginate(total, page, perPage int) (offset int, p Page) {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}

	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	p = Page{
		Number:      page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	return (page - 1) * perPage, p
}
