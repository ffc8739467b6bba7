// Package pagination computes page windows and navigation links over an
// ordered collection of known size.
package pagination

import (
	"errors"
	"fmt"
	"strings"
)

var ErrPageNotFound = errors.New("page not found")

// Page describes one window of a collection.
type Page struct {
	Number      int
	PerPage     int
	PagesCount  int
	Offset      int
	Limit       int
	PreviousURL *string
	NextURL     *string
}

// Paginate computes the window for currentPage. The first page always exists,
// even for an empty collection; any later page must contain at least one item.
// currentPage and perPage below 1 are programming errors and panic.
func Paginate(totalCount, currentPage, perPage int, baseURL string) (Page, error) {
	if currentPage < 1 {
		panic(fmt.Sprintf("pagination: current page must be >= 1, got %d", currentPage))
	}
	if perPage < 1 {
		panic(fmt.Sprintf("pagination: per page must be >= 1, got %d", perPage))
	}
	if totalCount < 0 {
		panic(fmt.Sprintf("pagination: total count must be >= 0, got %d", totalCount))
	}

	pagesCount := (totalCount + perPage - 1) / perPage

	if currentPage > 1 && currentPage > pagesCount {
		return Page{}, ErrPageNotFound
	}

	p := Page{
		Number:     currentPage,
		PerPage:    perPage,
		PagesCount: pagesCount,
		Offset:     (currentPage - 1) * perPage,
		Limit:      perPage,
	}

	if currentPage > 1 {
		p.PreviousURL = pageURL(baseURL, currentPage-1)
	}
	if currentPage < pagesCount {
		p.NextURL = pageURL(baseURL, currentPage+1)
	}

	return p, nil
}

// Window returns the part of items that falls on page p.
func Window[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return items[:0:0]
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// Result is the JSON shape of a paginated listing.
type Result[T any] struct {
	PagesCount      int     `json:"pages_count"`
	PreviousPageURL *string `json:"previous_page_url"`
	NextPageURL     *string `json:"next_page_url"`
	Results         []T     `json:"results"`
}

// NewResult pairs a page with the items fetched for it.
func NewResult[T any](p Page, items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		PagesCount:      p.PagesCount,
		PreviousPageURL: p.PreviousURL,
		NextPageURL:     p.NextURL,
		Results:         items,
	}
}

func pageURL(baseURL string, page int) *string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	u := fmt.Sprintf("%s%spage=%d", baseURL, sep, page)
	return &u
}
