// Package pagination windows an ordered result set into fixed-size pages.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultPageSize is the number of rows on a list page
const DefaultPageSize = 5

// LastPage selects the final page when passed as the requested page
const LastPage = "last"

// Page describes one window over a result set of Total rows
type Page struct {
	Number   int // 1-based
	Size     int
	Total    int
	NumPages int // at least 1, even for an empty result set
}

// New resolves the requested page number against total rows.
// Non-numeric and non-positive values resolve to the first page,
// values past the end clamp to the last page.
func New(total, size int, requested string) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	p := Page{Size: size, Total: total, NumPages: 1}
	if total > size {
		p.NumPages = (total + size - 1) / size
	}

	requested = strings.TrimSpace(requested)
	if requested == LastPage {
		p.Number = p.NumPages
		return p
	}

	n, err := strconv.Atoi(requested)
	switch {
	case err != nil || n < 1:
		p.Number = 1
	case n > p.NumPages:
		p.Number = p.NumPages
	default:
		p.Number = n
	}
	return p
}

// Offset is the number of rows before this page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the maximum number of rows on this page
func (p Page) Limit() int {
	return p.Size
}

// IsPaginated reports whether the result set spans more than one page
func (p Page) IsPaginated() bool {
	return p.Total > p.Size
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// StartIndex is the 1-based index of the first row on the page, 0 when empty
func (p Page) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndIndex is the 1-based index of the last row on the page
func (p Page) EndIndex() int {
	return min(p.Offset()+p.Size, p.Total)
}
