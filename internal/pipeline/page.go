package pipeline

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page selects a window of a sorted result.
type Page struct {
	Number int
	Limit  int
}

// Normalize applies defaults to missing or invalid values and caps the limit.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows preceding the page. It saturates at
// math.MaxInt, so a page number too large to address yields an empty page.
func (p Page) Offset() int {
	n := p.Normalize()
	if n.Number-1 > math.MaxInt/n.Limit {
		return math.MaxInt
	}
	return (n.Number - 1) * n.Limit
}

// Result is one page of a composed read.
type Result[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

// NewResult computes page totals for items drawn from a set of total rows.
func NewResult[T any](items []T, total int64, page Page) Result[T] {
	n := page.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Result[T]{
		Items:       items,
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: n.Number,
		Limit:       n.Limit,
	}
}

// Map converts every item of r with fn, keeping the page totals.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	items := make([]U, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, fn(item))
	}
	return Result[U]{
		Items:       items,
		TotalItems:  r.TotalItems,
		TotalPages:  r.TotalPages,
		CurrentPage: r.CurrentPage,
		Limit:       r.Limit,
	}
}
