// Package pagination normalizes limit/offset windows and builds pages.
package pagination

import "fmt"

// Params is a limit/offset window as supplied by a caller.
type Params struct {
	Limit  int `json:"limit,omitempty"  query:"limit"`
	Offset int `json:"offset,omitempty" query:"offset"`
}

// Config holds the window bounds.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns limit 20 with an upper bound of 100.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// Normalize replaces an out-of-range limit (<=0 or above MaxLimit) with
// DefaultLimit and a negative offset with 0.
func (p *Params) Normalize(cfg Config) {
	if p.Limit <= 0 || p.Limit > cfg.MaxLimit {
		p.Limit = cfg.DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

func (p Params) String() string {
	return fmt.Sprintf("limit=%d offset=%d", p.Limit, p.Offset)
}

// Page is one window of a result set.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Empty returns a page with no items and zero total for the given window.
func Empty[T any](p Params) Page[T] {
	return Page[T]{
		Items:  []T{},
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}

// Slice cuts the window p out of the complete result set all.
// Total is len(all). p must already be normalized.
func Slice[T any](all []T, p Params) Page[T] {
	page := Empty[T](p)
	page.Total = len(all)

	if p.Offset >= len(all) {
		return page
	}

	end := min(p.Offset+p.Limit, len(all))
	page.Items = append(page.Items, all[p.Offset:end]...)
	return page
}

// HasNext reports whether items exist past this page.
func (p Page[T]) HasNext() bool {
	return p.Offset+len(p.Items) < p.Total
}

func (p Page[T]) String() string {
	return fmt.Sprintf("%d item(s) at offset %d of %d (limit %d)", len(p.Items), p.Offset, p.Total, p.Limit)
}
