// Package query holds the post listing engine: request parameters, sort
// keys, normalization and pagination math. Storage adapters translate
// Params into their own query language; the in-process predicate and
// ordering below define the reference semantics every adapter must match.
package query

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// AllCategories is the category filter value meaning "no restriction".
	// It is matched case-sensitively.
	AllCategories = "all"
)

// Sort is a total order over published posts.
type Sort string

const (
	SortNewest         Sort = "newest"
	SortOldest         Sort = "oldest"
	SortMostViewed     Sort = "mostViewed"
	SortTitleAscending Sort = "titleAscending"
)

// sortAliases maps accepted wire values, including the legacy field-style
// ones, onto sort keys.
var sortAliases = map[string]Sort{
	"newest":         SortNewest,
	"-createdAt":     SortNewest,
	"oldest":         SortOldest,
	"createdAt":      SortOldest,
	"mostViewed":     SortMostViewed,
	"-viewCount":     SortMostViewed,
	"titleAscending": SortTitleAscending,
	"title":          SortTitleAscending,
}

// ParseSort resolves a wire value. Empty means newest.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortNewest, nil
	}
	if v, ok := sortAliases[s]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Params is a listing request.
type Params struct {
	Page       int
	PageSize   int
	CategoryID string
	Search     string
	Sort       Sort
}

// Normalize coerces Params into the canonical form the engine executes:
// page and pageSize are at least 1, pageSize is capped, the "all"
// sentinel and blank search are dropped, and an empty sort becomes newest.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.CategoryID = strings.TrimSpace(p.CategoryID)
	if p.CategoryID == AllCategories {
		p.CategoryID = ""
	}
	p.Search = strings.TrimSpace(p.Search)
	if p.Sort == "" {
		p.Sort = SortNewest
	}
	return p
}

// Skip is the number of matching items preceding the requested page. It
// saturates at math.MaxInt, which every store treats as past the end.
func (p Params) Skip() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// CacheKey identifies a normalized request for result caching.
func (p Params) CacheKey() string {
	return fmt.Sprintf("p=%d:s=%d:c=%s:o=%s:q=%s", p.Page, p.PageSize, p.CategoryID, p.Sort, strings.ToLower(p.Search))
}

// TotalPages is ceil(total / pageSize); zero when nothing matches.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// Page is a paginated result.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Total       int64 `json:"total"`
}

// NewPage assembles pagination metadata. A page beyond the last one
// carries no items but the same metadata.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		TotalPages:  TotalPages(total, p.PageSize),
		CurrentPage: p.Page,
		Total:       total,
	}
}
