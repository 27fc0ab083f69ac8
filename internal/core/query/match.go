package query

import (
	"sort"
	"strings"

	"github.com/inkwell/blog/internal/core/domain"
)

// Matches reports whether post satisfies the listing predicate: published,
// in the requested category, and containing the search text in its title,
// content or excerpt (case-insensitively). p must be normalized.
func Matches(p Params, post *domain.Post) bool {
	if !post.IsPublished {
		return false
	}
	if p.CategoryID != "" && post.CategoryID != p.CategoryID {
		return false
	}
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Content), needle) &&
			!strings.Contains(strings.ToLower(post.Excerpt), needle) {
			return false
		}
	}
	return true
}

// Less orders a before b under s. Ties fall back to the identifier so the
// order is total and pagination is stable.
func Less(s Sort, a, b *domain.Post) bool {
	switch s {
	case SortOldest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	case SortMostViewed:
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	case SortTitleAscending:
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
}

// Apply runs the full pipeline over an in-memory set and returns the
// requested page together with the unpaginated match count.
func Apply(p Params, posts []*domain.Post) ([]*domain.Post, int64) {
	p = p.Normalize()

	matched := make([]*domain.Post, 0, len(posts))
	for _, post := range posts {
		if Matches(p, post) {
			matched = append(matched, post)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return Less(p.Sort, matched[i], matched[j])
	})

	total := int64(len(matched))
	skip := p.Skip()
	if skip >= len(matched) {
		return []*domain.Post{}, total
	}
	end := skip + p.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total
}
