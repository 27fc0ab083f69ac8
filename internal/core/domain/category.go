package domain

import (
	"time"
	"unicode/utf8"
)

const MaxCategoryNameLen = 50

// Category groups posts. Names are unique.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ValidateCategoryName checks a trimmed category name.
func ValidateCategoryName(name string) error {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return NewValidationError("name", "category name is required")
	case n > MaxCategoryNameLen:
		return NewValidationError("name", "category name must be at most 50 characters")
	}
	return nil
}
