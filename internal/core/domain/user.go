package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// User models a registered account. Users are never deleted.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal is the identity carried by a verified bearer token. It is
// rebuilt from the token claims alone, without a storage round trip.
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
