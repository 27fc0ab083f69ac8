// Package memory implements the repositories in process memory with the
// same semantics as the Mongo adapters: unique email, slug and category
// name, owner-filtered writes and the listing engine from package query.
// It backs DB_DRIVER=memory and the end-to-end tests.
package memory

import (
	"sync"

	"github.com/inkwell/blog/internal/core/domain"
)

// Store holds every collection behind a single lock so cross-collection
// joins (author and category names in listings) see a consistent view.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	posts      map[string]*domain.Post
	categories map[string]*domain.Category
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		posts:      make(map[string]*domain.Post),
		categories: make(map[string]*domain.Category),
	}
}

func (s *Store) Users() *UserRepository         { return &UserRepository{s: s} }
func (s *Store) Posts() *PostRepository         { return &PostRepository{s: s} }
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyPost(p *domain.Post) *domain.Post {
	c := *p
	c.Comments = append(make([]domain.Comment, 0, len(p.Comments)), p.Comments...)
	return &c
}
