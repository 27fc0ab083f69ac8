package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

const categoriesCacheKey = "categories"

type CategoryService struct {
	repo  ports.CategoryRepository
	cache ListCache
	log   zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, cache ListCache, log zerolog.Logger) *CategoryService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CategoryService{repo: repo, cache: cache, log: log}
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	c := &domain.Category{
		ID:          domain.NewID(),
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewValidationError("name", "category already exists")
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("list cache invalidation failed")
	}
	s.log.Info().Str("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	var cached []domain.Category
	gen, hit, cacheErr := s.cache.Get(ctx, categoriesCacheKey, &cached)
	if cacheErr != nil {
		s.log.Warn().Err(cacheErr).Msg("category cache read failed")
	} else if hit {
		return cached, nil
	}

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if list == nil {
		list = []domain.Category{}
	}
	if cacheErr == nil {
		if err := s.cache.Set(ctx, gen, categoriesCacheKey, list); err != nil {
			s.log.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return list, nil
}
