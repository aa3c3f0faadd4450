package service

import (
	"context"
	"errors"
	"strings"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/slug"
	"github.com/editorial-cms/internal/validation"
	"github.com/rs/zerolog"
)

// taxonomyService is the concrete implementation of TaxonomyService
type taxonomyService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newTaxonomyService(repos *repository.Repositories, log zerolog.Logger) *taxonomyService {
	return &taxonomyService{
		repos: repos,
		log:   log.With().Str("service", "taxonomy").Logger(),
	}
}

func nameAndSlug(raw string) (string, string, error) {
	name := strings.TrimSpace(slug.StripTags(raw))
	s := slug.Make(name)
	if s == "" {
		return "", "", validation.Errors{{Field: "name", Message: "name must contain letters or digits", Value: raw}}
	}
	return name, s, nil
}

func (s *taxonomyService) Categories(ctx context.Context) ([]*models.Category, error) {
	return s.repos.Category.GetAll(ctx)
}

// CreateCategory creates a category whose slug is derived from its name
func (s *taxonomyService) CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	name, categorySlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        categorySlug,
		Description: strings.TrimSpace(slug.StripTags(in.Description)),
	}
	if err := s.repos.Category.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.Info().Int64("category_id", category.ID).Str("slug", category.Slug).Msg("Category created")
	return category, nil
}

// DeleteCategory removes a category; its articles become uncategorized
func (s *taxonomyService) DeleteCategory(ctx context.Context, id int64) error {
	found, err := s.repos.Category.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	s.log.Info().Int64("category_id", id).Msg("Category deleted")
	return nil
}

func (s *taxonomyService) Tags(ctx context.Context) ([]*models.Tag, error) {
	return s.repos.Tag.GetAll(ctx)
}

// CreateTag creates a tag whose slug is derived from its name
func (s *taxonomyService) CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error) {
	name, tagSlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: name, Slug: tagSlug}
	if err := s.repos.Tag.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.Info().Int64("tag_id", tag.ID).Str("slug", tag.Slug).Msg("Tag created")
	return tag, nil
}

// DeleteTag removes a tag and its article associations
func (s *taxonomyService) DeleteTag(ctx context.Context, id int64) error {
	found, err := s.repos.Tag.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	s.log.Info().Int64("tag_id", id).Msg("Tag deleted")
	return nil
}
