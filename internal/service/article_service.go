package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/events"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/slug"
	"github.com/editorial-cms/internal/validation"
	"github.com/rs/zerolog"
)

// fallbackSlug is the base used when a title has no sluggable characters
const fallbackSlug = "article"

// ReadingTime returns the whole minutes needed to read body at wpm, never less than 1
func ReadingTime(body string, wpm int) int {
	if wpm < 1 {
		wpm = 1
	}
	words := slug.WordCount(slug.StripTags(body))
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		return 1
	}
	return minutes
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos  *repository.Repositories
	images ImageStorer
	events events.Publisher
	cfg    *config.Config
	now    func() time.Time
	log    zerolog.Logger
}

func newArticleService(repos *repository.Repositories, infra Infra, cfg *config.Config, log zerolog.Logger) *articleService {
	return &articleService{
		repos:  repos,
		images: infra.Images,
		events: infra.Events,
		cfg:    cfg,
		now:    infra.Now,
		log:    log.With().Str("service", "article").Logger(),
	}
}

// Create normalizes the input, resolves a unique slug from the title and
// stores the article with its tags.
func (s *articleService) Create(ctx context.Context, adminID int64, in *models.ArticleInput) (*models.Article, error) {
	data, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}
	if adminID > 0 {
		data.AdminID = &adminID
	}
	data.FeaturedImage = s.storeImage(ctx, in.Image, "")

	base := slug.Make(data.Title)
	if base == "" {
		base = fallbackSlug
	}

	var id int64
	err = s.withSlug(ctx, base, 0, data, func() error {
		var err error
		id, err = s.repos.Article.Create(ctx, data)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("title", data.Title).Msg("Failed to create article")
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	metrics.ArticleMutations.WithLabelValues("create").Inc()
	s.log.Info().
		Int64("article_id", id).
		Str("slug", data.Slug).
		Str("status", string(data.Status)).
		Msg("Article created")
	s.publish(ctx, events.ArticleCreated, id, data.Slug, data.Status)

	return s.repos.Article.AdminGetByID(ctx, id)
}

// Update rewrites an article. An explicitly submitted slug wins over the
// title-derived one; either way the article's own slug never collides with itself.
func (s *articleService) Update(ctx context.Context, id int64, in *models.ArticleInput) (*models.Article, error) {
	existing, err := s.repos.Article.AdminGetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	data, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}
	data.AdminID = existing.AdminID
	data.FeaturedImage = s.storeImage(ctx, in.Image, existing.FeaturedImage)

	base := slug.Make(in.Slug)
	if base == "" {
		base = slug.Make(data.Title)
	}
	if base == "" {
		base = fallbackSlug
	}

	found := false
	err = s.withSlug(ctx, base, id, data, func() error {
		var err error
		found, err = s.repos.Article.Update(ctx, id, data)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", id).Msg("Failed to update article")
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	metrics.ArticleMutations.WithLabelValues("update").Inc()
	s.log.Info().
		Int64("article_id", id).
		Str("slug", data.Slug).
		Str("status", string(data.Status)).
		Msg("Article updated")
	s.publish(ctx, events.ArticleUpdated, id, data.Slug, data.Status)

	return s.repos.Article.AdminGetByID(ctx, id)
}

// Delete removes an article and its tag associations
func (s *articleService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repos.Article.AdminGetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	found, err := s.repos.Article.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", id).Msg("Failed to delete article")
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if !found {
		return ErrNotFound
	}

	metrics.ArticleMutations.WithLabelValues("delete").Inc()
	s.log.Info().Int64("article_id", id).Str("slug", existing.Slug).Msg("Article deleted")
	s.publish(ctx, events.ArticleDeleted, id, existing.Slug, existing.Status)
	return nil
}

// Get returns an article of any status for editing
func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.repos.Article.AdminGetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}
	return article, nil
}

// List returns one admin page. An unknown status lists every status.
func (s *articleService) List(ctx context.Context, page int, status string) (*models.Page[*models.Article], error) {
	filter := models.ArticleStatus(status)
	if !models.ValidStatuses[filter] {
		filter = ""
	}
	perPage := s.cfg.Content.AdminPerPage

	total, err := s.repos.Article.AdminCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Article.AdminGetAll(ctx, page, perPage, filter)
	if err != nil {
		return nil, err
	}

	return &models.Page[*models.Article]{
		Items:      items,
		Pagination: models.NewPagination(total, perPage, page),
	}, nil
}

// Dashboard returns the counters and the five most recently edited articles
func (s *articleService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	stats, err := s.repos.Article.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repos.Article.AdminGetAll(ctx, 1, 5, "")
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{Stats: stats, Recent: recent}, nil
}

// normalize turns submitted input into a storable row. Everything except the
// slug and featured image is derived here.
func (s *articleService) normalize(ctx context.Context, in *models.ArticleInput) (*models.ArticleData, error) {
	title := strings.TrimSpace(slug.StripTags(in.Title))
	if errs := validation.ValidateArticle(title, in); len(errs) > 0 {
		return nil, errs
	}

	status, defaulted := models.NormalizeStatus(strings.TrimSpace(in.Status))
	if defaulted && in.Status != "" {
		s.log.Warn().Str("status", in.Status).Msg("Unknown article status, saving as draft")
	}

	publishedAt := validation.ParseTimestamp(in.PublishedAt)
	if publishedAt == nil && strings.TrimSpace(in.PublishedAt) != "" {
		s.log.Warn().Str("published_at", in.PublishedAt).Msg("Ignoring unparseable timestamp")
	}
	if status == models.StatusPublished && publishedAt == nil {
		now := s.now().UTC()
		publishedAt = &now
	}

	scheduledAt := validation.ParseTimestamp(in.ScheduledAt)
	if scheduledAt == nil && strings.TrimSpace(in.ScheduledAt) != "" {
		s.log.Warn().Str("scheduled_at", in.ScheduledAt).Msg("Ignoring unparseable timestamp")
	}

	var categoryID *int64
	if in.CategoryID > 0 {
		category, err := s.repos.Category.GetByID(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		if category != nil {
			id := category.ID
			categoryID = &id
		} else {
			s.log.Warn().Int64("category_id", in.CategoryID).Msg("Unknown category, saving without one")
		}
	}

	return &models.ArticleData{
		CategoryID:      categoryID,
		Title:           title,
		Excerpt:         strings.TrimSpace(slug.StripTags(in.Excerpt)),
		Body:            in.Body,
		Status:          status,
		PublishedAt:     publishedAt,
		ScheduledAt:     scheduledAt,
		MetaTitle:       strings.TrimSpace(slug.StripTags(in.MetaTitle)),
		MetaDescription: strings.TrimSpace(slug.StripTags(in.MetaDescription)),
		ReadingTime:     ReadingTime(in.Body, s.cfg.Content.WordsPerMinute),
		Tags:            validation.NormalizeTagIDs(in.TagIDs),
	}, nil
}

// uniqueSlug returns base, or base-1, base-2, ... for the first candidate no
// other article holds. excludeID lets an article keep its own slug.
func (s *articleService) uniqueSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	for n := 0; ; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := s.repos.Article.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// withSlug resolves data.Slug and runs write. A unique violation means another
// writer took the slug between the check and the write; resolve once more.
func (s *articleService) withSlug(ctx context.Context, base string, excludeID int64, data *models.ArticleData, write func() error) error {
	for attempt := 0; ; attempt++ {
		resolved, err := s.uniqueSlug(ctx, base, excludeID)
		if err != nil {
			return err
		}
		data.Slug = resolved

		err = write()
		if errors.Is(err, repository.ErrSlugTaken) && attempt == 0 {
			s.log.Warn().Str("slug", resolved).Msg("Slug taken concurrently, resolving again")
			continue
		}
		return err
	}
}

// storeImage returns the path of a newly stored upload, or current when there
// is no upload or it cannot be stored.
func (s *articleService) storeImage(ctx context.Context, upload *models.Upload, current string) string {
	if upload == nil || len(upload.Data) == 0 || s.images == nil {
		return current
	}
	path, err := s.images.Store(ctx, upload.Data, upload.Filename)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", upload.Filename).Msg("Featured image rejected")
		return current
	}
	return path
}

func (s *articleService) publish(ctx context.Context, eventType string, id int64, articleSlug string, status models.ArticleStatus) {
	err := s.events.Publish(ctx, events.ArticleEvent{
		Type:      eventType,
		ArticleID: id,
		Slug:      articleSlug,
		Status:    string(status),
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Int64("article_id", id).Msg("Failed to publish article event")
	}
}
