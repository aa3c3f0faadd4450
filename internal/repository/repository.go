package repository

import (
	"context"
	"errors"
	"time"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
	"github.com/lib/pq"
)

// ErrSlugTaken is returned when a write collides with the unique slug constraint
var ErrSlugTaken = errors.New("slug already taken")

// ArticleRepository defines the interface for article data operations.
// Public reads apply the publication gate; Admin* reads do not.
type ArticleRepository interface {
	Create(ctx context.Context, data *models.ArticleData) (int64, error)
	Update(ctx context.Context, id int64, data *models.ArticleData) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	GetPublished(ctx context.Context, page, perPage int) ([]*models.Article, error)
	CountPublished(ctx context.Context) (int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	GetByCategory(ctx context.Context, categorySlug string, page, perPage int) ([]*models.Article, error)
	CountByCategory(ctx context.Context, categorySlug string) (int, error)
	Search(ctx context.Context, query string, page, perPage int) ([]*models.Article, error)
	CountSearch(ctx context.Context, query string) (int, error)
	GetAllForSitemap(ctx context.Context) ([]models.SitemapEntry, error)

	AdminGetAll(ctx context.Context, page, perPage int, status models.ArticleStatus) ([]*models.Article, error)
	AdminCount(ctx context.Context, status models.ArticleStatus) (int, error)
	AdminGetByID(ctx context.Context, id int64) (*models.Article, error)
	GetTagsForArticle(ctx context.Context, articleID int64) ([]models.Tag, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	Stats(ctx context.Context) (*models.ArticleStats, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetAll(ctx context.Context) ([]*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetAll(ctx context.Context) ([]*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
}

// AdminRepository defines the interface for admin account operations
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article  ArticleRepository
	Category CategoryRepository
	Tag      TagRepository
	Admin    AdminRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article:  NewArticleRepo(db, time.Now),
		Category: NewCategoryRepo(db),
		Tag:      NewTagRepo(db),
		Admin:    NewAdminRepo(db),
	}
}

// isUniqueViolation reports whether err is a Postgres unique_violation on the named constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func nullInt64(p *int64) interface{} {
	if p == nil || *p == 0 {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// helper to convert empty string to NULL
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
