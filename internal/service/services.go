package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/events"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/ratelimit"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/session"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a category or tag slug is already in use
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials is returned for any failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTooManyAttempts is wrapped by LockoutError
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// LockoutError reports how long a throttled identifier must wait
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many login attempts, try again in %d minute(s)", e.Minutes())
}

func (e *LockoutError) Unwrap() error { return ErrTooManyAttempts }

// Minutes returns the remaining lockout rounded up to whole minutes
func (e *LockoutError) Minutes() int {
	m := int(math.Ceil(e.Remaining.Minutes()))
	if m < 1 {
		m = 1
	}
	return m
}

// ArticleService is the admin lifecycle of articles
type ArticleService interface {
	Create(ctx context.Context, adminID int64, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, id int64, in *models.ArticleInput) (*models.Article, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context, page int, status string) (*models.Page[*models.Article], error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// PublicService serves everything readers can see
type PublicService interface {
	Home(ctx context.Context, page int) (*models.Page[*models.Article], error)
	Article(ctx context.Context, slug string) (*models.ArticleView, error)
	Categories(ctx context.Context) ([]*models.Category, error)
	CategoryArchive(ctx context.Context, slug string, page int) (*models.CategoryArchive, error)
	Search(ctx context.Context, query string, page int) (*models.SearchResult, error)
	Sitemap(ctx context.Context) ([]byte, error)
	Robots() string
}

// TaxonomyService manages categories and tags
type TaxonomyService interface {
	Categories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	Tags(ctx context.Context) ([]*models.Tag, error)
	CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
}

// AuthService authenticates admins and resolves their sessions
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*session.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (*session.Session, error)
	CreateAdmin(ctx context.Context, admin *models.Admin, password string) error
}

// ImageStorer persists an uploaded image and returns its public path
type ImageStorer interface {
	Store(ctx context.Context, data []byte, filename string) (string, error)
}

// Infra holds the non-database collaborators services depend on
type Infra struct {
	Images   ImageStorer
	Events   events.Publisher
	Sessions session.Store
	Attempts ratelimit.AttemptStore
	Now      func() time.Time
}

// Services holds all service interfaces
type Services struct {
	Article  ArticleService
	Public   PublicService
	Taxonomy TaxonomyService
	Auth     AuthService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, infra Infra, cfg *config.Config, log zerolog.Logger) *Services {
	if infra.Now == nil {
		infra.Now = time.Now
	}
	if infra.Events == nil {
		infra.Events = events.NoopPublisher{}
	}
	if infra.Sessions == nil {
		infra.Sessions = session.NewMemoryStore()
	}
	if infra.Attempts == nil {
		infra.Attempts = ratelimit.NewMemoryAttemptStore()
	}

	return &Services{
		Article:  newArticleService(repos, infra, cfg, log),
		Public:   newPublicService(repos, cfg, log),
		Taxonomy: newTaxonomyService(repos, log),
		Auth:     newAuthService(repos.Admin, infra.Sessions, infra.Attempts, cfg, log),
	}
}
