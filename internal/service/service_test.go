package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/mocks"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// testEnv wires real services over the in-memory store with a controllable clock
type testEnv struct {
	svc       *service.Services
	store     *mocks.Store
	publisher *mocks.MockPublisher
	images    *mocks.MockImageStore
	now       time.Time
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func testConfig() *config.Config {
	return &config.Config{
		AppURL: "https://news.example",
		Security: config.SecurityConfig{
			AdminPath:        "admin",
			SessionTTL:       time.Hour,
			BcryptCost:       bcrypt.MinCost,
			MaxLoginAttempts: 5,
			LockoutDuration:  15 * time.Minute,
		},
		Content: config.ContentConfig{
			ArticlesPerPage: 10,
			AdminPerPage:    20,
			WordsPerMinute:  238,
			ExcerptLength:   180,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     mocks.NewStore(),
		publisher: &mocks.MockPublisher{},
		images:    &mocks.MockImageStore{Path: "/uploads/articles/2024/05/img.png"},
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	env.store.Articles.Now = clock

	env.svc = service.NewServices(env.store.Repositories(), service.Infra{
		Images: env.images,
		Events: env.publisher,
		Now:    clock,
	}, testConfig(), zerolog.Nop())
	return env
}

func (e *testEnv) createArticle(t *testing.T, in *models.ArticleInput) *models.Article {
	t.Helper()
	a, err := e.svc.Article.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return a
}

func (e *testEnv) createTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag, err := e.svc.Taxonomy.CreateTag(context.Background(), &models.TagInput{Name: name})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	return tag
}
