package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
)

// Store bundles in-memory repositories that share category and tag data
type Store struct {
	Articles   *MockArticleRepository
	Categories *MockCategoryRepository
	Tags       *MockTagRepository
	Admins     *MockAdminRepository
}

// NewStore creates a fresh in-memory store
func NewStore() *Store {
	categories := NewMockCategoryRepository()
	tags := NewMockTagRepository()
	return &Store{
		Articles:   NewMockArticleRepository(categories, tags),
		Categories: categories,
		Tags:       tags,
		Admins:     NewMockAdminRepository(),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Article:  s.Articles,
		Category: s.Categories,
		Tag:      s.Tags,
		Admin:    s.Admins,
	}
}

// MockArticleRepository is an in-memory ArticleRepository. It applies the same
// publication gate, slug uniqueness and tag replacement rules as the Postgres
// implementation.
type MockArticleRepository struct {
	mu          sync.Mutex
	Articles    map[int64]*models.Article
	ArticleTags map[int64][]int64
	nextID      int64

	categories *MockCategoryRepository
	tags       *MockTagRepository

	// Now is the clock for the publication gate and updated_at
	Now func() time.Time

	CreateError  error
	UpdateError  error
	DeleteError  error
	BeforeCreate func(data *models.ArticleData)
	CreateCalls  int
	UpdateCalls  int
	TagSyncCalls int
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository(categories *MockCategoryRepository, tags *MockTagRepository) *MockArticleRepository {
	return &MockArticleRepository{
		Articles:    make(map[int64]*models.Article),
		ArticleTags: make(map[int64][]int64),
		categories:  categories,
		tags:        tags,
		Now:         time.Now,
	}
}

func (m *MockArticleRepository) slugTaken(slug string, excludeID int64) bool {
	for id, a := range m.Articles {
		if a.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (m *MockArticleRepository) Create(ctx context.Context, data *models.ArticleData) (int64, error) {
	if m.BeforeCreate != nil {
		m.BeforeCreate(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	if m.slugTaken(data.Slug, 0) {
		return 0, repository.ErrSlugTaken
	}

	m.nextID++
	now := m.Now()
	a := &models.Article{ID: m.nextID, CreatedAt: now}
	applyData(a, data, now)
	a.AdminID = data.AdminID
	m.Articles[a.ID] = a

	if data.Tags != nil {
		m.syncTags(a.ID, data.Tags)
	}
	return a.ID, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, id int64, data *models.ArticleData) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	a, ok := m.Articles[id]
	if !ok {
		return false, nil
	}
	if m.slugTaken(data.Slug, id) {
		return false, repository.ErrSlugTaken
	}

	applyData(a, data, m.Now())
	if data.Tags != nil {
		m.syncTags(id, data.Tags)
	}
	return true, nil
}

func applyData(a *models.Article, data *models.ArticleData, now time.Time) {
	a.CategoryID = data.CategoryID
	a.Title = data.Title
	a.Slug = data.Slug
	a.Excerpt = data.Excerpt
	a.Body = data.Body
	a.FeaturedImage = data.FeaturedImage
	a.Status = data.Status
	a.PublishedAt = data.PublishedAt
	a.ScheduledAt = data.ScheduledAt
	a.MetaTitle = data.MetaTitle
	a.MetaDescription = data.MetaDescription
	a.ReadingTime = data.ReadingTime
	a.UpdatedAt = now
}

func (m *MockArticleRepository) syncTags(articleID int64, tagIDs []int64) {
	m.TagSyncCalls++
	seen := make(map[int64]bool)
	ids := []int64{}
	for _, id := range tagIDs {
		if seen[id] || (m.tags != nil && m.tags.byID(id) == nil) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	m.ArticleTags[articleID] = ids
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	if _, ok := m.Articles[id]; !ok {
		return false, nil
	}
	delete(m.ArticleTags, id)
	delete(m.Articles, id)
	return true, nil
}

// decorate returns a copy with joined category data
func (m *MockArticleRepository) decorate(a *models.Article) *models.Article {
	out := *a
	if a.CategoryID != nil && m.categories != nil {
		if c := m.categories.byID(*a.CategoryID); c != nil {
			out.CategoryName = c.Name
			out.CategorySlug = c.Slug
		}
	}
	return &out
}

func (m *MockArticleRepository) visible() []*models.Article {
	now := m.Now()
	var out []*models.Article
	for _, a := range m.Articles {
		if a.IsPubliclyVisible(now) {
			out = append(out, m.decorate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(*out[j].PublishedAt) {
			return out[i].PublishedAt.After(*out[j].PublishedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func paginate(items []*models.Article, page, perPage int) []*models.Article {
	start := models.Offset(page, perPage)
	if start >= len(items) {
		return []*models.Article{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (m *MockArticleRepository) GetPublished(ctx context.Context, page, perPage int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.visible(), page, perPage), nil
}

func (m *MockArticleRepository) CountPublished(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visible()), nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.Articles {
		if a.Slug != slug || !a.IsPubliclyVisible(m.Now()) {
			continue
		}
		a.ViewCount++
		out := m.decorate(a)
		out.Tags = m.tagsFor(a.ID)
		return out, nil
	}
	return nil, nil
}

func (m *MockArticleRepository) inCategory(categorySlug string) []*models.Article {
	var out []*models.Article
	for _, a := range m.visible() {
		if a.CategorySlug == categorySlug {
			out = append(out, a)
		}
	}
	return out
}

func (m *MockArticleRepository) GetByCategory(ctx context.Context, categorySlug string, page, perPage int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.inCategory(categorySlug), page, perPage), nil
}

func (m *MockArticleRepository) CountByCategory(ctx context.Context, categorySlug string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inCategory(categorySlug)), nil
}

// matches ranks by field: title hits outrank excerpt hits outrank body hits
func (m *MockArticleRepository) matches(query string) []*models.Article {
	q := strings.ToLower(query)
	var out []*models.Article
	for _, a := range m.visible() {
		switch {
		case strings.Contains(strings.ToLower(a.Title), q):
			a.Relevance = 1
		case strings.Contains(strings.ToLower(a.Excerpt), q):
			a.Relevance = 0.4
		case strings.Contains(strings.ToLower(a.Body), q):
			a.Relevance = 0.1
		default:
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	return out
}

func (m *MockArticleRepository) Search(ctx context.Context, query string, page, perPage int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.matches(query), page, perPage), nil
}

func (m *MockArticleRepository) CountSearch(ctx context.Context, query string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches(query)), nil
}

func (m *MockArticleRepository) GetAllForSitemap(ctx context.Context) ([]models.SitemapEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []models.SitemapEntry
	for _, a := range m.visible() {
		entries = append(entries, models.SitemapEntry{Slug: a.Slug, UpdatedAt: a.UpdatedAt})
	}
	return entries, nil
}

func (m *MockArticleRepository) adminFiltered(status models.ArticleStatus) []*models.Article {
	var out []*models.Article
	for _, a := range m.Articles {
		if status == "" || a.Status == status {
			out = append(out, m.decorate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MockArticleRepository) AdminGetAll(ctx context.Context, page, perPage int, status models.ArticleStatus) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.adminFiltered(status), page, perPage), nil
}

func (m *MockArticleRepository) AdminCount(ctx context.Context, status models.ArticleStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.adminFiltered(status)), nil
}

func (m *MockArticleRepository) AdminGetByID(ctx context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	out := m.decorate(a)
	out.TagIDs = append([]int64{}, m.ArticleTags[id]...)
	sort.Slice(out.TagIDs, func(i, j int) bool { return out.TagIDs[i] < out.TagIDs[j] })
	return out, nil
}

func (m *MockArticleRepository) tagsFor(articleID int64) []models.Tag {
	tags := []models.Tag{}
	for _, id := range m.ArticleTags[articleID] {
		t := models.Tag{ID: id}
		if m.tags != nil {
			if stored := m.tags.byID(id); stored != nil {
				t = *stored
			}
		}
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

func (m *MockArticleRepository) GetTagsForArticle(ctx context.Context, articleID int64) ([]models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tagsFor(articleID), nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *MockArticleRepository) Stats(ctx context.Context) (*models.ArticleStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &models.ArticleStats{}
	for _, a := range m.Articles {
		switch a.Status {
		case models.StatusPublished:
			s.Published++
		case models.StatusDraft:
			s.Draft++
		case models.StatusScheduled:
			s.Scheduled++
		}
		s.Views += a.ViewCount
	}
	if m.categories != nil {
		s.Categories = m.categories.count()
	}
	if m.tags != nil {
		s.Tags = m.tags.count()
	}
	return s, nil
}

// MockCategoryRepository is an in-memory CategoryRepository
type MockCategoryRepository struct {
	mu          sync.Mutex
	Categories  map[int64]*models.Category
	nextID      int64
	CreateError error
}

var _ repository.CategoryRepository = (*MockCategoryRepository)(nil)

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{Categories: make(map[int64]*models.Category)}
}

func (m *MockCategoryRepository) byID(id int64) *models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Categories[id]
}

func (m *MockCategoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Categories)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	for _, c := range m.Categories {
		if c.Slug == category.Slug {
			return repository.ErrSlugTaken
		}
	}
	m.nextID++
	category.ID = m.nextID
	category.CreatedAt = time.Now()
	stored := *category
	m.Categories[category.ID] = &stored
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return false, nil
	}
	delete(m.Categories, id)
	return true, nil
}

func (m *MockCategoryRepository) GetAll(ctx context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Category{}
	for _, c := range m.Categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if c := m.byID(id); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	c, _ := m.GetBySlug(ctx, slug)
	return c != nil, nil
}

// MockTagRepository is an in-memory TagRepository
type MockTagRepository struct {
	mu     sync.Mutex
	Tags   map[int64]*models.Tag
	nextID int64
}

var _ repository.TagRepository = (*MockTagRepository)(nil)

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{Tags: make(map[int64]*models.Tag)}
}

func (m *MockTagRepository) byID(id int64) *models.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tags[id]
}

func (m *MockTagRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tags)
}

func (m *MockTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tags {
		if t.Slug == tag.Slug {
			return repository.ErrSlugTaken
		}
	}
	m.nextID++
	tag.ID = m.nextID
	stored := *tag
	m.Tags[tag.ID] = &stored
	return nil
}

func (m *MockTagRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tags[id]; !ok {
		return false, nil
	}
	delete(m.Tags, id)
	return true, nil
}

func (m *MockTagRepository) GetAll(ctx context.Context) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Tag{}
	for _, t := range m.Tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockTagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tags {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// MockAdminRepository is an in-memory AdminRepository
type MockAdminRepository struct {
	mu          sync.Mutex
	Admins      map[int64]*models.Admin
	nextID      int64
	UpdateCalls int
}

var _ repository.AdminRepository = (*MockAdminRepository)(nil)

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{Admins: make(map[int64]*models.Admin)}
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	admin.ID = m.nextID
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.CreatedAt = time.Now()
	stored := *admin
	m.Admins[admin.ID] = &stored
	return nil
}

func (m *MockAdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *MockAdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range m.Admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if a, ok := m.Admins[id]; ok {
		a.Password = hash
	}
	return nil
}
