package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"unicode/utf8"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/slug"
	"github.com/rs/zerolog"
)

const maxQueryLength = 200

// publicService is the concrete implementation of PublicService
type publicService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

func newPublicService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *publicService {
	return &publicService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "public").Logger(),
	}
}

// Home returns one page of visible articles, newest first
func (s *publicService) Home(ctx context.Context, page int) (*models.Page[*models.Article], error) {
	perPage := s.cfg.Content.ArticlesPerPage

	total, err := s.repos.Article.CountPublished(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Article.GetPublished(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.Article]{
		Items:      items,
		Pagination: models.NewPagination(total, perPage, page),
	}, nil
}

// Article returns a visible article and counts the view
func (s *publicService) Article(ctx context.Context, articleSlug string) (*models.ArticleView, error) {
	article, err := s.repos.Article.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrNotFound
	}
	metrics.ArticleViews.Inc()

	description := article.MetaDescription
	if description == "" {
		description = article.Excerpt
	}
	if description == "" {
		description = slug.Excerpt(article.Body, s.cfg.Content.ExcerptLength)
	}

	return &models.ArticleView{
		Article:         article,
		PageTitle:       article.SEOTitle(),
		MetaDescription: description,
		Canonical:       s.cfg.AppURL + "/articles/" + article.Slug,
	}, nil
}

// Categories lists every category
func (s *publicService) Categories(ctx context.Context) ([]*models.Category, error) {
	return s.repos.Category.GetAll(ctx)
}

// CategoryArchive returns one page of a category's visible articles
func (s *publicService) CategoryArchive(ctx context.Context, categorySlug string, page int) (*models.CategoryArchive, error) {
	category, err := s.repos.Category.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}

	perPage := s.cfg.Content.ArticlesPerPage
	total, err := s.repos.Article.CountByCategory(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Article.GetByCategory(ctx, categorySlug, page, perPage)
	if err != nil {
		return nil, err
	}

	return &models.CategoryArchive{
		Category:   category,
		Items:      items,
		Pagination: models.NewPagination(total, perPage, page),
	}, nil
}

// Search ranks visible articles. A blank query returns no results without
// querying the store.
func (s *publicService) Search(ctx context.Context, query string, page int) (*models.SearchResult, error) {
	query = strings.TrimSpace(slug.StripTags(query))
	if utf8.RuneCountInString(query) > maxQueryLength {
		query = string([]rune(query)[:maxQueryLength])
	}

	perPage := s.cfg.Content.ArticlesPerPage
	result := &models.SearchResult{
		Query:      query,
		Items:      []*models.Article{},
		Pagination: models.NewPagination(0, perPage, page),
	}
	if query == "" {
		return result, nil
	}

	total, err := s.repos.Article.CountSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Article.Search(ctx, query, page, perPage)
	if err != nil {
		return nil, err
	}

	result.Items = items
	result.Pagination = models.NewPagination(total, perPage, page)
	return result, nil
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders the sitemap.xml document: home, categories, then articles
func (s *publicService) Sitemap(ctx context.Context) ([]byte, error) {
	entries, err := s.repos.Article.GetAllForSitemap(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repos.Category.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: s.cfg.AppURL + "/", ChangeFreq: "weekly", Priority: "0.8"})
	for _, c := range categories {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.cfg.AppURL + "/category/" + c.Slug,
			ChangeFreq: "daily",
			Priority:   "0.7",
		})
	}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.cfg.AppURL + "/articles/" + e.Slug,
			LastMod:    e.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "monthly",
			Priority:   "0.9",
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots renders robots.txt
func (s *publicService) Robots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /v1/" + s.cfg.Security.AdminPath + "/\n")
	b.WriteString("Disallow: /v1/search\n")
	b.WriteString("Allow: /\n\n")
	b.WriteString("Sitemap: " + s.cfg.AppURL + "/sitemap.xml\n")
	return b.String()
}
