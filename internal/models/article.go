package models

import (
	"time"
)

// ArticleStatus is the publication state of an article
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusScheduled ArticleStatus = "scheduled"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[ArticleStatus]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusScheduled: true,
}

// NormalizeStatus maps a submitted status onto a valid one.
// Unknown or missing values become draft; the second return reports that a
// substitution happened so callers can log it.
func NormalizeStatus(raw string) (ArticleStatus, bool) {
	status := ArticleStatus(raw)
	if ValidStatuses[status] {
		return status, false
	}
	return StatusDraft, true
}

// Article represents an article in the system
type Article struct {
	ID              int64         `json:"id" db:"id"`
	AdminID         *int64        `json:"admin_id,omitempty" db:"admin_id"`
	CategoryID      *int64        `json:"category_id,omitempty" db:"category_id"`
	Title           string        `json:"title" db:"title"`
	Slug            string        `json:"slug" db:"slug"`
	Excerpt         string        `json:"excerpt" db:"excerpt"`
	Body            string        `json:"body,omitempty" db:"body"`
	FeaturedImage   string        `json:"featured_image,omitempty" db:"featured_image"`
	Status          ArticleStatus `json:"status" db:"status"`
	PublishedAt     *time.Time    `json:"published_at,omitempty" db:"published_at"`
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty" db:"scheduled_at"`
	MetaTitle       string        `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription string        `json:"meta_description,omitempty" db:"meta_description"`
	ReadingTime     int           `json:"reading_time" db:"reading_time"`
	ViewCount       int64         `json:"view_count" db:"view_count"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`

	// Joined display metadata
	CategoryName string `json:"category_name,omitempty" db:"-"`
	CategorySlug string `json:"category_slug,omitempty" db:"-"`
	Author       string `json:"author,omitempty" db:"-"`

	Tags   []Tag   `json:"tags,omitempty" db:"-"`
	TagIDs []int64 `json:"tag_ids,omitempty" db:"-"`

	// Search relevance, only set on search results
	Relevance float64 `json:"relevance,omitempty" db:"-"`
}

// IsPubliclyVisible reports whether the article passes the publication gate at now.
func (a *Article) IsPubliclyVisible(now time.Time) bool {
	return a.Status == StatusPublished && a.PublishedAt != nil && !a.PublishedAt.After(now)
}

// SEOTitle returns the meta title, falling back to the title
func (a *Article) SEOTitle() string {
	if a.MetaTitle != "" {
		return a.MetaTitle
	}
	return a.Title
}

// SitemapEntry is the minimal projection used for sitemap/feed generation
type SitemapEntry struct {
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleStats holds the dashboard counters
type ArticleStats struct {
	Published  int   `json:"published"`
	Draft      int   `json:"draft"`
	Scheduled  int   `json:"scheduled"`
	Views      int64 `json:"views"`
	Categories int   `json:"categories"`
	Tags       int   `json:"tags"`
}

// ArticleInput is the submitted article form, bound once at the HTTP boundary.
// Timestamps arrive as strings (RFC3339 or HTML datetime-local) and are parsed
// by the orchestrator.
type ArticleInput struct {
	Title           string  `json:"title" form:"title" binding:"required,max=255"`
	Slug            string  `json:"slug" form:"slug" binding:"max=255"`
	Excerpt         string  `json:"excerpt" form:"excerpt" binding:"max=1000"`
	Body            string  `json:"body" form:"body"`
	CategoryID      int64   `json:"category_id" form:"category_id" binding:"min=0"`
	Status          string  `json:"status" form:"status"`
	PublishedAt     string  `json:"published_at" form:"published_at"`
	ScheduledAt     string  `json:"scheduled_at" form:"scheduled_at"`
	MetaTitle       string  `json:"meta_title" form:"meta_title" binding:"max=255"`
	MetaDescription string  `json:"meta_description" form:"meta_description" binding:"max=500"`
	TagIDs          []int64 `json:"tags" form:"tags"`

	// Image is the raw featured-image upload, if any
	Image *Upload `json:"-" form:"-"`
}

// Upload carries an uploaded file's bytes and client-supplied name
type Upload struct {
	Filename string
	Data     []byte
}

// ArticleData is the normalized row the store persists. Reading time and slug
// are already derived.
type ArticleData struct {
	AdminID         *int64
	CategoryID      *int64
	Title           string
	Slug            string
	Excerpt         string
	Body            string
	FeaturedImage   string
	Status          ArticleStatus
	PublishedAt     *time.Time
	ScheduledAt     *time.Time
	MetaTitle       string
	MetaDescription string
	ReadingTime     int

	// Tags replaces the association set when non-nil; nil leaves it untouched
	Tags []int64
}

// ArticleView is a public article with its resolved SEO metadata
type ArticleView struct {
	*Article
	PageTitle       string `json:"page_title"`
	MetaDescription string `json:"meta_description"`
	Canonical       string `json:"canonical"`
}

// CategoryArchive is one page of a category's visible articles
type CategoryArchive struct {
	Category   *Category  `json:"category"`
	Items      []*Article `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// SearchResult is one page of ranked search hits
type SearchResult struct {
	Query      string     `json:"query"`
	Items      []*Article `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Dashboard is the admin overview
type Dashboard struct {
	Stats  *ArticleStats `json:"stats"`
	Recent []*Article    `json:"recent"`
}
