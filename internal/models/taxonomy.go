package models

import (
	"time"
)

// Category is a soft, single-valued classification of articles
type Category struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description,omitempty" db:"description"`
	ArticleCount int       `json:"article_count" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CategoryInput is the submitted category form
type CategoryInput struct {
	Name        string `json:"name" form:"name" binding:"required,max=100"`
	Description string `json:"description" form:"description" binding:"max=500"`
}

// Tag is a free-form label attached to articles through article_tags
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// TagInput is the submitted tag form
type TagInput struct {
	Name string `json:"name" form:"name" binding:"required,max=100"`
}
