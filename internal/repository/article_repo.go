package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
	"github.com/lib/pq"
)

// publicGate is the visibility predicate every public read path applies.
// The comparison time is bound as a parameter so the store and the
// application agree on "now".
const publicGate = `a.status = 'published' AND a.published_at IS NOT NULL AND a.published_at <= %s`

const summaryColumns = `
	a.id, a.title, a.slug, a.excerpt, a.featured_image, a.status,
	a.published_at, a.reading_time, a.view_count, a.updated_at,
	c.name, c.slug, ad.username`

const fullColumns = `
	a.id, a.admin_id, a.category_id, a.title, a.slug, a.excerpt, a.body,
	a.featured_image, a.status, a.published_at, a.scheduled_at,
	a.meta_title, a.meta_description, a.reading_time, a.view_count,
	a.created_at, a.updated_at,
	c.name, c.slug, ad.username`

const displayJoins = `
	LEFT JOIN categories c ON c.id = a.category_id
	LEFT JOIN admins ad    ON ad.id = a.admin_id`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db  *database.DB
	now func() time.Time
}

// NewArticleRepo creates a new article repository. now supplies the clock the
// publication gate compares against.
func NewArticleRepo(db *database.DB, now func() time.Time) ArticleRepository {
	return &articleRepo{db: db, now: now}
}

func gate(placeholder string) string {
	return fmt.Sprintf(publicGate, placeholder)
}

// Create inserts a new article and synchronizes its tags in one transaction
func (r *articleRepo) Create(ctx context.Context, data *models.ArticleData) (int64, error) {
	query := `
		INSERT INTO articles
			(admin_id, category_id, title, slug, excerpt, body, featured_image,
			 status, published_at, scheduled_at, meta_title, meta_description, reading_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			nullInt64(data.AdminID), nullInt64(data.CategoryID), data.Title, data.Slug,
			nullString(data.Excerpt), data.Body, nullString(data.FeaturedImage),
			string(data.Status), nullTime(data.PublishedAt), nullTime(data.ScheduledAt),
			nullString(data.MetaTitle), nullString(data.MetaDescription), data.ReadingTime,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err, "articles_slug_key") {
				return ErrSlugTaken
			}
			return err
		}

		if data.Tags != nil {
			return syncTags(ctx, tx, id, data.Tags)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites every mutable column except the author and synchronizes tags.
// It reports false when no article has the given id.
func (r *articleRepo) Update(ctx context.Context, id int64, data *models.ArticleData) (bool, error) {
	query := `
		UPDATE articles SET
			category_id = $1, title = $2, slug = $3, excerpt = $4, body = $5,
			featured_image = $6, status = $7, published_at = $8, scheduled_at = $9,
			meta_title = $10, meta_description = $11, reading_time = $12
		WHERE id = $13
	`

	found := false
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			nullInt64(data.CategoryID), data.Title, data.Slug, nullString(data.Excerpt), data.Body,
			nullString(data.FeaturedImage), string(data.Status), nullTime(data.PublishedAt),
			nullTime(data.ScheduledAt), nullString(data.MetaTitle), nullString(data.MetaDescription),
			data.ReadingTime, id,
		)
		if err != nil {
			if isUniqueViolation(err, "articles_slug_key") {
				return ErrSlugTaken
			}
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		found = true

		if data.Tags != nil {
			return syncTags(ctx, tx, id, data.Tags)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes an article together with its tag associations
func (r *articleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	found := false
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = $1", id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		found = rows > 0
		return nil
	})
	return found, err
}

// syncTags replaces the article's association set. Unknown tag ids are ignored.
func syncTags(ctx context.Context, tx *sql.Tx, articleID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = $1", articleID); err != nil {
		return fmt.Errorf("failed to clear article tags: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO article_tags (article_id, tag_id)
		SELECT $1, t.id FROM tags t WHERE t.id = ANY($2)
		ON CONFLICT DO NOTHING
	`, articleID, pq.Array(tagIDs))
	if err != nil {
		return fmt.Errorf("failed to insert article tags: %w", err)
	}
	return nil
}

// GetPublished returns one page of publicly visible articles, newest first
func (r *articleRepo) GetPublished(ctx context.Context, page, perPage int) ([]*models.Article, error) {
	query := `SELECT ` + summaryColumns + ` FROM articles a` + displayJoins + `
		WHERE ` + gate("$1") + `
		ORDER BY a.published_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`

	return r.querySummaries(ctx, query, r.now(), perPage, models.Offset(page, perPage))
}

// CountPublished returns the number of publicly visible articles
func (r *articleRepo) CountPublished(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles a WHERE `+gate("$1"), r.now()).Scan(&count)
	return count, err
}

// GetBySlug returns a visible article with its tags and records one view.
// Every successful call increments view_count.
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := `SELECT ` + fullColumns + ` FROM articles a` + displayJoins + `
		WHERE a.slug = $1 AND ` + gate("$2") + `
		LIMIT 1`

	article, err := scanFull(r.db.QueryRowContext(ctx, query, slug, r.now()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, err := r.GetTagsForArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.Tags = tags

	err = r.db.QueryRowContext(ctx,
		"UPDATE articles SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count",
		article.ID,
	).Scan(&article.ViewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}

	return article, nil
}

// GetByCategory returns one page of visible articles in the category
func (r *articleRepo) GetByCategory(ctx context.Context, categorySlug string, page, perPage int) ([]*models.Article, error) {
	query := `SELECT ` + summaryColumns + ` FROM articles a
		INNER JOIN categories c ON c.id = a.category_id AND c.slug = $1
		LEFT JOIN admins ad     ON ad.id = a.admin_id
		WHERE ` + gate("$2") + `
		ORDER BY a.published_at DESC, a.id DESC
		LIMIT $3 OFFSET $4`

	return r.querySummaries(ctx, query, categorySlug, r.now(), perPage, models.Offset(page, perPage))
}

// CountByCategory returns the number of visible articles in the category
func (r *articleRepo) CountByCategory(ctx context.Context, categorySlug string) (int, error) {
	query := `SELECT COUNT(*) FROM articles a
		INNER JOIN categories c ON c.id = a.category_id AND c.slug = $1
		WHERE ` + gate("$2")

	var count int
	err := r.db.QueryRowContext(ctx, query, categorySlug, r.now()).Scan(&count)
	return count, err
}

// Search ranks visible articles against a plain-text query
func (r *articleRepo) Search(ctx context.Context, query string, page, perPage int) ([]*models.Article, error) {
	sqlQuery := `SELECT ` + summaryColumns + `, ts_rank(a.search_vector, q) AS relevance
		FROM articles a` + displayJoins + `,
		     plainto_tsquery('english', $1) q
		WHERE ` + gate("$2") + ` AND a.search_vector @@ q
		ORDER BY relevance DESC, a.published_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, sqlQuery, query, r.now(), perPage, models.Offset(page, perPage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		var relevance float64
		article, err := scanSummary(rows, &relevance)
		if err != nil {
			return nil, err
		}
		article.Relevance = relevance
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// CountSearch returns the number of visible articles matching the query
func (r *articleRepo) CountSearch(ctx context.Context, query string) (int, error) {
	sqlQuery := `SELECT COUNT(*) FROM articles a
		WHERE ` + gate("$2") + ` AND a.search_vector @@ plainto_tsquery('english', $1)`

	var count int
	err := r.db.QueryRowContext(ctx, sqlQuery, query, r.now()).Scan(&count)
	return count, err
}

// GetAllForSitemap returns slug and last modification of every visible article
func (r *articleRepo) GetAllForSitemap(ctx context.Context) ([]models.SitemapEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.slug, a.updated_at FROM articles a
		WHERE `+gate("$1")+`
		ORDER BY a.published_at DESC`, r.now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SitemapEntry
	for rows.Next() {
		var e models.SitemapEntry
		if err := rows.Scan(&e.Slug, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AdminGetAll lists articles of every status, most recently edited first.
// An empty status lists all.
func (r *articleRepo) AdminGetAll(ctx context.Context, page, perPage int, status models.ArticleStatus) ([]*models.Article, error) {
	query := `SELECT ` + summaryColumns + ` FROM articles a` + displayJoins + `
		WHERE ($1::text = '' OR a.status = $1::text)
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`

	return r.querySummaries(ctx, query, string(status), perPage, models.Offset(page, perPage))
}

// AdminCount returns the number of articles with the status, or all when empty
func (r *articleRepo) AdminCount(ctx context.Context, status models.ArticleStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE ($1::text = '' OR status = $1::text)", string(status),
	).Scan(&count)
	return count, err
}

// AdminGetByID returns an article of any status with its tag ids
func (r *articleRepo) AdminGetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + fullColumns + `,
			COALESCE(array_agg(at.tag_id ORDER BY at.tag_id) FILTER (WHERE at.tag_id IS NOT NULL), '{}')
		FROM articles a` + displayJoins + `
		LEFT JOIN article_tags at ON at.article_id = a.id
		WHERE a.id = $1
		GROUP BY a.id, c.name, c.slug, ad.username`

	var tagIDs []int64
	article, err := scanFull(r.db.QueryRowContext(ctx, query, id), pq.Array(&tagIDs))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	article.TagIDs = tagIDs
	return article, nil
}

// GetTagsForArticle returns the article's tags ordered by name
func (r *articleRepo) GetTagsForArticle(ctx context.Context, articleID int64) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM tags t
		INNER JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = $1
		ORDER BY t.name`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SlugExists checks whether another article already holds the slug
func (r *articleRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// Stats returns the dashboard counters
func (r *articleRepo) Stats(ctx context.Context) (*models.ArticleStats, error) {
	var s models.ArticleStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COALESCE(SUM(view_count), 0),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM tags)
		FROM articles`,
	).Scan(&s.Published, &s.Draft, &s.Scheduled, &s.Views, &s.Categories, &s.Tags)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *articleRepo) querySummaries(ctx context.Context, query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []*models.Article{}
	for rows.Next() {
		article, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner, extra ...interface{}) (*models.Article, error) {
	var a models.Article
	var excerpt, image, categoryName, categorySlug, author sql.NullString
	var publishedAt sql.NullTime
	var status string

	dest := []interface{}{
		&a.ID, &a.Title, &a.Slug, &excerpt, &image, &status,
		&publishedAt, &a.ReadingTime, &a.ViewCount, &a.UpdatedAt,
		&categoryName, &categorySlug, &author,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	a.Excerpt = excerpt.String
	a.FeaturedImage = image.String
	a.Status = models.ArticleStatus(status)
	a.CategoryName = categoryName.String
	a.CategorySlug = categorySlug.String
	a.Author = author.String
	if publishedAt.Valid {
		a.PublishedAt = &publishedAt.Time
	}
	return &a, nil
}

func scanFull(row rowScanner, extra ...interface{}) (*models.Article, error) {
	var a models.Article
	var adminID, categoryID sql.NullInt64
	var excerpt, image, metaTitle, metaDesc, categoryName, categorySlug, author sql.NullString
	var publishedAt, scheduledAt sql.NullTime
	var status string

	dest := []interface{}{
		&a.ID, &adminID, &categoryID, &a.Title, &a.Slug, &excerpt, &a.Body,
		&image, &status, &publishedAt, &scheduledAt,
		&metaTitle, &metaDesc, &a.ReadingTime, &a.ViewCount,
		&a.CreatedAt, &a.UpdatedAt,
		&categoryName, &categorySlug, &author,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if adminID.Valid {
		a.AdminID = &adminID.Int64
	}
	if categoryID.Valid {
		a.CategoryID = &categoryID.Int64
	}
	a.Excerpt = excerpt.String
	a.FeaturedImage = image.String
	a.Status = models.ArticleStatus(status)
	a.MetaTitle = metaTitle.String
	a.MetaDescription = metaDesc.String
	a.CategoryName = categoryName.String
	a.CategorySlug = categorySlug.String
	a.Author = author.String
	if publishedAt.Valid {
		a.PublishedAt = &publishedAt.Time
	}
	if scheduledAt.Valid {
		a.ScheduledAt = &scheduledAt.Time
	}
	return &a, nil
}
