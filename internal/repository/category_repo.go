package repository

import (
	"context"
	"database/sql"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
)

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

// Create inserts a category and fills in its id and creation time
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		category.Name, category.Slug, nullString(category.Description),
	).Scan(&category.ID, &category.CreatedAt)
	if isUniqueViolation(err, "") {
		return ErrSlugTaken
	}
	return err
}

// Delete removes a category. Its articles keep existing without one.
func (r *categoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// GetAll returns every category by name with its published article count
func (r *categoryRepo) GetAll(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at,
		       COUNT(a.id) FILTER (WHERE a.status = 'published' AND a.published_at <= NOW())
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &desc, &c.CreatedAt, &c.ArticleCount); err != nil {
			return nil, err
		}
		c.Description = desc.String
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetByID retrieves a category by id
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return r.getOne(ctx, "SELECT id, name, slug, description, created_at FROM categories WHERE id = $1", id)
}

// GetBySlug retrieves a category by slug
func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, "SELECT id, name, slug, description, created_at FROM categories WHERE slug = $1", slug)
}

func (r *categoryRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.Category, error) {
	var c models.Category
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Slug, &desc, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Description = desc.String
	return &c, nil
}

// SlugExists checks if a category slug is in use
func (r *categoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}
