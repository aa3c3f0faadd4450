package repository

import (
	"context"
	"database/sql"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// Create inserts a tag and fills in its id
func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id",
		tag.Name, tag.Slug,
	).Scan(&tag.ID)
	if isUniqueViolation(err, "") {
		return ErrSlugTaken
	}
	return err
}

// Delete removes a tag; its article associations cascade
func (r *tagRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// GetAll returns every tag ordered by name
func (r *tagRepo) GetAll(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, slug FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// GetBySlug retrieves a tag by slug
func (r *tagRepo) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRowContext(ctx, "SELECT id, name, slug FROM tags WHERE slug = $1", slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
