package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
)

// adminRepo is the concrete implementation of AdminRepository
type adminRepo struct {
	db *database.DB
}

// NewAdminRepo creates a new admin repository
func NewAdminRepo(db *database.DB) AdminRepository {
	return &adminRepo{db: db}
}

// Create inserts an admin account. Email is stored lowercased.
func (r *adminRepo) Create(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (username, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return r.db.QueryRowContext(ctx, query,
		admin.Username, admin.Email, admin.Password, admin.Role,
	).Scan(&admin.ID, &admin.CreatedAt)
}

// FindByID retrieves an admin by id
func (r *adminRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	return r.findOne(ctx, "WHERE id = $1", id)
}

// FindByEmail retrieves an admin by email, case-insensitively
func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.findOne(ctx, "WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *adminRepo) findOne(ctx context.Context, where string, arg interface{}) (*models.Admin, error) {
	var a models.Admin
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, role, created_at FROM admins "+where+" LIMIT 1", arg,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.Role, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdatePassword replaces the stored password hash
func (r *adminRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE admins SET password = $1 WHERE id = $2", hash, id)
	return err
}
