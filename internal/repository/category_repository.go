package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create adds a new category. A nil UserID makes it globally visible.
func (r *CategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	if cat.Type == "" {
		cat.Type = models.CategoryTypeExpense
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, color, description, type, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, cat.UserID, cat.Name, cat.Color, cat.Description, cat.Type, cat.ParentID,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID. Returns nil when it does not exist.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, color, description, type, parent_id, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &cat.Description,
		&cat.Type, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// GetByName retrieves a category by exact name, preferring the user's own
// over a global one. Returns nil when neither exists.
func (r *CategoryRepository) GetByName(ctx context.Context, userID int64, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, color, description, type, parent_id, created_at, updated_at
		FROM categories
		WHERE name = $2 AND (user_id = $1 OR user_id IS NULL)
		ORDER BY user_id NULLS LAST
		LIMIT 1
	`, userID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &cat.Description,
		&cat.Type, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &cat, nil
}

// GetVisible retrieves the categories visible to a user: global ones plus
// the user's own.
func (r *CategoryRepository) GetVisible(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, color, description, type, parent_id, created_at, updated_at
		FROM categories
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &cat.Description,
			&cat.Type, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Update modifies a category the user owns. Global categories are
// read-only to users.
func (r *CategoryRepository) Update(ctx context.Context, cat *models.Category) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE categories SET
			name = $3,
			color = $4,
			description = $5,
			type = $6,
			parent_id = $7,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, cat.ID, cat.UserID, cat.Name, cat.Color, cat.Description, cat.Type, cat.ParentID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d not owned by user", cat.ID)
	}
	return nil
}

// Delete removes a category the user owns. Transactions referencing it
// keep existing with a cleared category.
func (r *CategoryRepository) Delete(ctx context.Context, userID int64, id int) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d not owned by user", id)
	}
	return nil
}
