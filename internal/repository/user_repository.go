// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	var mainCurrencyID *int
	if user.MainCurrencyID != 0 {
		mainCurrencyID = &user.MainCurrencyID
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, main_currency_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, user.Username, mainCurrencyID).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	var mainCurrencyID *int
	err := r.db.QueryRow(ctx, `
		SELECT id, username, main_currency_id, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &mainCurrencyID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if mainCurrencyID != nil {
		user.MainCurrencyID = *mainCurrencyID
	}
	return &user, nil
}

// SetMainCurrency updates the user's reference currency.
func (r *UserRepository) SetMainCurrency(ctx context.Context, userID int64, currencyID int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET main_currency_id = $2, updated_at = NOW() WHERE id = $1
	`, userID, currencyID)
	if err != nil {
		return fmt.Errorf("failed to set main currency: %w", err)
	}
	return nil
}
