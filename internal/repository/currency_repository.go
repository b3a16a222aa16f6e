package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// CurrencyRepository handles currency database operations.
type CurrencyRepository struct {
	db database.PGXDB
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db database.PGXDB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// Create adds a new currency. A nil UserID makes it globally visible.
func (r *CurrencyRepository) Create(ctx context.Context, currency *models.Currency) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO currencies (user_id, name, symbol)
		VALUES ($1, $2, $3)
		RETURNING id
	`, currency.UserID, currency.Name, currency.Symbol).Scan(&currency.ID)
	if err != nil {
		return fmt.Errorf("failed to create currency: %w", err)
	}
	return nil
}

// GetByID retrieves a currency by ID. Returns nil when it does not exist.
func (r *CurrencyRepository) GetByID(ctx context.Context, id int) (*models.Currency, error) {
	var cur models.Currency
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, symbol FROM currencies WHERE id = $1
	`, id).Scan(&cur.ID, &cur.UserID, &cur.Name, &cur.Symbol)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return &cur, nil
}

// GetByName retrieves a global currency by exact name.
// Returns nil when it does not exist.
func (r *CurrencyRepository) GetByName(ctx context.Context, name string) (*models.Currency, error) {
	var cur models.Currency
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, symbol FROM currencies
		WHERE name = $1 AND user_id IS NULL
	`, name).Scan(&cur.ID, &cur.UserID, &cur.Name, &cur.Symbol)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by name: %w", err)
	}
	return &cur, nil
}

// GetVisible retrieves the currencies visible to a user: global ones plus
// the user's own.
func (r *CurrencyRepository) GetVisible(ctx context.Context, userID int64) ([]models.Currency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, symbol FROM currencies
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []models.Currency
	for rows.Next() {
		var cur models.Currency
		if err := rows.Scan(&cur.ID, &cur.UserID, &cur.Name, &cur.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, cur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}
	return currencies, nil
}
