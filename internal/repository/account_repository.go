package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// AccountRepository handles account database operations.
type AccountRepository struct {
	db database.PGXDB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.PGXDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create adds a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.DecimalPlaces == 0 {
		account.DecimalPlaces = models.DefaultDecimalPlaces
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, currency_id, decimal_places)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, account.UserID, account.Name, account.CurrencyID, account.DecimalPlaces,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID. Returns nil when it does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	var acc models.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, currency_id, decimal_places, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.CurrencyID,
		&acc.DecimalPlaces, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}

// GetByUserID retrieves all accounts belonging to a user.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, currency_id, decimal_places, created_at, updated_at
		FROM accounts WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// GetByCurrency retrieves all of a user's accounts denominated in a currency.
func (r *AccountRepository) GetByCurrency(ctx context.Context, userID int64, currencyID int) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, currency_id, decimal_places, created_at, updated_at
		FROM accounts WHERE user_id = $1 AND currency_id = $2
		ORDER BY name
	`, userID, currencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by currency: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// Update modifies an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			name = $2,
			currency_id = $3,
			decimal_places = $4,
			updated_at = NOW()
		WHERE id = $1
	`, account.ID, account.Name, account.CurrencyID, account.DecimalPlaces)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes an account. Fails while transactions still reference it
// (delete-protected by the schema).
func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func scanAccounts(rows pgx.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.CurrencyID,
			&acc.DecimalPlaces, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}
