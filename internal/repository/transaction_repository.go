package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

const transactionColumns = `
	id, user_id, account_id, category_id, amount, description, date,
	to_main_currency_amount, kind, exchange_type, related_transaction_id,
	commission_type, exchange_from_id, exchange_to_id, created_at, updated_at`

// TransactionRepository handles transaction database operations for all
// kinds: plain entries, exchange legs and commissions.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create adds a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.Kind == "" {
		tx.Kind = models.KindPlain
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (
			user_id, account_id, category_id, amount, description, date,
			to_main_currency_amount, kind, exchange_type, related_transaction_id,
			commission_type, exchange_from_id, exchange_to_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, tx.UserID, tx.AccountID, tx.CategoryID, tx.Amount, tx.Description, tx.Date,
		tx.ToMainCurrencyAmount, tx.Kind, tx.ExchangeType, tx.RelatedTransactionID,
		tx.CommissionType, tx.ExchangeFromID, tx.ExchangeToID,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by ID. Returns nil when it does not exist.
func (r *TransactionRepository) GetByID(ctx context.Context, id int) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// Update modifies an existing transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions SET
			account_id = $2,
			category_id = $3,
			amount = $4,
			description = $5,
			date = $6,
			to_main_currency_amount = $7,
			related_transaction_id = $8,
			updated_at = NOW()
		WHERE id = $1
	`, tx.ID, tx.AccountID, tx.CategoryID, tx.Amount, tx.Description, tx.Date,
		tx.ToMainCurrencyAmount, tx.RelatedTransactionID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// SetRelated links an exchange leg to its pair.
func (r *TransactionRepository) SetRelated(ctx context.Context, id, relatedID int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions SET related_transaction_id = $2, updated_at = NOW() WHERE id = $1
	`, id, relatedID)
	if err != nil {
		return fmt.Errorf("failed to link transactions: %w", err)
	}
	return nil
}

// Delete removes a transaction. Deleting an exchange leg cascades to its
// pair and to commission rows referencing it.
func (r *TransactionRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ListByAccount retrieves an account's transactions within a date range,
// newest first.
func (r *TransactionRepository) ListByAccount(
	ctx context.Context,
	accountID int,
	from, to time.Time,
) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC, id DESC
	`, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SumByAccount sums all transaction amounts for an account. A nil until
// yields the current balance; otherwise only transactions dated at or
// before until count.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID int, until *time.Time) (int64, error) {
	var total int64
	var err error
	if until == nil {
		err = r.db.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1
		`, accountID).Scan(&total)
	} else {
		err = r.db.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM transactions
			WHERE account_id = $1 AND date <= $2
		`, accountID, *until).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to sum account transactions: %w", err)
	}
	return total, nil
}

// SumByAccountBefore sums transaction amounts dated strictly before the
// given instant. Used for report opening balances.
func (r *TransactionRepository) SumByAccountBefore(ctx context.Context, accountID int, before time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND date < $2
	`, accountID, before).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum account transactions: %w", err)
	}
	return total, nil
}

// SumByAccountInRange sums an account's transaction amounts inside the
// inclusive window, restricted to one sign: positive amounts when positive
// is true (income), negative ones otherwise (expenses).
func (r *TransactionRepository) SumByAccountInRange(
	ctx context.Context,
	accountID int,
	from, to time.Time,
	positive bool,
) (int64, error) {
	cmp := "< 0"
	if positive {
		cmp = "> 0"
	}
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND date >= $2 AND date <= $3 AND amount `+cmp,
		accountID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum account transactions in range: %w", err)
	}
	return total, nil
}

// SumByCurrencyInRange sums transaction amounts of one sign across all of
// a user's accounts sharing a currency, inside the inclusive window.
//
// When excludeInternal is true, exchange legs whose related leg also sits
// in an account of the same currency are skipped: a transfer between two
// accounts of currency X nets to zero for X and must not inflate its
// income or expenses. Exchanges into or out of a different currency still
// count, because money genuinely entered or left the currency.
func (r *TransactionRepository) SumByCurrencyInRange(
	ctx context.Context,
	userID int64,
	currencyID int,
	from, to time.Time,
	positive bool,
	excludeInternal bool,
) (int64, error) {
	cmp := "< 0"
	if positive {
		cmp = "> 0"
	}
	query := `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = $1
		  AND a.currency_id = $2
		  AND t.date >= $3 AND t.date <= $4
		  AND t.amount ` + cmp
	if excludeInternal {
		query += `
		  AND NOT (
			t.kind = 'exchange' AND EXISTS (
				SELECT 1
				FROM transactions rel
				JOIN accounts rela ON rela.id = rel.account_id
				WHERE rel.id = t.related_transaction_id
				  AND rela.currency_id = $2
			)
		  )`
	}

	var total int64
	err := r.db.QueryRow(ctx, query, userID, currencyID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum currency transactions in range: %w", err)
	}
	return total, nil
}

// CommissionsForExchange retrieves commission rows derived from an
// exchange leg.
func (r *TransactionRepository) CommissionsForExchange(ctx context.Context, exchangeID int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE kind = 'commission' AND (exchange_from_id = $1 OR exchange_to_id = $1)
		ORDER BY id
	`, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.CategoryID, &tx.Amount,
		&tx.Description, &tx.Date, &tx.ToMainCurrencyAmount, &tx.Kind,
		&tx.ExchangeType, &tx.RelatedTransactionID, &tx.CommissionType,
		&tx.ExchangeFromID, &tx.ExchangeToID, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
