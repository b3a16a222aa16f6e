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

// ReportRepository handles cached report rows for accounts and currencies.
// Lookup-or-create is atomic (unique period keys), so duplicate rows for
// the same (user, account|currency, period) cannot be created; the
// duplicate cleanup calls remain as a safety net for pre-existing data.
type ReportRepository struct {
	db database.PGXDB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db database.PGXDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindOrCreateAccountReport returns the report row for the exact
// (user, account, period) key, creating it with zero totals when absent.
func (r *ReportRepository) FindOrCreateAccountReport(
	ctx context.Context,
	userID int64,
	accountID int,
	fromDate, toDate time.Time,
) (*models.ReportAccount, error) {
	var rep models.ReportAccount
	err := r.db.QueryRow(ctx, `
		INSERT INTO report_accounts (user_id, account_id, from_date, to_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, account_id, from_date, to_date)
			DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, account_id, from_date, to_date,
			initial_balance, end_balance, total_income, total_expenses,
			created_at, updated_at
	`, userID, accountID, fromDate, toDate).Scan(
		&rep.ID, &rep.UserID, &rep.AccountID, &rep.FromDate, &rep.ToDate,
		&rep.InitialBalance, &rep.EndBalance, &rep.TotalIncome, &rep.TotalExpenses,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create account report: %w", err)
	}
	return &rep, nil
}

// UpdateAccountTotals persists recomputed totals for an account report.
func (r *ReportRepository) UpdateAccountTotals(ctx context.Context, rep *models.ReportAccount) error {
	_, err := r.db.Exec(ctx, `
		UPDATE report_accounts SET
			initial_balance = $2,
			end_balance = $3,
			total_income = $4,
			total_expenses = $5,
			updated_at = NOW()
		WHERE id = $1
	`, rep.ID, rep.InitialBalance, rep.EndBalance, rep.TotalIncome, rep.TotalExpenses)
	if err != nil {
		return fmt.Errorf("failed to update account report: %w", err)
	}
	return nil
}

// MostRecentForAccount returns the account report with the latest period
// end, or nil when the account has no reports yet.
func (r *ReportRepository) MostRecentForAccount(ctx context.Context, accountID int) (*models.ReportAccount, error) {
	var rep models.ReportAccount
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, account_id, from_date, to_date,
			initial_balance, end_balance, total_income, total_expenses,
			created_at, updated_at
		FROM report_accounts
		WHERE account_id = $1
		ORDER BY to_date DESC, id DESC
		LIMIT 1
	`, accountID).Scan(
		&rep.ID, &rep.UserID, &rep.AccountID, &rep.FromDate, &rep.ToDate,
		&rep.InitialBalance, &rep.EndBalance, &rep.TotalIncome, &rep.TotalExpenses,
		&rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent account report: %w", err)
	}
	return &rep, nil
}

// FindOrCreateCurrencyReport returns the report row for the exact
// (user, currency, period) key, creating it with zero totals when absent.
func (r *ReportRepository) FindOrCreateCurrencyReport(
	ctx context.Context,
	userID int64,
	currencyID int,
	fromDate, toDate time.Time,
) (*models.ReportCurrency, error) {
	var rep models.ReportCurrency
	err := r.db.QueryRow(ctx, `
		INSERT INTO report_currencies (user_id, currency_id, from_date, to_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, currency_id, from_date, to_date)
			DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, currency_id, from_date, to_date,
			initial_balance, end_balance, total_income, total_expenses,
			created_at, updated_at
	`, userID, currencyID, fromDate, toDate).Scan(
		&rep.ID, &rep.UserID, &rep.CurrencyID, &rep.FromDate, &rep.ToDate,
		&rep.InitialBalance, &rep.EndBalance, &rep.TotalIncome, &rep.TotalExpenses,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create currency report: %w", err)
	}
	return &rep, nil
}

// UpdateCurrencyTotals persists recomputed totals for a currency report.
func (r *ReportRepository) UpdateCurrencyTotals(ctx context.Context, rep *models.ReportCurrency) error {
	_, err := r.db.Exec(ctx, `
		UPDATE report_currencies SET
			initial_balance = $2,
			end_balance = $3,
			total_income = $4,
			total_expenses = $5,
			updated_at = NOW()
		WHERE id = $1
	`, rep.ID, rep.InitialBalance, rep.EndBalance, rep.TotalIncome, rep.TotalExpenses)
	if err != nil {
		return fmt.Errorf("failed to update currency report: %w", err)
	}
	return nil
}

// MostRecentForCurrency returns the user's currency report with the latest
// period end, or nil when none exists.
func (r *ReportRepository) MostRecentForCurrency(ctx context.Context, userID int64, currencyID int) (*models.ReportCurrency, error) {
	var rep models.ReportCurrency
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, currency_id, from_date, to_date,
			initial_balance, end_balance, total_income, total_expenses,
			created_at, updated_at
		FROM report_currencies
		WHERE user_id = $1 AND currency_id = $2
		ORDER BY to_date DESC, id DESC
		LIMIT 1
	`, userID, currencyID).Scan(
		&rep.ID, &rep.UserID, &rep.CurrencyID, &rep.FromDate, &rep.ToDate,
		&rep.InitialBalance, &rep.EndBalance, &rep.TotalIncome, &rep.TotalExpenses,
		&rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent currency report: %w", err)
	}
	return &rep, nil
}

// SumAccountReportBalances adds up initial and end balances over all of a
// user's account reports whose account shares the currency and whose
// period matches exactly.
func (r *ReportRepository) SumAccountReportBalances(
	ctx context.Context,
	userID int64,
	currencyID int,
	fromDate, toDate time.Time,
) (initial, end int64, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(ra.initial_balance), 0), COALESCE(SUM(ra.end_balance), 0)
		FROM report_accounts ra
		JOIN accounts a ON a.id = ra.account_id
		WHERE ra.user_id = $1
		  AND a.currency_id = $2
		  AND ra.from_date = $3
		  AND ra.to_date = $4
	`, userID, currencyID, fromDate, toDate).Scan(&initial, &end)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum account report balances: %w", err)
	}
	return initial, end, nil
}

// DeleteDuplicateAccountReports removes all but the oldest row sharing a
// (user, account, period) key. Returns the number of deleted rows.
func (r *ReportRepository) DeleteDuplicateAccountReports(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM report_accounts ra
		USING report_accounts keep
		WHERE ra.user_id = keep.user_id
		  AND ra.account_id = keep.account_id
		  AND ra.from_date = keep.from_date
		  AND ra.to_date = keep.to_date
		  AND ra.id > keep.id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate account reports: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteDuplicateCurrencyReports removes all but the oldest row sharing a
// (user, currency, period) key. Returns the number of deleted rows.
func (r *ReportRepository) DeleteDuplicateCurrencyReports(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM report_currencies rc
		USING report_currencies keep
		WHERE rc.user_id = keep.user_id
		  AND rc.currency_id = keep.currency_id
		  AND rc.from_date = keep.from_date
		  AND rc.to_date = keep.to_date
		  AND rc.id > keep.id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate currency reports: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
