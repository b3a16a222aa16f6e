// Package ledger implements the ledger core: transaction lifecycle,
// balance queries and the currency-exchange orchestrator. Mutating
// operations return the set of affected account IDs; the caller is
// responsible for enqueueing report recomputation for them — nothing here
// fires implicit hooks on writes.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/money"
	"gitlab.com/yelinaung/ledger-engine/internal/rates"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// Service exposes ledger operations. All amounts cross the API as decimal
// values in account-currency units; the service scales them to integers
// using each account's decimal places before anything is persisted.
type Service struct {
	db      database.DB
	tracker *rates.Tracker
}

// NewService creates a ledger Service.
func NewService(db database.DB, tracker *rates.Tracker) *Service {
	return &Service{db: db, tracker: tracker}
}

// NewTransaction is the input for creating a plain transaction.
type NewTransaction struct {
	UserID      int64
	AccountID   int
	CategoryID  *int
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// TransactionUpdate is the input for editing an existing transaction.
// Amount and Date replace the stored values; AccountID may move the
// transaction to another account.
type TransactionUpdate struct {
	ID          int
	AccountID   int
	CategoryID  *int
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// CreateTransaction records a single transaction and returns it along with
// the accounts whose reports require recomputation.
func (s *Service) CreateTransaction(ctx context.Context, in NewTransaction) (*models.Transaction, []int, error) {
	created, affected, err := s.CreateTransactions(ctx, []NewTransaction{in})
	if err != nil {
		return nil, nil, err
	}
	return &created[0], affected, nil
}

// CreateTransactions records a batch atomically: the first failing record
// aborts the batch and nothing is committed.
func (s *Service) CreateTransactions(ctx context.Context, ins []NewTransaction) ([]models.Transaction, []int, error) {
	if len(ins) == 0 {
		return nil, nil, fmt.Errorf("%w: empty batch", ErrValidation)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	accounts := repository.NewAccountRepository(tx)
	transactions := repository.NewTransactionRepository(tx)

	created := make([]models.Transaction, 0, len(ins))
	affected := newAccountSet()
	for _, in := range ins {
		if err := validateNewTransaction(in); err != nil {
			return nil, nil, err
		}

		account, err := accounts.GetByID(ctx, in.AccountID)
		if err != nil {
			return nil, nil, err
		}
		if account == nil {
			return nil, nil, fmt.Errorf("%w: account %d", ErrAccountNotFound, in.AccountID)
		}

		toMain, err := s.tracker.ToMainCurrency(ctx, in.UserID, account, in.Amount, in.Date)
		if err != nil {
			return nil, nil, err
		}

		record := &models.Transaction{
			UserID:               in.UserID,
			AccountID:            account.ID,
			CategoryID:           in.CategoryID,
			Amount:               money.Scale(in.Amount, account.DecimalPlaces),
			Description:          in.Description,
			Date:                 in.Date,
			ToMainCurrencyAmount: toMain,
			Kind:                 models.KindPlain,
		}
		if err := transactions.Create(ctx, record); err != nil {
			return nil, nil, err
		}

		created = append(created, *record)
		affected.add(account.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction batch: %w", err)
	}
	return created, affected.ids(), nil
}

// UpdateTransaction edits an existing transaction. The main-currency
// annotation is recomputed against the (possibly new) account's currency,
// or cleared when that currency is the user's main one, so stale
// cross-currency figures never survive an edit.
func (s *Service) UpdateTransaction(ctx context.Context, in TransactionUpdate) (*models.Transaction, []int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	accounts := repository.NewAccountRepository(tx)
	transactions := repository.NewTransactionRepository(tx)

	existing, err := transactions.GetByID(ctx, in.ID)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, nil, fmt.Errorf("%w: transaction %d", ErrValidation, in.ID)
	}

	account, err := accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("%w: account %d", ErrAccountNotFound, in.AccountID)
	}
	if in.Date.IsZero() {
		return nil, nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	toMain, err := s.tracker.ToMainCurrency(ctx, existing.UserID, account, in.Amount, in.Date)
	if err != nil {
		return nil, nil, err
	}

	affected := newAccountSet()
	affected.add(existing.AccountID)
	affected.add(account.ID)

	existing.AccountID = account.ID
	existing.CategoryID = in.CategoryID
	existing.Amount = money.Scale(in.Amount, account.DecimalPlaces)
	existing.Description = in.Description
	existing.Date = in.Date
	existing.ToMainCurrencyAmount = toMain

	if err := transactions.Update(ctx, existing); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction update: %w", err)
	}
	return existing, affected.ids(), nil
}

// DeleteTransaction removes a transaction and returns the accounts whose
// reports require recomputation. Deleting an exchange leg cascades to the
// paired leg and any commission derived from it.
func (s *Service) DeleteTransaction(ctx context.Context, id int) ([]int, error) {
	transactions := repository.NewTransactionRepository(s.db)

	existing, err := transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: transaction %d", ErrValidation, id)
	}

	affected := newAccountSet()
	affected.add(existing.AccountID)
	if existing.RelatedTransactionID != nil {
		if related, err := transactions.GetByID(ctx, *existing.RelatedTransactionID); err == nil && related != nil {
			affected.add(related.AccountID)
		}
	}

	if err := transactions.Delete(ctx, id); err != nil {
		return nil, err
	}
	return affected.ids(), nil
}

// BalanceOf sums all transaction amounts for an account, optionally
// bounded by date. The result is exact: amounts are scaled integers.
func (s *Service) BalanceOf(ctx context.Context, accountID int, asOf *time.Time) (int64, error) {
	return repository.NewTransactionRepository(s.db).SumByAccount(ctx, accountID, asOf)
}

// AccountsSharingCurrency returns all of a user's accounts denominated in
// the given currency.
func (s *Service) AccountsSharingCurrency(ctx context.Context, userID int64, currencyID int) ([]models.Account, error) {
	currency, err := repository.NewCurrencyRepository(s.db).GetByID(ctx, currencyID)
	if err != nil {
		return nil, err
	}
	if currency == nil {
		return nil, fmt.Errorf("%w: currency %d", ErrCurrencyNotFound, currencyID)
	}
	return repository.NewAccountRepository(s.db).GetByCurrency(ctx, userID, currencyID)
}

func validateNewTransaction(in NewTransaction) error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if in.Amount.IsZero() {
		return fmt.Errorf("%w: amount must be non-zero", ErrValidation)
	}
	return nil
}

// accountSet collects affected account IDs preserving insertion order.
type accountSet struct {
	seen  map[int]struct{}
	order []int
}

func newAccountSet() *accountSet {
	return &accountSet{seen: make(map[int]struct{})}
}

func (s *accountSet) add(id int) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *accountSet) ids() []int { return s.order }
