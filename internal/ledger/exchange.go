package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/ledger-engine/internal/logger"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/money"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// ExchangeRequest describes a currency exchange between two accounts.
// FromAmount and ToAmount are positive magnitudes in each account's own
// currency units — callers must not pass signed values.
type ExchangeRequest struct {
	UserID        int64
	FromAccountID int
	ToAccountID   int
	FromAmount    decimal.Decimal
	ToAmount      decimal.Decimal
	Date          time.Time
	Description   string
}

// ExchangeResult is the outcome of a successful exchange: the created
// records ordered [from leg, to leg] plus the commission when one was
// generated, and the accounts whose reports require recomputation.
type ExchangeResult struct {
	Transactions     []models.Transaction
	AffectedAccounts []int
}

// CreateExchange turns one exchange request into two mutually linked
// exchange legs, plus a commission record when a same-currency exchange
// moves different magnitudes. The whole write is one database transaction:
// either every record commits or none does.
//
// For a same-currency exchange the commission is carried by its own
// record instead of being hidden inside the from leg, so the from leg
// stores exactly the negated credited amount:
//
//	from leg   = -toScaled
//	to leg     = +toScaled
//	commission = toScaled - fromScaled  (negative = cost, positive = profit)
//
// For different-currency exchanges the legs are not comparable as raw
// integers and no commission is derived.
func (s *Service) CreateExchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	if err := validateExchangeRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	accounts := repository.NewAccountRepository(tx)
	categories := repository.NewCategoryRepository(tx)
	transactions := repository.NewTransactionRepository(tx)

	fromAccount, err := accounts.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	toAccount, err := accounts.GetByID(ctx, req.ToAccountID)
	if err != nil {
		return nil, err
	}
	if fromAccount == nil || toAccount == nil {
		return nil, fmt.Errorf("%w: exchange accounts", ErrAccountNotFound)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Exchange from %s to %s", fromAccount.Name, toAccount.Name)
	}

	fromScaled := money.Scale(req.FromAmount, fromAccount.DecimalPlaces)
	toScaled := money.Scale(req.ToAmount, toAccount.DecimalPlaces)
	sameCurrency := fromAccount.CurrencyID == toAccount.CurrencyID

	fromType, toType := models.ExchangeFromDifferentCurrency, models.ExchangeToDifferentCurrency
	fromAmount := -fromScaled
	if sameCurrency {
		fromType, toType = models.ExchangeFromSameCurrency, models.ExchangeToSameCurrency
		fromAmount = -toScaled
	}

	// Auto-tagging only applies when all three well-known categories
	// exist, matching how exchanges have always been tagged.
	fromCategory, toCategory, commissionCategory, err := exchangeCategories(ctx, categories, req.UserID)
	if err != nil {
		return nil, err
	}

	fromLeg := &models.Transaction{
		UserID:       req.UserID,
		AccountID:    fromAccount.ID,
		CategoryID:   fromCategory,
		Amount:       fromAmount,
		Description:  description,
		Date:         req.Date,
		Kind:         models.KindExchange,
		ExchangeType: &fromType,
	}
	if err := transactions.Create(ctx, fromLeg); err != nil {
		return nil, err
	}

	toLeg := &models.Transaction{
		UserID:               req.UserID,
		AccountID:            toAccount.ID,
		CategoryID:           toCategory,
		Amount:               toScaled,
		Description:          description,
		Date:                 req.Date,
		Kind:                 models.KindExchange,
		ExchangeType:         &toType,
		RelatedTransactionID: &fromLeg.ID,
	}
	if err := transactions.Create(ctx, toLeg); err != nil {
		return nil, err
	}

	if err := transactions.SetRelated(ctx, fromLeg.ID, toLeg.ID); err != nil {
		return nil, err
	}
	fromLeg.RelatedTransactionID = &toLeg.ID

	result := &ExchangeResult{
		Transactions:     []models.Transaction{*fromLeg, *toLeg},
		AffectedAccounts: []int{fromAccount.ID, toAccount.ID},
	}
	if fromAccount.ID == toAccount.ID {
		result.AffectedAccounts = []int{fromAccount.ID}
	}

	if sameCurrency && fromScaled != toScaled {
		commissionType := models.CommissionTypeProfit
		if fromScaled >= toScaled {
			commissionType = models.CommissionTypeCommission
		}

		commission := &models.Transaction{
			UserID:         req.UserID,
			AccountID:      fromAccount.ID,
			CategoryID:     commissionCategory,
			Amount:         toScaled - fromScaled,
			Description:    fmt.Sprintf("Commission for %s", description),
			Date:           req.Date,
			Kind:           models.KindCommission,
			CommissionType: &commissionType,
			ExchangeFromID: &fromLeg.ID,
			ExchangeToID:   &toLeg.ID,
		}
		if err := transactions.Create(ctx, commission); err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, *commission)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit exchange: %w", err)
	}

	log := logger.With("ledger")
	log.Debug().
		Int("from_account", fromAccount.ID).
		Int("to_account", toAccount.ID).
		Bool("same_currency", sameCurrency).
		Int("records", len(result.Transactions)).
		Msg("Exchange created")

	return result, nil
}

func validateExchangeRequest(req ExchangeRequest) error {
	if !req.FromAmount.IsPositive() || !req.ToAmount.IsPositive() {
		return fmt.Errorf("%w: exchange amounts must be positive magnitudes", ErrValidation)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

func exchangeCategories(
	ctx context.Context,
	categories *repository.CategoryRepository,
	userID int64,
) (from, to, commission *int, err error) {
	fromCat, err := categories.GetByName(ctx, userID, models.CategoryExchanges)
	if err != nil {
		return nil, nil, nil, err
	}
	toCat, err := categories.GetByName(ctx, userID, models.CategoryExchangesIncome)
	if err != nil {
		return nil, nil, nil, err
	}
	commissionCat, err := categories.GetByName(ctx, userID, models.CategoryCommissions)
	if err != nil {
		return nil, nil, nil, err
	}
	if fromCat == nil || toCat == nil || commissionCat == nil {
		return nil, nil, nil, nil
	}
	return &fromCat.ID, &toCat.ID, &commissionCat.ID, nil
}
