package rates

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/money"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// Tracker resolves historical conversion rates and annotates amounts with
// their value in a user's main currency. A missing rate is never an error:
// lookups resolve to nil and callers leave the annotation empty.
type Tracker struct {
	rates      *repository.ConversionRateRepository
	currencies *repository.CurrencyRepository
	users      *repository.UserRepository
}

// NewTracker creates a Tracker.
func NewTracker(
	rates *repository.ConversionRateRepository,
	currencies *repository.CurrencyRepository,
	users *repository.UserRepository,
) *Tracker {
	return &Tracker{rates: rates, currencies: currencies, users: users}
}

// LatestRate returns the most recent conversion record for the pair dated
// at or before asOf, or nil when none exists.
func (t *Tracker) LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID int, asOf time.Time) (*models.ConversionRecord, error) {
	return t.rates.Latest(ctx, fromCurrencyID, toCurrencyID, asOf)
}

// ToMainCurrency converts a decimal amount on the given account into the
// user's main currency, scaled by 2 decimal places. Returns nil when the
// account already uses the main currency, when the user has no main
// currency, or when no rate is recorded as of date.
func (t *Tracker) ToMainCurrency(
	ctx context.Context,
	userID int64,
	account *models.Account,
	amount decimal.Decimal,
	date time.Time,
) (*int64, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user.MainCurrencyID == 0 || account.CurrencyID == user.MainCurrencyID {
		return nil, nil
	}

	rec, err := t.rates.Latest(ctx, account.CurrencyID, user.MainCurrencyID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	scaled := money.Scale(amount, money.MainCurrencyPlaces)
	converted := int64(math.Round(float64(scaled) / rec.Rate))
	return &converted, nil
}

// SourceRates holds the latest rate per source for one currency, plus the
// derived gap between the parallel and official quotes when both exist.
type SourceRates map[string]float64

// Summary returns, per currency visible to the user, the latest rate per
// source against the user's main currency. Currencies without any recorded
// rate map to an empty entry rather than being omitted or erroring.
func (t *Tracker) Summary(ctx context.Context, userID int64) (map[string]SourceRates, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	currencies, err := t.currencies.GetVisible(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]SourceRates)
	for _, cur := range currencies {
		if cur.ID == user.MainCurrencyID {
			continue
		}

		entry := make(SourceRates)
		summary[cur.Name] = entry
		if user.MainCurrencyID == 0 {
			continue
		}

		records, err := t.rates.LatestBySource(ctx, cur.ID, user.MainCurrencyID)
		if err != nil {
			return nil, err
		}
		for source, rec := range records {
			entry[source] = rec.Rate
		}

		paralelo, hasParalelo := entry[models.RateSourceParalelo]
		bcv, hasBCV := entry[models.RateSourceBCV]
		if hasParalelo && hasBCV && bcv != 0 {
			entry["gap"] = roundTo((paralelo-bcv)/bcv*100, 2)
		}
	}

	return summary, nil
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
