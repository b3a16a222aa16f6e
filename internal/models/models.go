// Package models defines the domain entities for the ledger engine.
package models

import (
	"time"
)

// DefaultDecimalPlaces is the precision used for accounts that do not
// configure their own.
const DefaultDecimalPlaces = 2

// Transaction kinds. A single transactions table carries plain entries,
// currency-exchange legs and exchange commissions, discriminated by Kind.
const (
	KindPlain      = "plain"
	KindExchange   = "exchange"
	KindCommission = "commission"
)

// Exchange leg types. "from" legs are negative, "to" legs positive.
const (
	ExchangeFromSameCurrency      = "from_same_currency"
	ExchangeToSameCurrency        = "to_same_currency"
	ExchangeFromDifferentCurrency = "from_different_currency"
	ExchangeToDifferentCurrency   = "to_different_currency"
)

// Commission types. A commission is a cost, a profit is a gain.
const (
	CommissionTypeCommission = "commission"
	CommissionTypeProfit     = "profit"
)

// Category types.
const (
	CategoryTypeExpense = "expense"
	CategoryTypeIncome  = "income"
)

// Conversion rate sources.
const (
	RateSourceParalelo = "paralelo"
	RateSourceBCV      = "bcv"
)

// Auto-tagging category names looked up by the exchange orchestrator.
const (
	CategoryExchanges       = "Exchanges"
	CategoryExchangesIncome = "Exchanges Income"
	CategoryCommissions     = "Commissions"
)

// User represents a ledger owner. MainCurrencyID is the reference currency
// that to_main_currency_amount values are expressed in.
type User struct {
	ID             int64
	Username       string
	MainCurrencyID int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Currency is a unit of account. UserID is nil for globally visible
// currencies.
type Currency struct {
	ID     int
	UserID *int64
	Name   string
	Symbol string
}

// Account holds transactions denominated in a single currency. Every
// monetary amount belonging to the account is an integer scaled by
// 10^DecimalPlaces.
type Account struct {
	ID            int
	UserID        int64
	Name          string
	CurrencyID    int
	DecimalPlaces int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category classifies transactions. UserID is nil for global categories,
// which are read-only to non-owning users. ParentID forms a tree.
type Category struct {
	ID          int
	UserID      *int64
	Name        string
	Color       string
	Description string
	Type        string
	ParentID    *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is a single ledger movement. Amount is a signed integer
// scaled per the owning account's decimal places. Kind discriminates the
// variant; the exchange and commission fields are only set for their kind.
type Transaction struct {
	ID          int
	UserID      int64
	AccountID   int
	CategoryID  *int
	Amount      int64
	Description string
	Date        time.Time

	// ToMainCurrencyAmount is the amount converted to the user's main
	// currency at recording time, scaled by 2 decimal places. Nil when no
	// rate was available or the account already uses the main currency.
	ToMainCurrencyAmount *int64

	Kind string

	// Kind == KindExchange
	ExchangeType         *string
	RelatedTransactionID *int

	// Kind == KindCommission
	CommissionType *string
	ExchangeFromID *int
	ExchangeToID   *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExchange reports whether the transaction is a currency-exchange leg.
func (t *Transaction) IsExchange() bool { return t.Kind == KindExchange }

// IsCommission reports whether the transaction is an exchange commission.
func (t *Transaction) IsCommission() bool { return t.Kind == KindCommission }

// ConversionRecord is one historical exchange-rate observation. Records are
// append-only: a new rate is a new record, never an update.
type ConversionRecord struct {
	ID             int
	UserID         *int64
	FromCurrencyID int
	ToCurrencyID   int
	Source         string
	Rate           float64
	Date           time.Time
}

// ReportAccount caches period totals for one account. All four totals are
// scaled like the account's amounts. One row exists per
// (user, account, from_date, to_date).
type ReportAccount struct {
	ID             int
	UserID         int64
	AccountID      int
	FromDate       time.Time
	ToDate         time.Time
	InitialBalance int64
	EndBalance     int64
	TotalIncome    int64
	TotalExpenses  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReportCurrency rolls ReportAccount rows up across all of a user's
// accounts sharing one currency.
type ReportCurrency struct {
	ID             int
	UserID         int64
	CurrencyID     int
	FromDate       time.Time
	ToDate         time.Time
	InitialBalance int64
	EndBalance     int64
	TotalIncome    int64
	TotalExpenses  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PeriodStart returns the report period's lower bound, from_date at
// 00:00:00 UTC.
func PeriodStart(fromDate time.Time) time.Time {
	return time.Date(fromDate.Year(), fromDate.Month(), fromDate.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodEnd returns the report period's inclusive upper bound, to_date at
// 23:59:59.999999 UTC.
func PeriodEnd(toDate time.Time) time.Time {
	return time.Date(toDate.Year(), toDate.Month(), toDate.Day(), 23, 59, 59, 999999000, time.UTC)
}
