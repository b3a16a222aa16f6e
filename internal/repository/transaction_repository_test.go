package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

func TestTransactionRepositoryCreateAndGet(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	cur := newTestCurrency(t, tx, user.ID, "USD-T")
	acc := newTestAccount(t, tx, user.ID, cur.ID, 2)
	repo := NewTransactionRepository(tx)

	entry := &models.Transaction{
		UserID:      user.ID,
		AccountID:   acc.ID,
		Amount:      -1250,
		Description: "groceries",
		Date:        time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.NotZero(t, entry.ID)
	require.Equal(t, models.KindPlain, entry.Kind)

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entry.AccountID, got.AccountID)
	require.Equal(t, int64(-1250), got.Amount)
	require.Equal(t, "groceries", got.Description)
	require.Equal(t, models.KindPlain, got.Kind)
	require.Nil(t, got.ToMainCurrencyAmount)
	require.Nil(t, got.RelatedTransactionID)

	missing, err := repo.GetByID(ctx, entry.ID+1000000)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestTransactionRepositoryUpdateAndDelete(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	cur := newTestCurrency(t, tx, user.ID, "USD-T")
	acc := newTestAccount(t, tx, user.ID, cur.ID, 2)
	repo := NewTransactionRepository(tx)

	entry := &models.Transaction{
		UserID:    user.ID,
		AccountID: acc.ID,
		Amount:    500,
		Date:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, entry))

	entry.Amount = 700
	entry.Description = "corrected"
	require.NoError(t, repo.Update(ctx, entry))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, int64(700), got.Amount)
	require.Equal(t, "corrected", got.Description)

	require.NoError(t, repo.Delete(ctx, entry.ID))
	got, err = repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTransactionRepositorySums(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	cur := newTestCurrency(t, tx, user.ID, "USD-T")
	acc := newTestAccount(t, tx, user.ID, cur.ID, 2)
	repo := NewTransactionRepository(tx)

	add := func(amount int64, date time.Time) {
		require.NoError(t, repo.Create(ctx, &models.Transaction{
			UserID: user.ID, AccountID: acc.ID, Amount: amount, Date: date,
		}))
	}
	add(1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	add(-400, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	add(500, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	t.Run("balance over all transactions", func(t *testing.T) {
		total, err := repo.SumByAccount(ctx, acc.ID, nil)
		require.NoError(t, err)
		require.Equal(t, int64(1100), total)
	})

	t.Run("balance as of a date", func(t *testing.T) {
		until := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
		total, err := repo.SumByAccount(ctx, acc.ID, &until)
		require.NoError(t, err)
		require.Equal(t, int64(600), total)
	})

	t.Run("balance strictly before a date", func(t *testing.T) {
		total, err := repo.SumByAccountBefore(ctx, acc.ID, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Equal(t, int64(1000), total)
	})

	t.Run("income and expenses in range", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

		income, err := repo.SumByAccountInRange(ctx, acc.ID, from, to, true)
		require.NoError(t, err)
		require.Equal(t, int64(1000), income)

		expenses, err := repo.SumByAccountInRange(ctx, acc.ID, from, to, false)
		require.NoError(t, err)
		require.Equal(t, int64(-400), expenses)
	})

	t.Run("empty account sums to zero", func(t *testing.T) {
		empty := newTestAccount(t, tx, user.ID, cur.ID, 2)
		total, err := repo.SumByAccount(ctx, empty.ID, nil)
		require.NoError(t, err)
		require.Zero(t, total)
	})
}

func TestSumByCurrencyInRangeExcludesInternalTransfers(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	usd := newTestCurrency(t, tx, user.ID, "USD-T")
	ves := newTestCurrency(t, tx, user.ID, "VES-T")
	usdA := newTestAccount(t, tx, user.ID, usd.ID, 2)
	usdB := newTestAccount(t, tx, user.ID, usd.ID, 2)
	vesA := newTestAccount(t, tx, user.ID, ves.ID, 2)
	repo := NewTransactionRepository(tx)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Plain income: always counts.
	require.NoError(t, repo.Create(ctx, &models.Transaction{
		UserID: user.ID, AccountID: usdA.ID, Amount: 10000, Date: date,
	}))

	linkExchange := func(fromAcc, toAcc int, fromAmount, toAmount int64, fromType, toType string) {
		fromLeg := &models.Transaction{
			UserID: user.ID, AccountID: fromAcc, Amount: fromAmount, Date: date,
			Kind: models.KindExchange, ExchangeType: &fromType,
		}
		require.NoError(t, repo.Create(ctx, fromLeg))
		toLeg := &models.Transaction{
			UserID: user.ID, AccountID: toAcc, Amount: toAmount, Date: date,
			Kind: models.KindExchange, ExchangeType: &toType,
			RelatedTransactionID: &fromLeg.ID,
		}
		require.NoError(t, repo.Create(ctx, toLeg))
		require.NoError(t, repo.SetRelated(ctx, fromLeg.ID, toLeg.ID))
	}

	// Internal transfer between two USD accounts.
	linkExchange(usdA.ID, usdB.ID, -7500, 7500,
		models.ExchangeFromSameCurrency, models.ExchangeToSameCurrency)
	// Real exchange out of USD into VES.
	linkExchange(usdA.ID, vesA.ID, -5000, 182500,
		models.ExchangeFromDifferentCurrency, models.ExchangeToDifferentCurrency)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("internal legs excluded", func(t *testing.T) {
		income, err := repo.SumByCurrencyInRange(ctx, user.ID, usd.ID, from, to, true, true)
		require.NoError(t, err)
		require.Equal(t, int64(10000), income)

		expenses, err := repo.SumByCurrencyInRange(ctx, user.ID, usd.ID, from, to, false, true)
		require.NoError(t, err)
		require.Equal(t, int64(-5000), expenses)
	})

	t.Run("raw sums keep internal legs", func(t *testing.T) {
		income, err := repo.SumByCurrencyInRange(ctx, user.ID, usd.ID, from, to, true, false)
		require.NoError(t, err)
		require.Equal(t, int64(17500), income)

		expenses, err := repo.SumByCurrencyInRange(ctx, user.ID, usd.ID, from, to, false, false)
		require.NoError(t, err)
		require.Equal(t, int64(-12500), expenses)
	})

	t.Run("cross currency leg counts for target currency", func(t *testing.T) {
		income, err := repo.SumByCurrencyInRange(ctx, user.ID, ves.ID, from, to, true, true)
		require.NoError(t, err)
		require.Equal(t, int64(182500), income)
	})
}

func TestCommissionsForExchange(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	cur := newTestCurrency(t, tx, user.ID, "USD-T")
	accA := newTestAccount(t, tx, user.ID, cur.ID, 2)
	accB := newTestAccount(t, tx, user.ID, cur.ID, 2)
	repo := NewTransactionRepository(tx)

	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	fromType := models.ExchangeFromSameCurrency
	toType := models.ExchangeToSameCurrency

	fromLeg := &models.Transaction{
		UserID: user.ID, AccountID: accA.ID, Amount: -120000, Date: date,
		Kind: models.KindExchange, ExchangeType: &fromType,
	}
	require.NoError(t, repo.Create(ctx, fromLeg))
	toLeg := &models.Transaction{
		UserID: user.ID, AccountID: accB.ID, Amount: 120000, Date: date,
		Kind: models.KindExchange, ExchangeType: &toType,
		RelatedTransactionID: &fromLeg.ID,
	}
	require.NoError(t, repo.Create(ctx, toLeg))

	commissionType := models.CommissionTypeCommission
	commission := &models.Transaction{
		UserID: user.ID, AccountID: accA.ID, Amount: -5000, Date: date,
		Kind: models.KindCommission, CommissionType: &commissionType,
		ExchangeFromID: &fromLeg.ID, ExchangeToID: &toLeg.ID,
	}
	require.NoError(t, repo.Create(ctx, commission))

	got, err := repo.CommissionsForExchange(ctx, fromLeg.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, commission.ID, got[0].ID)
	require.Equal(t, int64(-5000), got[0].Amount)
	require.Equal(t, models.CommissionTypeCommission, *got[0].CommissionType)

	got, err = repo.CommissionsForExchange(ctx, toLeg.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListByAccountOrdersNewestFirst(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	user := newTestUser(t, tx)
	cur := newTestCurrency(t, tx, user.ID, "USD-T")
	acc := newTestAccount(t, tx, user.ID, cur.ID, 2)
	repo := NewTransactionRepository(tx)

	for i, day := range []int{5, 20, 12} {
		require.NoError(t, repo.Create(ctx, &models.Transaction{
			UserID: user.ID, AccountID: acc.ID, Amount: int64(100 * (i + 1)),
			Date: time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
		}))
	}

	list, err := repo.ListByAccount(ctx,
		acc.ID,
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, int64(200), list[0].Amount)
	require.Equal(t, int64(300), list[1].Amount)
	require.Equal(t, int64(100), list[2].Amount)
}
