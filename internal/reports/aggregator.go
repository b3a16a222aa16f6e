// Package reports implements report recomputation: cached per-account and
// per-currency period totals, re-derived from the current ledger state.
// Recomputation is idempotent — it never patches prior totals
// incrementally, so re-running a stale job after newer mutations simply
// converges to the same final state.
package reports

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/logger"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// Aggregator recomputes report rows.
type Aggregator struct {
	db database.DB
}

// NewAggregator creates an Aggregator.
func NewAggregator(db database.DB) *Aggregator {
	return &Aggregator{db: db}
}

// RecomputeAccount re-derives the four totals of the (user, account,
// period) report row, creating the row when absent. A period with no
// transactions yields all zeros.
func (a *Aggregator) RecomputeAccount(
	ctx context.Context,
	userID int64,
	accountID int,
	fromDate, toDate time.Time,
) (*models.ReportAccount, error) {
	reports := repository.NewReportRepository(a.db)
	transactions := repository.NewTransactionRepository(a.db)

	rep, err := reports.FindOrCreateAccountReport(ctx, userID, accountID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	start := models.PeriodStart(fromDate)
	end := models.PeriodEnd(toDate)

	if rep.InitialBalance, err = transactions.SumByAccountBefore(ctx, accountID, start); err != nil {
		return nil, err
	}
	if rep.EndBalance, err = transactions.SumByAccount(ctx, accountID, &end); err != nil {
		return nil, err
	}
	if rep.TotalIncome, err = transactions.SumByAccountInRange(ctx, accountID, start, end, true); err != nil {
		return nil, err
	}
	if rep.TotalExpenses, err = transactions.SumByAccountInRange(ctx, accountID, start, end, false); err != nil {
		return nil, err
	}

	if err := reports.UpdateAccountTotals(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// RecomputeCurrency re-derives a currency roll-up row. Balances come from
// the account reports sharing the currency and exact period; income and
// expenses come from raw transactions, excluding internal transfers
// between the user's own same-currency accounts.
func (a *Aggregator) RecomputeCurrency(
	ctx context.Context,
	userID int64,
	currencyID int,
	fromDate, toDate time.Time,
) (*models.ReportCurrency, error) {
	reports := repository.NewReportRepository(a.db)
	transactions := repository.NewTransactionRepository(a.db)

	rep, err := reports.FindOrCreateCurrencyReport(ctx, userID, currencyID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	start := models.PeriodStart(fromDate)
	end := models.PeriodEnd(toDate)

	if rep.InitialBalance, rep.EndBalance, err = reports.SumAccountReportBalances(ctx, userID, currencyID, fromDate, toDate); err != nil {
		return nil, err
	}
	if rep.TotalIncome, err = transactions.SumByCurrencyInRange(ctx, userID, currencyID, start, end, true, true); err != nil {
		return nil, err
	}
	if rep.TotalExpenses, err = transactions.SumByCurrencyInRange(ctx, userID, currencyID, start, end, false, true); err != nil {
		return nil, err
	}

	if err := reports.UpdateCurrencyTotals(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// RecomputeLatestForAccount refreshes the most recent report of an account
// and the most recent roll-up of the account's currency. This is the unit
// of work the recompute queue runs after every ledger mutation. Accounts
// without any report row yet are a logged no-op.
func (a *Aggregator) RecomputeLatestForAccount(ctx context.Context, accountID int) error {
	log := logger.With("reports")

	account, err := repository.NewAccountRepository(a.db).GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %d not found", accountID)
	}

	reports := repository.NewReportRepository(a.db)

	accountRep, err := reports.MostRecentForAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if accountRep == nil {
		log.Debug().Int("account_id", accountID).Msg("No account report to refresh")
	} else {
		if _, err := a.RecomputeAccount(ctx, accountRep.UserID, accountID, accountRep.FromDate, accountRep.ToDate); err != nil {
			return err
		}
	}

	currencyRep, err := reports.MostRecentForCurrency(ctx, account.UserID, account.CurrencyID)
	if err != nil {
		return err
	}
	if currencyRep == nil {
		log.Debug().Int("currency_id", account.CurrencyID).Msg("No currency report to refresh")
		return nil
	}
	_, err = a.RecomputeCurrency(ctx, currencyRep.UserID, account.CurrencyID, currencyRep.FromDate, currencyRep.ToDate)
	return err
}

// RemoveDuplicateReports deletes redundant report rows sharing a period
// key. The unique indexes prevent new duplicates; this remains as a
// safety net for data created before they existed. Returns the total
// number of rows removed.
func (a *Aggregator) RemoveDuplicateReports(ctx context.Context) (int, error) {
	reports := repository.NewReportRepository(a.db)

	accountDupes, err := reports.DeleteDuplicateAccountReports(ctx)
	if err != nil {
		return 0, err
	}
	currencyDupes, err := reports.DeleteDuplicateCurrencyReports(ctx)
	if err != nil {
		return accountDupes, err
	}

	total := accountDupes + currencyDupes
	if total > 0 {
		log := logger.With("reports")
		log.Info().Int("removed", total).Msg("Removed duplicate report rows")
	}
	return total, nil
}
