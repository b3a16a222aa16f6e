package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/rates"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

func newTestService(tx database.DB) *Service {
	tracker := rates.NewTracker(
		repository.NewConversionRateRepository(tx),
		repository.NewCurrencyRepository(tx),
		repository.NewUserRepository(tx),
	)
	return NewService(tx, tracker)
}

func newTestUser(t *testing.T, tx database.DB) *models.User {
	t.Helper()

	user := &models.User{Username: "test-" + uuid.NewString()}
	require.NoError(t, repository.NewUserRepository(tx).Create(context.Background(), user))
	return user
}

func newTestCurrency(t *testing.T, tx database.DB, userID int64, name string) *models.Currency {
	t.Helper()

	cur := &models.Currency{UserID: &userID, Name: name, Symbol: name}
	require.NoError(t, repository.NewCurrencyRepository(tx).Create(context.Background(), cur))
	return cur
}

func newTestAccount(t *testing.T, tx database.DB, userID int64, currencyID, decimalPlaces int) *models.Account {
	t.Helper()

	acc := &models.Account{
		UserID:        userID,
		Name:          "account-" + uuid.NewString()[:8],
		CurrencyID:    currencyID,
		DecimalPlaces: decimalPlaces,
	}
	require.NoError(t, repository.NewAccountRepository(tx).Create(context.Background(), acc))
	return acc
}
