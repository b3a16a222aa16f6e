package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// newTestUser inserts a user with a unique username. Usernames are unique
// across the shared pool, so a random suffix keeps parallel tests apart.
func newTestUser(t *testing.T, db database.PGXDB) *models.User {
	t.Helper()

	user := &models.User{Username: "test-" + uuid.NewString()}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

// newTestCurrency inserts a currency scoped to the user. Global currency
// names carry a unique index, so fixtures never create global ones.
func newTestCurrency(t *testing.T, db database.PGXDB, userID int64, name string) *models.Currency {
	t.Helper()

	cur := &models.Currency{UserID: &userID, Name: name, Symbol: name}
	require.NoError(t, NewCurrencyRepository(db).Create(context.Background(), cur))
	return cur
}

func newTestAccount(t *testing.T, db database.PGXDB, userID int64, currencyID, decimalPlaces int) *models.Account {
	t.Helper()

	acc := &models.Account{
		UserID:        userID,
		Name:          "account-" + uuid.NewString()[:8],
		CurrencyID:    currencyID,
		DecimalPlaces: decimalPlaces,
	}
	require.NoError(t, NewAccountRepository(db).Create(context.Background(), acc))
	return acc
}

// usdCurrencyID resolves the globally seeded USD currency.
func usdCurrencyID(t *testing.T, db database.PGXDB) int {
	t.Helper()

	cur, err := NewCurrencyRepository(db).GetByName(context.Background(), "USD")
	require.NoError(t, err)
	require.NotNil(t, cur)
	return cur.ID
}
