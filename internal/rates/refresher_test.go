package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// sourceByName quotes different rates per source and can fail selected
// sources.
type sourceByName struct {
	quotes map[string]Quote
	fail   map[string]bool
}

func (s *sourceByName) FetchRate(_ context.Context, source string) (Quote, error) {
	if s.fail[source] {
		return Quote{}, errors.New("source unavailable")
	}
	q, ok := s.quotes[source]
	if !ok {
		return Quote{}, errors.New("no quote configured")
	}
	return q, nil
}

func TestRefresherRecordsConfiguredPairs(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	currencies := repository.NewCurrencyRepository(tx)
	ratesRepo := repository.NewConversionRateRepository(tx)

	fetchedAt := time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC)
	source := &sourceByName{quotes: map[string]Quote{
		models.RateSourceParalelo: {Rate: 38.0, FetchedAt: fetchedAt},
		models.RateSourceBCV:      {Rate: 36.2, FetchedAt: fetchedAt},
	}}

	// The default pair rides on the globally seeded VES and USD.
	refresher := NewRefresher(source, ratesRepo, currencies, nil)
	require.NoError(t, refresher.RefreshAll(ctx))

	ves, err := currencies.GetByName(ctx, "VES")
	require.NoError(t, err)
	usd, err := currencies.GetByName(ctx, "USD")
	require.NoError(t, err)

	records, err := ratesRepo.LatestBySource(ctx, ves.ID, usd.ID)
	require.NoError(t, err)
	require.Equal(t, 38.0, records[models.RateSourceParalelo].Rate)
	require.Equal(t, 36.2, records[models.RateSourceBCV].Rate)

	t.Run("history is append only", func(t *testing.T) {
		source.quotes[models.RateSourceParalelo] = Quote{Rate: 39.5, FetchedAt: fetchedAt.Add(time.Hour)}
		require.NoError(t, refresher.RefreshAll(ctx))

		records, err := ratesRepo.LatestBySource(ctx, ves.ID, usd.ID)
		require.NoError(t, err)
		require.Equal(t, 39.5, records[models.RateSourceParalelo].Rate)

		// The older observation is still resolvable by date.
		rec, err := ratesRepo.Latest(ctx, ves.ID, usd.ID, fetchedAt)
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, 38.0, rec.Rate)
	})
}

func TestRefresherSkipsFailingSources(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()

	currencies := repository.NewCurrencyRepository(tx)
	ratesRepo := repository.NewConversionRateRepository(tx)

	source := &sourceByName{
		quotes: map[string]Quote{
			models.RateSourceBCV: {Rate: 36.2, FetchedAt: time.Now().UTC()},
		},
		fail: map[string]bool{models.RateSourceParalelo: true},
	}

	refresher := NewRefresher(source, ratesRepo, currencies, nil)
	require.NoError(t, refresher.RefreshAll(ctx))

	ves, err := currencies.GetByName(ctx, "VES")
	require.NoError(t, err)
	usd, err := currencies.GetByName(ctx, "USD")
	require.NoError(t, err)

	records, err := ratesRepo.LatestBySource(ctx, ves.ID, usd.ID)
	require.NoError(t, err)
	_, hasParalelo := records[models.RateSourceParalelo]
	require.False(t, hasParalelo)
	require.Equal(t, 36.2, records[models.RateSourceBCV].Rate)
}

func TestRefresherRejectsUnknownCurrencies(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)

	refresher := NewRefresher(
		&sourceByName{},
		repository.NewConversionRateRepository(tx),
		repository.NewCurrencyRepository(tx),
		[]RefreshPair{{From: "XXX", To: "USD", Sources: []string{models.RateSourceParalelo}}},
	)
	require.Error(t, refresher.RefreshAll(context.Background()))
}
