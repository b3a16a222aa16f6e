package rates

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/ledger-engine/internal/logger"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/repository"
)

// RefreshPair names one currency pair to ingest, by global currency name.
type RefreshPair struct {
	From    string
	To      string
	Sources []string
}

// DefaultRefreshPairs covers the VES/USD quotes published by dolarapi.
var DefaultRefreshPairs = []RefreshPair{
	{From: "VES", To: "USD", Sources: []string{models.RateSourceParalelo, models.RateSourceBCV}},
}

// Refresher periodically appends fresh conversion records fetched from an
// external source. Each run appends new rows; history is never rewritten.
type Refresher struct {
	source     Source
	rates      *repository.ConversionRateRepository
	currencies *repository.CurrencyRepository
	pairs      []RefreshPair
}

// NewRefresher creates a Refresher. With no pairs given it falls back to
// DefaultRefreshPairs.
func NewRefresher(
	source Source,
	rates *repository.ConversionRateRepository,
	currencies *repository.CurrencyRepository,
	pairs []RefreshPair,
) *Refresher {
	if len(pairs) == 0 {
		pairs = DefaultRefreshPairs
	}
	return &Refresher{source: source, rates: rates, currencies: currencies, pairs: pairs}
}

// RefreshAll fetches and records the configured pairs. A source that fails
// to quote is logged and skipped; the remaining sources still refresh.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	log := logger.With("rates")

	for _, pair := range r.pairs {
		from, err := r.currencies.GetByName(ctx, pair.From)
		if err != nil {
			return err
		}
		to, err := r.currencies.GetByName(ctx, pair.To)
		if err != nil {
			return err
		}
		if from == nil || to == nil {
			return fmt.Errorf("refresh pair %s/%s references unknown currency", pair.From, pair.To)
		}

		for _, source := range pair.Sources {
			quote, err := r.source.FetchRate(ctx, source)
			if err != nil {
				log.Warn().Err(err).
					Str("source", source).
					Str("pair", pair.From+"/"+pair.To).
					Msg("Rate fetch failed, skipping")
				continue
			}

			rec := &models.ConversionRecord{
				FromCurrencyID: from.ID,
				ToCurrencyID:   to.ID,
				Source:         source,
				Rate:           quote.Rate,
				Date:           quote.FetchedAt,
			}
			if err := r.rates.Create(ctx, rec); err != nil {
				return err
			}

			log.Info().
				Str("source", source).
				Str("pair", pair.From+"/"+pair.To).
				Float64("rate", quote.Rate).
				Msg("Recorded conversion rate")
		}
	}

	return nil
}
