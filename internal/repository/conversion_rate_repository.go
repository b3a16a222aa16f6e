package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/ledger-engine/internal/database"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

// ConversionRateRepository handles exchange-rate history. The table is
// append-only: rates are never updated in place.
type ConversionRateRepository struct {
	db database.PGXDB
}

// NewConversionRateRepository creates a new ConversionRateRepository.
func NewConversionRateRepository(db database.PGXDB) *ConversionRateRepository {
	return &ConversionRateRepository{db: db}
}

// Create appends a new rate observation.
func (r *ConversionRateRepository) Create(ctx context.Context, rec *models.ConversionRecord) error {
	if rec.Rate <= 0 {
		return fmt.Errorf("conversion rate must be positive, got %v", rec.Rate)
	}
	if rec.Source == "" {
		rec.Source = models.RateSourceParalelo
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversion_rates (user_id, from_currency_id, to_currency_id, source, rate, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rec.UserID, rec.FromCurrencyID, rec.ToCurrencyID, rec.Source, rec.Rate, rec.Date,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create conversion record: %w", err)
	}
	return nil
}

// Latest returns the most recent record for the currency pair dated at or
// before asOf, or nil when none exists.
func (r *ConversionRateRepository) Latest(
	ctx context.Context,
	fromCurrencyID, toCurrencyID int,
	asOf time.Time,
) (*models.ConversionRecord, error) {
	var rec models.ConversionRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, from_currency_id, to_currency_id, source, rate, date
		FROM conversion_rates
		WHERE from_currency_id = $1 AND to_currency_id = $2 AND date <= $3
		ORDER BY date DESC
		LIMIT 1
	`, fromCurrencyID, toCurrencyID, asOf).Scan(
		&rec.ID, &rec.UserID, &rec.FromCurrencyID, &rec.ToCurrencyID,
		&rec.Source, &rec.Rate, &rec.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest conversion rate: %w", err)
	}
	return &rec, nil
}

// LatestBySource returns the newest record per rate source for the
// currency pair. An empty map means no rates are recorded.
func (r *ConversionRateRepository) LatestBySource(
	ctx context.Context,
	fromCurrencyID, toCurrencyID int,
) (map[string]models.ConversionRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (source)
			id, user_id, from_currency_id, to_currency_id, source, rate, date
		FROM conversion_rates
		WHERE from_currency_id = $1 AND to_currency_id = $2
		ORDER BY source, date DESC
	`, fromCurrencyID, toCurrencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion rates: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.ConversionRecord)
	for rows.Next() {
		var rec models.ConversionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FromCurrencyID, &rec.ToCurrencyID,
			&rec.Source, &rec.Rate, &rec.Date); err != nil {
			return nil, fmt.Errorf("failed to scan conversion record: %w", err)
		}
		records[rec.Source] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversion records: %w", err)
	}
	return records, nil
}
