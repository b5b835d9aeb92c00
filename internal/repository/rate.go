package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// RateRepository handles the exchange rate singleton row.
type RateRepository struct {
	db DBTX
}

// NewRateRepository creates a new RateRepository instance.
func NewRateRepository(db DBTX) *RateRepository {
	return &RateRepository{db: db}
}

// Get retrieves the current rates.
func (r *RateRepository) Get(ctx context.Context) (*model.ExchangeRate, error) {
	const query = `
		SELECT usdt_to_asser, egp_to_asser, asser_to_usdt, asser_to_egp, usdt_to_egp, egp_to_usdt, updated_at
		FROM exchange_rates
		WHERE id = 1
	`

	var rate model.ExchangeRate
	err := r.db.QueryRow(ctx, query).Scan(
		&rate.USDTToAsser,
		&rate.EGPToAsser,
		&rate.AsserToUSDT,
		&rate.AsserToEGP,
		&rate.USDTToEGP,
		&rate.EGPToUSDT,
		&rate.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, ErrRatesNotFound, "get exchange rates")
	}
	return &rate, nil
}

// Save upserts the rates.
func (r *RateRepository) Save(ctx context.Context, rate *model.ExchangeRate) error {
	const query = `
		INSERT INTO exchange_rates (id, usdt_to_asser, egp_to_asser, asser_to_usdt, asser_to_egp, usdt_to_egp, egp_to_usdt, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			usdt_to_asser = EXCLUDED.usdt_to_asser,
			egp_to_asser = EXCLUDED.egp_to_asser,
			asser_to_usdt = EXCLUDED.asser_to_usdt,
			asser_to_egp = EXCLUDED.asser_to_egp,
			usdt_to_egp = EXCLUDED.usdt_to_egp,
			egp_to_usdt = EXCLUDED.egp_to_usdt,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rate.USDTToAsser, rate.EGPToAsser, rate.AsserToUSDT, rate.AsserToEGP, rate.USDTToEGP, rate.EGPToUSDT,
	).Scan(&rate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save exchange rates: %w", err)
	}
	return nil
}
