package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// BalanceRepository handles balance persistence.
type BalanceRepository struct {
	db DBTX
}

// NewBalanceRepository creates a new BalanceRepository instance.
func NewBalanceRepository(db DBTX) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Create inserts the balance row for a user.
func (r *BalanceRepository) Create(ctx context.Context, b *model.Balance) error {
	const query = `
		INSERT INTO balances (user_id, usdt, egp, asser_coin, version, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		RETURNING version, updated_at
	`

	err := r.db.QueryRow(ctx, query, b.UserID, b.USDT, b.EGP, b.Asser).Scan(&b.Version, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// Get retrieves a user's balance without locking it.
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*model.Balance, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate retrieves a user's balance and locks the row until the
// surrounding transaction ends.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, userID int64) (*model.Balance, error) {
	return r.get(ctx, userID, true)
}

func (r *BalanceRepository) get(ctx context.Context, userID int64, forUpdate bool) (*model.Balance, error) {
	query := `
		SELECT user_id, usdt, egp, asser_coin, version, updated_at
		FROM balances
		WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b model.Balance
	err := r.db.QueryRow(ctx, query, userID).Scan(&b.UserID, &b.USDT, &b.EGP, &b.Asser, &b.Version, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err, ErrBalanceNotFound, "get balance")
	}
	return &b, nil
}

// Update writes all three holdings if the stored version still matches
// b.Version, then advances b.Version.
func (r *BalanceRepository) Update(ctx context.Context, b *model.Balance) error {
	const query = `
		UPDATE balances
		SET usdt = $2, egp = $3, asser_coin = $4, version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND version = $5
		RETURNING version, updated_at
	`

	err := r.db.QueryRow(ctx, query, b.UserID, b.USDT, b.EGP, b.Asser, b.Version).Scan(&b.Version, &b.UpdatedAt)
	if err != nil {
		return notFound(err, ErrVersionConflict, "update balance")
	}
	return nil
}
