package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// SubscriptionRepository handles game slot subscriptions.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a new SubscriptionRepository instance.
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription. Returns ErrDuplicateSubscription when the
// user already holds the slot.
func (r *SubscriptionRepository) Create(ctx context.Context, s *model.GameSubscription) error {
	const query = `
		INSERT INTO game_subscriptions (user_id, game_time, fee, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, s.UserID, s.GameTime, s.Fee).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "game_subscriptions_user_slot_key") {
			return ErrDuplicateSubscription
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's subscriptions.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*model.GameSubscription, error) {
	const query = `
		SELECT id, user_id, game_time, fee, created_at
		FROM game_subscriptions
		WHERE user_id = $1
		ORDER BY game_time
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*model.GameSubscription
	for rows.Next() {
		var s model.GameSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.GameTime, &s.Fee, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return out, nil
}
