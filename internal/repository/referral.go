package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// ReferralRepository records which user invited which.
type ReferralRepository struct {
	db DBTX
}

// NewReferralRepository creates a new ReferralRepository instance.
func NewReferralRepository(db DBTX) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create inserts a referral. Returns ErrAlreadyReferred when the referred
// user already has a referrer.
func (r *ReferralRepository) Create(ctx context.Context, ref *model.Referral) error {
	const query = `
		INSERT INTO referrals (referrer_id, referred_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, ref.ReferrerID, ref.ReferredID).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "referrals_referred_key") {
			return ErrAlreadyReferred
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

// CountByReferrer returns how many users registered with the referrer's code.
func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`, referrerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return n, nil
}

// ListMembers returns the referrer's team, newest first.
func (r *ReferralRepository) ListMembers(ctx context.Context, referrerID int64) ([]*model.TeamMember, error) {
	const query = `
		SELECT u.public_id, u.full_name, u.email, r.created_at
		FROM referrals r
		JOIN users u ON u.id = r.referred_id
		WHERE r.referrer_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.db.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var out []*model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return out, nil
}
