package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// TransactionRepository handles ledger persistence. Rows are never updated
// or deleted.
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger row and fills in its id and creation time.
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	const query = `
		INSERT INTO transactions (user_id, type, from_currency, to_currency, from_amount, to_amount,
			recipient_user_id, transfer_fee, reference, description, status, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11, NOW())
		RETURNING id, created_at
	`

	if tx.Status == "" {
		tx.Status = model.TxStatusCompleted
	}
	err := r.db.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		string(tx.FromCurrency),
		string(tx.ToCurrency),
		tx.FromAmount,
		tx.ToAmount,
		tx.RecipientUserID,
		tx.TransferFee,
		tx.Reference,
		tx.Description,
		tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, user_id, type, COALESCE(from_currency, ''), COALESCE(to_currency, ''),
			from_amount, to_amount, COALESCE(recipient_user_id, ''), transfer_fee,
			COALESCE(reference, ''), description, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var (
			tx       model.Transaction
			from, to string
		)
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&from,
			&to,
			&tx.FromAmount,
			&tx.ToAmount,
			&tx.RecipientUserID,
			&tx.TransferFee,
			&tx.Reference,
			&tx.Description,
			&tx.Status,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.FromCurrency = model.Currency(from)
		tx.ToCurrency = model.Currency(to)
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// CountByType returns how many ledger rows of each type a user has.
func (r *TransactionRepository) CountByType(ctx context.Context, userID int64) (map[string]int, error) {
	const query = `
		SELECT type, COUNT(*)
		FROM transactions
		WHERE user_id = $1
		GROUP BY type
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			txType string
			n      int
		)
		if err := rows.Scan(&txType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan transaction count: %w", err)
		}
		counts[txType] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction counts: %w", err)
	}
	return counts, nil
}
