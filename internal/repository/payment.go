package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// PaymentRepository handles deposit and withdrawal request persistence.
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository creates a new PaymentRepository instance.
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, type, amount, currency, full_name, phone_number, wallet_address,
	status, created_at, processed_at, processed_by`

func scanPayment(row scanner) (*model.PaymentRequest, error) {
	var (
		p                       model.PaymentRequest
		pType, currency, status string
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&pType,
		&p.Amount,
		&currency,
		&p.FullName,
		&p.PhoneNumber,
		&p.WalletAddress,
		&status,
		&p.CreatedAt,
		&p.ProcessedAt,
		&p.ProcessedBy,
	)
	if err != nil {
		return nil, err
	}
	p.Type = model.PaymentType(pType)
	p.Currency = model.Currency(currency)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

// Create inserts a pending request.
func (r *PaymentRepository) Create(ctx context.Context, p *model.PaymentRequest) error {
	const query = `
		INSERT INTO payment_requests (user_id, type, amount, currency, full_name, phone_number,
			wallet_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		p.UserID, string(p.Type), p.Amount, string(p.Currency), p.FullName, p.PhoneNumber,
		p.WalletAddress, string(p.Status),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

// GetForUpdate retrieves a request and locks the row.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, id int64) (*model.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests WHERE id = $1 FOR UPDATE`

	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound, "get payment request")
	}
	return p, nil
}

// Update writes the settlement fields.
func (r *PaymentRepository) Update(ctx context.Context, p *model.PaymentRequest) error {
	const query = `
		UPDATE payment_requests
		SET status = $2, processed_at = $3, processed_by = $4
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, p.ID, string(p.Status), p.ProcessedAt, p.ProcessedBy)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// List retrieves requests with the given status, or all when status is empty.
func (r *PaymentRepository) List(ctx context.Context, status model.PaymentStatus, limit int) ([]*model.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	return r.list(ctx, query, string(status), limit)
}

// ListByUser retrieves a user's requests, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*model.PaymentRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	defer rows.Close()

	var out []*model.PaymentRequest
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment request: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment requests: %w", err)
	}
	return out, nil
}
