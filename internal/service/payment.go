package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"asser-platform/internal/model"
	"asser-platform/internal/notify"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// PaymentInput is a user's deposit or withdrawal request.
type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      model.Currency  `json:"currency"`
	FullName      string          `json:"fullName"`
	PhoneNumber   string          `json:"phoneNumber"`
	WalletAddress string          `json:"walletAddress"`
}

// PaymentService handles deposit and withdrawal requests and their settlement.
type PaymentService struct {
	base
	notifier notify.Notifier
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(store repository.Store, locks *lock.UserLock, notifier notify.Notifier) *PaymentService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &PaymentService{base: newBase(store, locks), notifier: notifier}
}

func (in *PaymentInput) validate() error {
	amount, err := normalizeAmount(in.Amount)
	if err != nil {
		return err
	}
	in.Amount = amount
	if !validCurrency(in.Currency) {
		return ErrInvalidCurrency
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)
	if in.FullName == "" || in.PhoneNumber == "" {
		return ErrPaymentDetails
	}
	return nil
}

// RequestDeposit files a pending deposit for admin review.
func (s *PaymentService) RequestDeposit(ctx context.Context, userID int64, in PaymentInput) (*model.PaymentRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.create(ctx, userID, model.PaymentDeposit, in, nil)
}

// RequestWithdrawal files a pending withdrawal. The balance must cover the
// amount now; it is checked again at settlement.
func (s *PaymentService) RequestWithdrawal(ctx context.Context, userID int64, in PaymentInput) (*model.PaymentRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Currency == model.CurrencyUSDT && in.WalletAddress == "" {
		return nil, ErrWalletRequired
	}

	check := func(ctx context.Context, q repository.Queries) error {
		bal, err := q.Balances().Get(ctx, userID)
		if err != nil {
			return err
		}
		if !bal.Covers(in.Currency, in.Amount) {
			return ErrInsufficientBalance
		}
		return nil
	}
	return s.create(ctx, userID, model.PaymentWithdrawal, in, check)
}

func (s *PaymentService) create(
	ctx context.Context,
	userID int64,
	typ model.PaymentType,
	in PaymentInput,
	check func(context.Context, repository.Queries) error,
) (*model.PaymentRequest, error) {
	p := &model.PaymentRequest{
		UserID:        userID,
		Type:          typ,
		Amount:        in.Amount,
		Currency:      in.Currency,
		FullName:      in.FullName,
		PhoneNumber:   in.PhoneNumber,
		WalletAddress: in.WalletAddress,
		Status:        model.PaymentPending,
	}

	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		if check != nil {
			if err := check(ctx, q); err != nil {
				return err
			}
		}
		return q.Payments().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("payment_id", p.ID).
		Str("type", string(typ)).
		Str("amount", p.Amount.String()).
		Str("currency", string(p.Currency)).
		Msg("Payment request created")

	text := fmt.Sprintf("New %s request #%d: %s %s from %s (%s)",
		typ, p.ID, p.Amount.String(), p.Currency.Label(), p.FullName, p.PhoneNumber)
	if p.WalletAddress != "" {
		text += ", wallet " + p.WalletAddress
	}
	if err := s.notifier.NotifyAdmins(ctx, text); err != nil {
		log.Error().Err(err).Int64("payment_id", p.ID).Msg("Failed to notify admins")
	}
	return p, nil
}

// ProcessPayment settles a pending request. Approved deposits credit the
// user; approved withdrawals debit at most the current balance. Only pending
// requests can be settled.
func (s *PaymentService) ProcessPayment(ctx context.Context, adminID, requestID int64, approve bool) (*model.PaymentRequest, error) {
	var owner int64
	err := s.view(ctx, func(q repository.Queries) error {
		p, err := q.Payments().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		owner = p.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var settled *model.PaymentRequest
	err = s.mutate(ctx, []int64{owner}, func(q repository.Queries) error {
		p, err := q.Payments().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if p.Status != model.PaymentPending {
			return ErrAlreadySettled
		}

		now := s.now()
		p.ProcessedAt = &now
		p.ProcessedBy = &adminID
		p.Status = model.PaymentRejected
		if approve {
			p.Status = model.PaymentApproved
			if err := s.apply(ctx, q, p); err != nil {
				return err
			}
		}
		settled = p
		return q.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("payment_id", settled.ID).
		Int64("user_id", settled.UserID).
		Str("status", string(settled.Status)).
		Msg("Payment request processed")
	return settled, nil
}

// apply moves the money of an approved request.
func (s *PaymentService) apply(ctx context.Context, q repository.Queries, p *model.PaymentRequest) error {
	bal, err := q.Balances().GetForUpdate(ctx, p.UserID)
	if err != nil {
		return err
	}

	tx := &model.Transaction{UserID: p.UserID, Reference: fmt.Sprintf("payment-%d", p.ID)}
	switch p.Type {
	case model.PaymentDeposit:
		bal.Add(p.Currency, p.Amount)
		tx.Type = model.TxTypeDeposit
		tx.ToCurrency = p.Currency
		tx.ToAmount = p.Amount
		tx.Description = fmt.Sprintf("Deposit %s %s", p.Amount.String(), p.Currency.Label())
	case model.PaymentWithdrawal:
		amount := decimal.Min(bal.Amount(p.Currency), p.Amount)
		bal.Add(p.Currency, amount.Neg())
		tx.Type = model.TxTypeWithdrawal
		tx.FromCurrency = p.Currency
		tx.FromAmount = amount
		tx.Description = fmt.Sprintf("Withdrawal %s %s", amount.String(), p.Currency.Label())
	default:
		return fmt.Errorf("unknown payment type %q", p.Type)
	}

	if err := q.Balances().Update(ctx, bal); err != nil {
		return err
	}
	return record(ctx, q, tx)
}

// List returns requests with the given status for admins; an empty status
// lists everything.
func (s *PaymentService) List(ctx context.Context, status model.PaymentStatus, limit int) ([]*model.PaymentRequest, error) {
	switch status {
	case "", model.PaymentPending, model.PaymentApproved, model.PaymentRejected:
	default:
		return nil, ErrInvalidPaymentState
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []*model.PaymentRequest
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		out, err = q.Payments().List(ctx, status, limit)
		return err
	})
	return out, err
}

// ListByUser returns the user's own requests.
func (s *PaymentService) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.PaymentRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*model.PaymentRequest
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		out, err = q.Payments().ListByUser(ctx, userID, limit)
		return err
	})
	return out, err
}
