package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"asser-platform/internal/config"
	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// LedgerService moves money: exchanges, transfers and subscription fees.
type LedgerService struct {
	base
	feeRate         decimal.Decimal
	minTransfer     decimal.Decimal
	maxTransfer     decimal.Decimal
	subscriptionFee decimal.Decimal
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(store repository.Store, locks *lock.UserLock, cfg config.LedgerConfig) *LedgerService {
	return &LedgerService{
		base:            newBase(store, locks),
		feeRate:         config.Dec(cfg.TransferFeeRate),
		minTransfer:     config.Dec(cfg.MinTransfer),
		maxTransfer:     config.Dec(cfg.MaxTransfer),
		subscriptionFee: config.Dec(cfg.SubscriptionFee),
	}
}

// Balance returns the user's holdings.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (*model.Balance, error) {
	var bal *model.Balance
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		bal, err = q.Balances().Get(ctx, userID)
		return err
	})
	return bal, err
}

// History returns the user's most recent ledger rows, newest first.
func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txs []*model.Transaction
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		txs, err = q.Transactions().ListByUser(ctx, userID, limit)
		return err
	})
	return txs, err
}

// Rates returns the current exchange rates.
func (s *LedgerService) Rates(ctx context.Context) (*model.ExchangeRate, error) {
	var r *model.ExchangeRate
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		r, err = q.Rates().Get(ctx)
		return err
	})
	return r, err
}

// UpdateRates replaces the exchange rates. Every rate must be positive.
func (s *LedgerService) UpdateRates(ctx context.Context, adminID int64, r model.ExchangeRate) (*model.ExchangeRate, error) {
	for _, v := range []decimal.Decimal{r.USDTToAsser, r.EGPToAsser, r.AsserToUSDT, r.AsserToEGP, r.USDTToEGP, r.EGPToUSDT} {
		if !v.IsPositive() {
			return nil, ErrInvalidRate
		}
	}

	r.UpdatedAt = s.now()
	err := s.view(ctx, func(q repository.Queries) error {
		return q.Rates().Save(ctx, &r)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Str("usdt_to_asser", r.USDTToAsser.String()).
		Str("asser_to_usdt", r.AsserToUSDT.String()).
		Msg("Exchange rates updated")
	return &r, nil
}

// Exchange converts amount of from into to at the current rate.
func (s *LedgerService) Exchange(ctx context.Context, userID int64, from, to model.Currency, amount decimal.Decimal) (*model.Transaction, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if !validCurrency(from) || !validCurrency(to) {
		return nil, ErrInvalidCurrency
	}
	if from == to {
		return nil, ErrSameCurrency
	}

	var tx *model.Transaction
	err = s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		rates, err := q.Rates().Get(ctx)
		if err != nil {
			return err
		}
		rate, ok := rates.Rate(from, to)
		if !ok {
			return ErrUnsupportedPair
		}
		toAmount := amount.Mul(rate).Round(model.AmountScale)

		bal, err := q.Balances().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := debit(bal, from, amount); err != nil {
			return err
		}
		bal.Add(to, toAmount)
		if err := q.Balances().Update(ctx, bal); err != nil {
			return err
		}

		tx = &model.Transaction{
			UserID:       userID,
			Type:         model.TxTypeExchange,
			FromCurrency: from,
			ToCurrency:   to,
			FromAmount:   amount,
			ToAmount:     toAmount,
			Description: fmt.Sprintf("Exchange %s %s to %s %s",
				amount.String(), from.Label(), toAmount.String(), to.Label()),
		}
		return record(ctx, q, tx)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("amount", amount.String()).
		Str("received", tx.ToAmount.String()).
		Msg("Currency exchanged")
	return tx, nil
}

// TransferResult summarizes a completed transfer.
type TransferResult struct {
	TransferAmount  decimal.Decimal `json:"transferAmount"`
	TransferFee     decimal.Decimal `json:"transferFee"`
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	RecipientName   string          `json:"recipientName"`
	RecipientUserID string          `json:"recipientUserId"`
	Reference       string          `json:"reference"`
}

// Fee returns the transfer fee charged on top of amount.
func (s *LedgerService) Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.feeRate).Round(model.AmountScale)
}

// Transfer sends AsserCoin to the user with the given public id. The sender
// pays amount plus fee; the recipient receives amount; the fee is burned.
func (s *LedgerService) Transfer(ctx context.Context, senderID int64, recipientPublicID string, amount decimal.Decimal) (*TransferResult, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(s.minTransfer) || amount.GreaterThan(s.maxTransfer) {
		return nil, ErrAmountOutOfRange
	}

	var recipient *model.User
	err = s.view(ctx, func(q repository.Queries) error {
		var err error
		recipient, err = q.Users().GetByPublicID(ctx, recipientPublicID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, ErrSelfTransfer
	}

	fee := s.Fee(amount)
	total := amount.Add(fee)
	result := &TransferResult{
		TransferAmount:  amount,
		TransferFee:     fee,
		TotalDebit:      total,
		RecipientName:   recipient.FullName,
		RecipientUserID: recipient.PublicID,
		Reference:       uuid.NewString(),
	}

	err = s.mutate(ctx, []int64{senderID, recipient.ID}, func(q repository.Queries) error {
		// Re-read under lock; the recipient may have been disabled meanwhile.
		to, err := q.Users().GetByID(ctx, recipient.ID)
		if err != nil {
			return err
		}
		if !to.IsActive {
			return ErrRecipientInactive
		}
		from, err := q.Users().GetByID(ctx, senderID)
		if err != nil {
			return err
		}

		bals, err := balancesForUpdate(ctx, q, senderID, recipient.ID)
		if err != nil {
			return err
		}
		senderBal, recipientBal := bals[senderID], bals[recipient.ID]

		if err := debit(senderBal, model.CurrencyAsser, total); err != nil {
			return err
		}
		recipientBal.Add(model.CurrencyAsser, amount)

		if err := q.Balances().Update(ctx, senderBal); err != nil {
			return err
		}
		if err := q.Balances().Update(ctx, recipientBal); err != nil {
			return err
		}

		err = record(ctx, q, &model.Transaction{
			UserID:          senderID,
			Type:            model.TxTypeTransfer,
			FromCurrency:    model.CurrencyAsser,
			ToCurrency:      model.CurrencyAsser,
			FromAmount:      total,
			ToAmount:        amount,
			TransferFee:     fee,
			RecipientUserID: to.PublicID,
			Reference:       result.Reference,
			Description:     fmt.Sprintf("Transfer to %s (%s)", to.FullName, to.PublicID),
		})
		if err != nil {
			return err
		}
		return record(ctx, q, &model.Transaction{
			UserID:          recipient.ID,
			Type:            model.TxTypeTransfer,
			FromCurrency:    model.CurrencyAsser,
			ToCurrency:      model.CurrencyAsser,
			FromAmount:      decimal.Zero,
			ToAmount:        amount,
			RecipientUserID: to.PublicID,
			Reference:       result.Reference,
			Description:     fmt.Sprintf("Transfer from %s (%s)", from.FullName, from.PublicID),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", senderID).
		Int64("recipient_id", recipient.ID).
		Str("amount", amount.String()).
		Str("fee", fee.String()).
		Str("reference", result.Reference).
		Msg("Transfer completed")
	return result, nil
}

// Subscribe books the user into a daily game slot for the subscription fee.
func (s *LedgerService) Subscribe(ctx context.Context, userID int64, slot string) (*model.GameSubscription, error) {
	if !slices.Contains(model.GameSlots(), slot) {
		return nil, ErrInvalidSlot
	}

	sub := &model.GameSubscription{UserID: userID, GameTime: slot, Fee: s.subscriptionFee}
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		existing, err := q.Subscriptions().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.GameTime == slot {
				return ErrAlreadySubscribed
			}
		}

		bal, err := q.Balances().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := debit(bal, model.CurrencyAsser, sub.Fee); err != nil {
			return err
		}

		if err := q.Subscriptions().Create(ctx, sub); err != nil {
			return err
		}
		if err := q.Balances().Update(ctx, bal); err != nil {
			return err
		}
		return record(ctx, q, &model.Transaction{
			UserID:       userID,
			Type:         model.TxTypeGameSubscription,
			FromCurrency: model.CurrencyAsser,
			FromAmount:   sub.Fee,
			Description:  fmt.Sprintf("Game subscription %s", slot),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Str("slot", slot).Msg("Game slot subscribed")
	return sub, nil
}

// Subscriptions lists the user's booked game slots.
func (s *LedgerService) Subscriptions(ctx context.Context, userID int64) ([]*model.GameSubscription, error) {
	var subs []*model.GameSubscription
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		subs, err = q.Subscriptions().ListByUser(ctx, userID)
		return err
	})
	return subs, err
}
