package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asser-platform/internal/model"
)

func depositInput(amount string, c model.Currency) PaymentInput {
	return PaymentInput{
		Amount:      dec(amount),
		Currency:    c,
		FullName:    "Sara Ali",
		PhoneNumber: "01012345678",
	}
}

func TestDepositApproval(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "Admin", "admin@example.com")
	u := env.register(t, "Sara", "sara@example.com")

	req, err := env.payments.RequestDeposit(ctx, u.ID, depositInput("250", model.CurrencyEGP))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, req.Status)
	assert.Equal(t, 1, env.notifier.count())
	assertDec(t, "500", env.balance(t, u.ID).EGP)

	settled, err := env.payments.ProcessPayment(ctx, admin.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, settled.Status)
	require.NotNil(t, settled.ProcessedBy)
	assert.Equal(t, admin.ID, *settled.ProcessedBy)
	assertDec(t, "750", env.balance(t, u.ID).EGP)

	_, err = env.payments.ProcessPayment(ctx, admin.ID, req.ID, true)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	_, err = env.payments.ProcessPayment(ctx, admin.ID, req.ID, false)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assertDec(t, "750", env.balance(t, u.ID).EGP)

	deposits := txsOfType(env.history(t, u.ID), model.TxTypeDeposit)
	assert.Len(t, deposits, 4) // three welcome rows plus the approval
}

func TestPaymentRejection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "Admin", "admin@example.com")
	u := env.register(t, "Sara", "sara@example.com")

	req, err := env.payments.RequestDeposit(ctx, u.ID, depositInput("10", model.CurrencyUSDT))
	require.NoError(t, err)

	settled, err := env.payments.ProcessPayment(ctx, admin.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, settled.Status)
	assertDec(t, "100", env.balance(t, u.ID).USDT)

	_, err = env.payments.ProcessPayment(ctx, admin.ID, req.ID+999, true)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestWithdrawal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "Admin", "admin@example.com")
	u := env.register(t, "Sara", "sara@example.com")

	in := depositInput("80", model.CurrencyUSDT)
	_, err := env.payments.RequestWithdrawal(ctx, u.ID, in)
	assert.ErrorIs(t, err, ErrWalletRequired)

	in.WalletAddress = "TXyz123"
	req, err := env.payments.RequestWithdrawal(ctx, u.ID, in)
	require.NoError(t, err)

	// Spend part of the balance before the admin gets to it.
	_, err = env.ledger.Exchange(ctx, u.ID, model.CurrencyUSDT, model.CurrencyAsser, dec("50"))
	require.NoError(t, err)

	_, err = env.payments.ProcessPayment(ctx, admin.ID, req.ID, true)
	require.NoError(t, err)
	assertDec(t, "0", env.balance(t, u.ID).USDT)

	withdrawals := txsOfType(env.history(t, u.ID), model.TxTypeWithdrawal)
	require.Len(t, withdrawals, 1)
	assertDec(t, "50", withdrawals[0].FromAmount)
}

func TestPaymentRequestRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	tests := []struct {
		name string
		in   PaymentInput
		want error
	}{
		{"zero amount", depositInput("0", model.CurrencyEGP), ErrInvalidAmount},
		{"bad currency", depositInput("5", "btc"), ErrInvalidCurrency},
		{"missing name", PaymentInput{Amount: dec("5"), Currency: model.CurrencyEGP, PhoneNumber: "0101"}, ErrPaymentDetails},
		{"missing phone", PaymentInput{Amount: dec("5"), Currency: model.CurrencyEGP, FullName: "Sara"}, ErrPaymentDetails},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.payments.RequestDeposit(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.payments.RequestWithdrawal(ctx, u.ID, depositInput("501", model.CurrencyEGP))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, env.notifier.count())
}

func TestListPayments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "Admin", "admin@example.com")
	u := env.register(t, "Sara", "sara@example.com")

	first, err := env.payments.RequestDeposit(ctx, u.ID, depositInput("5", model.CurrencyEGP))
	require.NoError(t, err)
	_, err = env.payments.RequestDeposit(ctx, u.ID, depositInput("6", model.CurrencyEGP))
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, admin.ID, first.ID, true)
	require.NoError(t, err)

	pending, err := env.payments.List(ctx, model.PaymentPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := env.payments.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.payments.List(ctx, "lost", 0)
	assert.ErrorIs(t, err, ErrInvalidPaymentState)

	mine, err := env.payments.ListByUser(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
