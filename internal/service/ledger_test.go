package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"asser-platform/internal/apperr"
	"asser-platform/internal/config"
	"asser-platform/internal/model"
	"asser-platform/internal/repository"
)

func txsOfType(txs []*model.Transaction, typ string) []*model.Transaction {
	var out []*model.Transaction
	for _, tx := range txs {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

func TestRegisterCreditsWelcomeFunds(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	bal := env.balance(t, u.ID)
	assertDec(t, "100", bal.USDT)
	assertDec(t, "500", bal.EGP)
	assertDec(t, "100", bal.Asser)
	assert.Len(t, txsOfType(env.history(t, u.ID), model.TxTypeDeposit), 3)
}

func TestExchange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(c *config.Config) { c.Ledger.WelcomeAsser = 50 })
	u := env.register(t, "Sara", "sara@example.com")

	tx, err := env.ledger.Exchange(ctx, u.ID, model.CurrencyAsser, model.CurrencyUSDT, dec("50"))
	require.NoError(t, err)
	assertDec(t, "50", tx.FromAmount)
	assertDec(t, "5", tx.ToAmount)
	assert.Equal(t, model.TxTypeExchange, tx.Type)

	bal := env.balance(t, u.ID)
	assertDec(t, "0", bal.Asser)
	assertDec(t, "105", bal.USDT)
	assert.Len(t, txsOfType(env.history(t, u.ID), model.TxTypeExchange), 1)
}

func TestExchangeRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(c *config.Config) { c.Ledger.WelcomeAsser = 50 })
	u := env.register(t, "Sara", "sara@example.com")

	tests := []struct {
		name     string
		from, to model.Currency
		amount   decimal.Decimal
		want     error
	}{
		{"insufficient", model.CurrencyAsser, model.CurrencyUSDT, dec("51"), ErrInsufficientBalance},
		{"zero amount", model.CurrencyAsser, model.CurrencyUSDT, decimal.Zero, ErrInvalidAmount},
		{"negative amount", model.CurrencyAsser, model.CurrencyUSDT, dec("-5"), ErrInvalidAmount},
		{"same currency", model.CurrencyUSDT, model.CurrencyUSDT, dec("5"), ErrSameCurrency},
		{"unknown currency", model.Currency("btc"), model.CurrencyUSDT, dec("5"), ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.Exchange(ctx, u.ID, tt.from, tt.to, tt.amount)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	bal := env.balance(t, u.ID)
	assertDec(t, "50", bal.Asser)
	assertDec(t, "100", bal.USDT)
	assert.Empty(t, txsOfType(env.history(t, u.ID), model.TxTypeExchange))
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sender := env.register(t, "Sara", "sara@example.com")
	recipient := env.register(t, "Omar", "omar@example.com")

	res, err := env.ledger.Transfer(ctx, sender.ID, recipient.PublicID, dec("50"))
	require.NoError(t, err)
	assertDec(t, "50", res.TransferAmount)
	assertDec(t, "1", res.TransferFee)
	assertDec(t, "51", res.TotalDebit)
	assert.Equal(t, "Omar", res.RecipientName)
	assert.Equal(t, recipient.PublicID, res.RecipientUserID)

	assertDec(t, "49", env.balance(t, sender.ID).Asser)
	assertDec(t, "150", env.balance(t, recipient.ID).Asser)

	sent := txsOfType(env.history(t, sender.ID), model.TxTypeTransfer)
	received := txsOfType(env.history(t, recipient.ID), model.TxTypeTransfer)
	require.Len(t, sent, 1)
	require.Len(t, received, 1)
	assertDec(t, "51", sent[0].FromAmount)
	assertDec(t, "1", sent[0].TransferFee)
	assertDec(t, "50", received[0].ToAmount)
	assert.Equal(t, res.Reference, sent[0].Reference)
	assert.Equal(t, res.Reference, received[0].Reference)
}

// rowLockRecorder remembers the order balance rows are locked in.
type rowLockRecorder struct {
	repository.Store
	mu    sync.Mutex
	order []int64
}

func (r *rowLockRecorder) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	return r.Store.InTx(ctx, func(q repository.Queries) error {
		return fn(recordingQueries{Queries: q, r: r})
	})
}

func (r *rowLockRecorder) take() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.order
	r.order = nil
	return out
}

type recordingQueries struct {
	repository.Queries
	r *rowLockRecorder
}

func (q recordingQueries) Balances() repository.BalanceStore {
	return recordingBalances{BalanceStore: q.Queries.Balances(), r: q.r}
}

type recordingBalances struct {
	repository.BalanceStore
	r *rowLockRecorder
}

func (b recordingBalances) GetForUpdate(ctx context.Context, userID int64) (*model.Balance, error) {
	b.r.mu.Lock()
	b.r.order = append(b.r.order, userID)
	b.r.mu.Unlock()
	return b.BalanceStore.GetForUpdate(ctx, userID)
}

func TestTransferLocksRowsInIDOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	first := env.register(t, "Sara", "sara@example.com")
	second := env.register(t, "Omar", "omar@example.com")
	require.Less(t, first.ID, second.ID)

	rec := &rowLockRecorder{Store: env.store}
	env.ledger.store = rec

	_, err := env.ledger.Transfer(ctx, second.ID, first.PublicID, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, rec.take())

	_, err = env.ledger.Transfer(ctx, first.ID, second.PublicID, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, rec.take())
}

func TestTransferRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "Admin", "admin@example.com")
	sender := env.register(t, "Sara", "sara@example.com")
	recipient := env.register(t, "Omar", "omar@example.com")
	disabled := env.register(t, "Mona", "mona@example.com")
	_, err := env.accounts.SetUserActive(ctx, admin.ID, disabled.ID, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		to     string
		amount decimal.Decimal
		want   error
	}{
		{"self", sender.PublicID, dec("10"), ErrSelfTransfer},
		{"unknown recipient", "999999", dec("10"), ErrRecipientNotFound},
		{"below minimum", recipient.PublicID, dec("0.001"), ErrAmountOutOfRange},
		{"above maximum", recipient.PublicID, dec("10001"), ErrAmountOutOfRange},
		{"fee not covered", recipient.PublicID, dec("99"), ErrInsufficientBalance},
		{"disabled recipient", disabled.PublicID, dec("10"), ErrRecipientInactive},
		{"not positive", recipient.PublicID, dec("0"), ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.Transfer(ctx, sender.ID, tt.to, tt.amount)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assertDec(t, "100", env.balance(t, sender.ID).Asser)
	assertDec(t, "100", env.balance(t, recipient.ID).Asser)
	assert.Empty(t, txsOfType(env.history(t, sender.ID), model.TxTypeTransfer))
}

func TestTransferConservesMinusFees(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		env := newTestEnv(t)
		users := []*model.User{
			env.register(t, "A", "a@example.com"),
			env.register(t, "B", "b@example.com"),
			env.register(t, "C", "c@example.com"),
		}

		burned := decimal.Zero
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			from := rapid.IntRange(0, 2).Draw(t, "from")
			to := rapid.IntRange(0, 2).Draw(t, "to")
			cents := rapid.Int64Range(1, 6000).Draw(t, "cents")
			amount := decimal.New(cents, -2)

			res, err := env.ledger.Transfer(ctx, users[from].ID, users[to].PublicID, amount)
			if err != nil {
				if !apperr.IsKind(err, apperr.KindValidation) && !apperr.IsKind(err, apperr.KindInsufficientBalance) {
					t.Fatalf("unexpected error: %v", err)
				}
				continue
			}
			burned = burned.Add(res.TransferFee)
		}

		total := decimal.Zero
		for _, u := range users {
			bal := env.balance(t, u.ID)
			if bal.Asser.IsNegative() {
				t.Fatalf("negative balance for %s: %s", u.FullName, bal.Asser)
			}
			total = total.Add(bal.Asser)
		}
		if !total.Add(burned).Equal(decimal.NewFromInt(300)) {
			t.Fatalf("total %s + burned %s != 300", total, burned)
		}
	})
}

func TestConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@example.com")
	b := env.register(t, "B", "b@example.com")

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Transfer(ctx, a.ID, b.PublicID, dec("1"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := env.ledger.Transfer(ctx, b.ID, a.PublicID, dec("1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Each side sent 50 and received 50, paying 50 * 0.02 in fees.
	assertDec(t, "99", env.balance(t, a.ID).Asser)
	assertDec(t, "99", env.balance(t, b.ID).Asser)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	sub, err := env.ledger.Subscribe(ctx, u.ID, "18:00")
	require.NoError(t, err)
	assertDec(t, "5", sub.Fee)
	assertDec(t, "95", env.balance(t, u.ID).Asser)

	_, err = env.ledger.Subscribe(ctx, u.ID, "18:00")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	_, err = env.ledger.Subscribe(ctx, u.ID, "04:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)

	subs, err := env.ledger.Subscriptions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Len(t, txsOfType(env.history(t, u.ID), model.TxTypeGameSubscription), 1)
}

func TestUpdateRates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	r := model.DefaultExchangeRate()
	r.AsserToUSDT = dec("0.2")
	updated, err := env.ledger.UpdateRates(ctx, 1, r)
	require.NoError(t, err)
	assertDec(t, "0.2", updated.AsserToUSDT)

	got, err := env.ledger.Rates(ctx)
	require.NoError(t, err)
	assertDec(t, "0.2", got.AsserToUSDT)

	r.EGPToUSDT = decimal.Zero
	_, err = env.ledger.UpdateRates(ctx, 1, r)
	assert.ErrorIs(t, err, ErrInvalidRate)
}
