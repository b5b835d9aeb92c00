// Package service implements the platform's business operations: accounts,
// the multi-currency ledger, the prediction game, the farm and payment
// settlement. Every balance change runs under the affected users' locks
// inside a single store transaction.
package service

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// lockTimeout bounds how long an operation waits for a busy user.
const lockTimeout = 5 * time.Second

// base is embedded by every service.
type base struct {
	store repository.Store
	locks *lock.UserLock
	now   func() time.Time
}

func newBase(store repository.Store, locks *lock.UserLock) base {
	if locks == nil {
		locks = lock.NewUserLock()
	}
	return base{store: store, locks: locks, now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (b *base) SetClock(now func() time.Time) {
	b.now = now
}

// balancesForUpdate locks the balance rows of userIDs in ascending id order,
// the same order WithLocks uses, so concurrent transactions cannot deadlock
// on the rows.
func balancesForUpdate(ctx context.Context, q repository.Queries, userIDs ...int64) (map[int64]*model.Balance, error) {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	out := make(map[int64]*model.Balance, len(ids))
	for _, id := range ids {
		bal, err := q.Balances().GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = bal
	}
	return out, nil
}

// view runs a read-only unit of work.
func (b *base) view(ctx context.Context, fn func(q repository.Queries) error) error {
	return translate(b.store.InTx(ctx, fn))
}

// mutate runs fn in one unit of work while holding the locks of every
// listed user.
func (b *base) mutate(ctx context.Context, userIDs []int64, fn func(q repository.Queries) error) error {
	err := b.locks.WithLocks(ctx, lockTimeout, userIDs, func() error {
		return b.store.InTx(ctx, fn)
	})
	return translate(err)
}

// record appends a ledger row.
func record(ctx context.Context, q repository.Queries, tx *model.Transaction) error {
	if tx.Status == "" {
		tx.Status = model.TxStatusCompleted
	}
	return q.Transactions().Create(ctx, tx)
}

// debit removes amount of c from b or fails without touching it.
func debit(b *model.Balance, c model.Currency, amount decimal.Decimal) error {
	if !b.Covers(c, amount) {
		return ErrInsufficientBalance
	}
	b.Add(c, amount.Neg())
	return nil
}

// normalizeAmount rounds to storage precision and requires a positive result.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(model.AmountScale)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func validCurrency(c model.Currency) bool {
	return slices.Contains(model.Currencies(), c)
}
