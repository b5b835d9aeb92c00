package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asser-platform/internal/model"
	"asser-platform/internal/repository"
)

func seedUser(t *testing.T, s *Store, email, publicID string) *model.User {
	t.Helper()
	u := &model.User{PublicID: publicID, FullName: "Test " + publicID, Email: email, IsActive: true}
	err := s.InTx(context.Background(), func(q repository.Queries) error {
		if err := q.Users().Create(context.Background(), u); err != nil {
			return err
		}
		return q.Balances().Create(context.Background(), &model.Balance{UserID: u.ID, Asser: decimal.NewFromInt(100)})
	})
	require.NoError(t, err)
	return u
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com", "100001")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q repository.Queries) error {
		b, err := q.Balances().GetForUpdate(ctx, u.ID)
		require.NoError(t, err)
		b.Add(model.CurrencyAsser, decimal.NewFromInt(-60))
		require.NoError(t, q.Balances().Update(ctx, b))
		require.NoError(t, q.Transactions().Create(ctx, &model.Transaction{UserID: u.ID, Type: model.TxTypeTransfer}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.InTx(ctx, func(q repository.Queries) error {
		b, err := q.Balances().Get(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, b.Asser.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(0), b.Version)

		txs, err := q.Transactions().ListByUser(ctx, u.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
		return nil
	})
}

func TestBalanceVersionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com", "100001")

	err := s.InTx(ctx, func(q repository.Queries) error {
		stale, _ := q.Balances().Get(ctx, u.ID)
		fresh, _ := q.Balances().Get(ctx, u.ID)
		require.NoError(t, q.Balances().Update(ctx, fresh))
		assert.Equal(t, int64(1), fresh.Version)
		return q.Balances().Update(ctx, stale)
	})
	require.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "a@example.com", "100001")

	err := s.InTx(ctx, func(q repository.Queries) error {
		return q.Users().Create(ctx, &model.User{Email: "A@example.com", PublicID: "100002"})
	})
	require.ErrorIs(t, err, repository.ErrEmailTaken)

	err = s.InTx(ctx, func(q repository.Queries) error {
		return q.Users().Create(ctx, &model.User{Email: "b@example.com", PublicID: "100001"})
	})
	require.ErrorIs(t, err, repository.ErrPublicIDTaken)
}

func TestGamesActiveAndParticipation(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com", "100001")
	now := time.Now()

	err := s.InTx(ctx, func(q repository.Queries) error {
		older := &model.GameSession{FormulaID: 1, CorrectDoor: 3, StartTime: now.Add(-time.Hour), EndTime: now, IsActive: true}
		newer := &model.GameSession{FormulaID: 2, CorrectDoor: 4, StartTime: now, EndTime: now.Add(time.Minute), IsActive: true}
		require.NoError(t, q.Games().Create(ctx, older))
		assert.ErrorIs(t, q.Games().Create(ctx, newer), repository.ErrActiveGameExists)

		require.NoError(t, q.Games().Deactivate(ctx, older.ID))
		require.NoError(t, q.Games().Create(ctx, newer))

		active, err := q.Games().GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, active.ID)

		closed := &model.GameSession{FormulaID: 3, CorrectDoor: 5, StartTime: now, EndTime: now, IsActive: false}
		require.NoError(t, q.Games().Create(ctx, closed), "inactive sessions never conflict")

		p := &model.Participation{GameID: newer.ID, UserID: u.ID, SelectedDoor: 4, StakeCurrency: model.CurrencyAsser}
		require.NoError(t, q.Games().AddParticipation(ctx, p))
		dup := &model.Participation{GameID: newer.ID, UserID: u.ID, SelectedDoor: 5}
		assert.ErrorIs(t, q.Games().AddParticipation(ctx, dup), repository.ErrDuplicateParticipation)

		require.NoError(t, q.Games().Deactivate(ctx, newer.ID))
		_, err = q.Games().GetActive(ctx)
		assert.ErrorIs(t, err, repository.ErrGameNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestFarmCopiesAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com", "100001")

	_ = s.InTx(ctx, func(q repository.Queries) error {
		f := &model.FarmState{UserID: u.ID}
		require.NoError(t, q.Farms().Create(ctx, f))

		got, err := q.Farms().Get(ctx, u.ID)
		require.NoError(t, err)
		got.PlantedItems = append(got.PlantedItems, model.Plant{ID: "p1"})

		again, err := q.Farms().Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, again.PlantedItems, "unsaved changes must not leak into the store")
		return nil
	})
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, func(repository.Queries) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestReferrals(t *testing.T) {
	s := New()
	ctx := context.Background()
	lead := seedUser(t, s, "lead@example.com", "100001")
	first := seedUser(t, s, "first@example.com", "100002")
	second := seedUser(t, s, "second@example.com", "100003")

	err := s.InTx(ctx, func(q repository.Queries) error {
		require.NoError(t, q.Referrals().Create(ctx, &model.Referral{ReferrerID: lead.ID, ReferredID: first.ID}))
		require.NoError(t, q.Referrals().Create(ctx, &model.Referral{ReferrerID: lead.ID, ReferredID: second.ID}))
		err := q.Referrals().Create(ctx, &model.Referral{ReferrerID: second.ID, ReferredID: first.ID})
		assert.ErrorIs(t, err, repository.ErrAlreadyReferred)

		n, err := q.Referrals().CountByReferrer(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		members, err := q.Referrals().ListMembers(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "100003", members[0].UserID)
		assert.Equal(t, "100002", members[1].UserID)
		return errors.New("discard")
	})
	require.Error(t, err)

	_ = s.InTx(ctx, func(q repository.Queries) error {
		n, err := q.Referrals().CountByReferrer(ctx, lead.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
}
