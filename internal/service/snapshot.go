package service

import (
	"context"
	"errors"
	"time"

	"asser-platform/internal/game"
	"asser-platform/internal/model"
	"asser-platform/internal/repository"
)

// Snapshot defaults used when a profile field is empty.
const (
	defaultSnapshotUserID = "12345"
	defaultSnapshotPhone  = "01234567890"
)

// BuildSnapshot assembles the statistics the game formulas read. Every
// value comes from stored data, so the same state always yields the same
// snapshot.
func BuildSnapshot(ctx context.Context, q repository.Queries, userID int64, now time.Time) (game.Snapshot, error) {
	user, err := q.Users().GetByID(ctx, userID)
	if err != nil {
		return game.Snapshot{}, err
	}
	bal, err := q.Balances().Get(ctx, userID)
	if err != nil {
		return game.Snapshot{}, err
	}
	parts, err := q.Games().ListParticipationsByUser(ctx, userID)
	if err != nil {
		return game.Snapshot{}, err
	}
	counts, err := q.Transactions().CountByType(ctx, userID)
	if err != nil {
		return game.Snapshot{}, err
	}

	invites, err := q.Referrals().CountByReferrer(ctx, userID)
	if err != nil {
		return game.Snapshot{}, err
	}

	// accounts created before farms existed have no farm row
	cactus := 0
	f, err := q.Farms().Get(ctx, userID)
	switch {
	case err == nil:
		cactus = len(f.PlantedItems)
	case !errors.Is(err, repository.ErrFarmNotFound):
		return game.Snapshot{}, err
	}

	return assembleSnapshot(user, bal, activity{cactus: cactus, invites: invites, ledger: counts}, parts, now), nil
}

// activity holds the per-user tallies read alongside the profile.
type activity struct {
	cactus  int
	invites int
	ledger  map[string]int // ledger rows per transaction type
}

// messages counts every event the account produced: ledger rows, logins
// and logouts.
func (a activity) messages(user *model.User) int {
	n := int(user.LoginCount + user.LogoutCount)
	for _, c := range a.ledger {
		n += c
	}
	return n
}

func assembleSnapshot(
	user *model.User,
	bal *model.Balance,
	act activity,
	parts []*model.Participation,
	now time.Time,
) game.Snapshot {
	wins := 0
	for _, p := range parts {
		if p.IsCorrect {
			wins++
		}
	}
	losses := len(parts) - wins

	balance := bal.Asser.InexactFloat64()

	userID := user.PublicID
	if userID == "" {
		userID = defaultSnapshotUserID
	}
	phone := user.Phone
	if phone == "" {
		phone = defaultSnapshotPhone
	}

	messages := act.messages(user)
	counts := act.ledger

	activeDays := int(now.Sub(user.CreatedAt) / (24 * time.Hour))
	if activeDays < 1 {
		activeDays = 1
	}

	return game.Snapshot{
		LoginCount:         int(user.LoginCount),
		AccountBalance:     balance,
		CactusCount:        act.cactus,
		UserID:             userID,
		PhoneNumber:        phone,
		TotalWins:          wins,
		ParticipationCount: len(parts),
		MessageCount:       messages,
		Rewards:            balance,
		LossCount:          losses,
		ActiveDays:         activeDays,
		TransferCount:      counts[model.TxTypeTransfer],
		CorrectAnswers:     wins,
		LogoutCount:        int(user.LogoutCount),
		PrivateMessages:    messages * 3 / 10,
		GameCount:          len(parts),
		DepositCount:       counts[model.TxTypeDeposit],
		DiscountCount:      counts[model.TxTypeExchange],
		PrizeCount:         wins,
		PurchaseCount:      counts[model.TxTypePurchase],
		QuestionCount:      len(parts),
		InvitationCount:    act.invites,
		PreviousBalance:    balance * 0.9,
		Losses:             losses,
		TakenAt:            now,
	}
}
