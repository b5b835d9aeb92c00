package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"asser-platform/internal/config"
	"asser-platform/internal/game"
	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// CreateGameInput configures a new round.
type CreateGameInput struct {
	FormulaID       int   `json:"formulaId"`
	DurationSeconds int   `json:"durationSeconds"`
	ReferenceUserID int64 `json:"referenceUserId,omitempty"` // defaults to the creating admin
}

// ParticipateInput is one guess.
type ParticipateInput struct {
	GameID        int64           `json:"gameId"`
	StakeAmount   decimal.Decimal `json:"stakeAmount"`
	StakeCurrency model.Currency  `json:"stakeCurrency"`
	SelectedDoor  int             `json:"selectedDoor"`
}

// PublicGame is a running game without its answer.
type PublicGame struct {
	ID              int64     `json:"id"`
	FormulaID       int       `json:"formulaId"`
	FormulaName     string    `json:"formulaName"`
	DurationSeconds int       `json:"durationSeconds"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	TimeRemaining   int       `json:"timeRemaining"`
}

// TimerSync is the countdown clients poll or receive over the websocket.
type TimerSync struct {
	HasActiveGame bool   `json:"hasActiveGame"`
	TimeRemaining int    `json:"timeRemaining"`
	GameID        int64  `json:"gameId,omitempty"`
	FormulaLabel  string `json:"formulaLabel,omitempty"`
}

// ParticipationResult is a scored guess. The answer is revealed once the
// user has committed their guess.
type ParticipationResult struct {
	*model.Participation
	CorrectDoor int `json:"correctDoor"`
}

// FormulaInfo describes one catalog entry.
type FormulaInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GameService runs the door prediction game.
type GameService struct {
	base
	catalog        *game.Catalog
	rewardRate     decimal.Decimal
	minStake       decimal.Decimal
	defaultSeconds int
	maxSeconds     int
	randomFallback bool
	rng            *rand.Rand
}

// NewGameService creates a new GameService instance.
func NewGameService(store repository.Store, locks *lock.UserLock, catalog *game.Catalog, cfg config.GamesConfig) *GameService {
	if catalog == nil {
		catalog = game.DefaultCatalog()
	}
	return &GameService{
		base:           newBase(store, locks),
		catalog:        catalog,
		rewardRate:     config.Dec(cfg.RewardRate),
		minStake:       config.Dec(cfg.MinStake),
		defaultSeconds: cfg.DefaultDuration,
		maxSeconds:     cfg.MaxDuration,
		randomFallback: cfg.RandomFallback,
	}
}

// Formulas lists the catalog for admins.
func (s *GameService) Formulas() []FormulaInfo {
	list := s.catalog.List()
	out := make([]FormulaInfo, len(list))
	for i, f := range list {
		out[i] = FormulaInfo{ID: f.ID, Name: f.Name}
	}
	return out
}

func (s *GameService) door(formulaID int, snap game.Snapshot) (int, string, error) {
	if f, ok := s.catalog.Get(formulaID); ok {
		return game.NormalizeDoor(f.Calculate(snap)), f.Name, nil
	}
	if !s.randomFallback {
		return 0, "", fmt.Errorf("formula %d: %w", formulaID, game.ErrUnknownFormula)
	}
	return s.catalog.CorrectDoorOrRandom(formulaID, snap, s.rng), fmt.Sprintf("Formula %d", formulaID), nil
}

// CreateGame opens a new round whose answer is derived from the reference
// user's statistics. Expired rounds are closed first; a round that is still
// running blocks creation.
func (s *GameService) CreateGame(ctx context.Context, adminID int64, in CreateGameInput) (*model.GameSession, error) {
	if in.DurationSeconds == 0 {
		in.DurationSeconds = s.defaultSeconds
	}
	if in.DurationSeconds < 1 || in.DurationSeconds > s.maxSeconds {
		return nil, ErrInvalidDuration
	}
	if _, ok := s.catalog.Get(in.FormulaID); !ok && !s.randomFallback {
		return nil, fmt.Errorf("formula %d: %w", in.FormulaID, game.ErrUnknownFormula)
	}
	reference := in.ReferenceUserID
	if reference == 0 {
		reference = adminID
	}

	var session *model.GameSession
	err := s.view(ctx, func(q repository.Queries) error {
		now := s.now()
		if err := s.closeExpired(ctx, q, now); err != nil {
			return err
		}

		snap, err := BuildSnapshot(ctx, q, reference, now)
		if err != nil {
			return err
		}
		door, name, err := s.door(in.FormulaID, snap)
		if err != nil {
			return err
		}

		session = game.NewSession(game.Formula{ID: in.FormulaID, Name: name}, door, in.DurationSeconds, adminID, now)
		return q.Games().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("game_id", session.ID).
		Int("formula_id", session.FormulaID).
		Int64("reference_user_id", reference).
		Int("duration", session.DurationSeconds).
		Msg("Game created")
	return session, nil
}

// closeExpired deactivates finished rounds and fails if one is still open.
func (s *GameService) closeExpired(ctx context.Context, q repository.Queries, now time.Time) error {
	for {
		active, err := q.Games().GetActive(ctx)
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if game.IsOpen(active, now) {
			return ErrGameInProgress
		}
		if err := q.Games().Deactivate(ctx, active.ID); err != nil {
			return err
		}
	}
}

// active returns the open round, or nil when there is none.
func (s *GameService) active(ctx context.Context) (*model.GameSession, time.Time, error) {
	var session *model.GameSession
	now := s.now()
	err := s.view(ctx, func(q repository.Queries) error {
		g, err := q.Games().GetActive(ctx)
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if game.IsOpen(g, now) {
			session = g
		}
		return nil
	})
	return session, now, err
}

// ActiveGame returns the running round without its answer, or nil.
func (s *GameService) ActiveGame(ctx context.Context) (*PublicGame, error) {
	g, now, err := s.active(ctx)
	if err != nil || g == nil {
		return nil, err
	}
	return &PublicGame{
		ID:              g.ID,
		FormulaID:       g.FormulaID,
		FormulaName:     g.FormulaName,
		DurationSeconds: g.DurationSeconds,
		StartTime:       g.StartTime,
		EndTime:         g.EndTime,
		TimeRemaining:   game.RemainingSeconds(g, now),
	}, nil
}

// TimerSync reports the countdown of the running round.
func (s *GameService) TimerSync(ctx context.Context) (TimerSync, error) {
	g, now, err := s.active(ctx)
	if err != nil || g == nil {
		return TimerSync{}, err
	}
	return TimerSync{
		HasActiveGame: true,
		TimeRemaining: game.RemainingSeconds(g, now),
		GameID:        g.ID,
		FormulaLabel:  g.FormulaName,
	}, nil
}

// Participate records a guess. A correct guess is rewarded with
// stake*reward_rate in the stake currency; a wrong guess costs nothing.
// The stake itself is never taken but must be covered by the balance.
func (s *GameService) Participate(ctx context.Context, userID int64, in ParticipateInput) (*ParticipationResult, error) {
	if !game.ValidDoor(in.SelectedDoor) {
		return nil, ErrInvalidDoor
	}
	stake := in.StakeAmount.Round(model.AmountScale)
	if stake.LessThan(s.minStake) {
		return nil, ErrStakeTooLow
	}
	if !validCurrency(in.StakeCurrency) {
		return nil, ErrInvalidCurrency
	}

	var (
		part        *model.Participation
		correctDoor int
	)
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		now := s.now()
		g, err := q.Games().GetByID(ctx, in.GameID)
		if err != nil {
			return err
		}
		if !game.IsOpen(g, now) {
			return ErrGameNotOpen
		}

		mine, err := q.Games().ListParticipationsByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range mine {
			if p.GameID == g.ID {
				return ErrAlreadyParticipated
			}
		}

		bal, err := q.Balances().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !bal.Covers(in.StakeCurrency, stake) {
			return ErrInsufficientBalance
		}

		correctDoor = g.CorrectDoor
		correct, reward := game.Evaluate(in.SelectedDoor, g.CorrectDoor, stake, s.rewardRate)
		part = &model.Participation{
			GameID:         g.ID,
			UserID:         userID,
			StakeAmount:    stake,
			StakeCurrency:  in.StakeCurrency,
			SelectedDoor:   in.SelectedDoor,
			IsCorrect:      correct,
			Reward:         reward,
			ParticipatedAt: now,
		}
		if err := q.Games().AddParticipation(ctx, part); err != nil {
			return err
		}

		tx := &model.Transaction{
			UserID:       userID,
			FromCurrency: in.StakeCurrency,
			FromAmount:   decimal.Zero,
			ToAmount:     decimal.Zero,
			Reference:    fmt.Sprintf("game-%d", g.ID),
		}
		if correct {
			bal.Add(in.StakeCurrency, reward)
			if err := q.Balances().Update(ctx, bal); err != nil {
				return err
			}
			tx.Type = model.TxTypeGameWin
			tx.ToCurrency = in.StakeCurrency
			tx.ToAmount = reward
			tx.Description = fmt.Sprintf("Correct door %d in game #%d, reward %s %s",
				in.SelectedDoor, g.ID, reward.String(), in.StakeCurrency.Label())
		} else {
			tx.Type = model.TxTypeGameLoss
			tx.Description = fmt.Sprintf("Wrong door %d in game #%d", in.SelectedDoor, g.ID)
		}
		return record(ctx, q, tx)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("game_id", part.GameID).
		Int("door", part.SelectedDoor).
		Bool("correct", part.IsCorrect).
		Str("reward", part.Reward.String()).
		Msg("Game participation")
	return &ParticipationResult{Participation: part, CorrectDoor: correctDoor}, nil
}

// CloseGame ends a round early.
func (s *GameService) CloseGame(ctx context.Context, adminID, gameID int64) error {
	err := s.view(ctx, func(q repository.Queries) error {
		return q.Games().Deactivate(ctx, gameID)
	})
	if err != nil {
		return err
	}
	log.Info().Int64("admin_id", adminID).Int64("game_id", gameID).Msg("Game closed")
	return nil
}

// ListGames returns recent rounds including their answers, for admins.
func (s *GameService) ListGames(ctx context.Context, limit int) ([]*model.GameSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*model.GameSession
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		out, err = q.Games().List(ctx, limit)
		return err
	})
	return out, err
}

// MyParticipations returns the user's guesses, newest first.
func (s *GameService) MyParticipations(ctx context.Context, userID int64) ([]*model.Participation, error) {
	var out []*model.Participation
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		out, err = q.Games().ListParticipationsByUser(ctx, userID)
		return err
	})
	return out, err
}

// Snapshot returns the statistics a formula would see for the user now.
func (s *GameService) Snapshot(ctx context.Context, userID int64) (game.Snapshot, error) {
	var snap game.Snapshot
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		snap, err = BuildSnapshot(ctx, q, userID, s.now())
		return err
	})
	return snap, err
}
