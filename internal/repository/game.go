package repository

import (
	"context"
	"fmt"

	"asser-platform/internal/model"
)

// GameRepository handles game session and participation persistence.
type GameRepository struct {
	db DBTX
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(db DBTX) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, formula_id, formula_name, correct_door, duration_seconds, start_time, end_time, is_active, created_by`

func scanGame(row scanner) (*model.GameSession, error) {
	var g model.GameSession
	err := row.Scan(
		&g.ID,
		&g.FormulaID,
		&g.FormulaName,
		&g.CorrectDoor,
		&g.DurationSeconds,
		&g.StartTime,
		&g.EndTime,
		&g.IsActive,
		&g.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a game session and fills in its id. Returns
// ErrActiveGameExists when g is active and another active session exists.
func (r *GameRepository) Create(ctx context.Context, g *model.GameSession) error {
	const query = `
		INSERT INTO smart_strategy_games (formula_id, formula_name, correct_door, duration_seconds,
			start_time, end_time, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		g.FormulaID, g.FormulaName, g.CorrectDoor, g.DurationSeconds,
		g.StartTime, g.EndTime, g.IsActive, g.CreatedBy,
	).Scan(&g.ID)
	if err != nil {
		if isUniqueViolation(err, "smart_strategy_games_one_active") {
			return ErrActiveGameExists
		}
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetByID retrieves a game session.
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*model.GameSession, error) {
	query := `SELECT ` + gameColumns + ` FROM smart_strategy_games WHERE id = $1`

	g, err := scanGame(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, ErrGameNotFound, "get game")
	}
	return g, nil
}

// GetActive retrieves the most recently started session still flagged
// active. Its end time may already have passed.
func (r *GameRepository) GetActive(ctx context.Context) (*model.GameSession, error) {
	query := `SELECT ` + gameColumns + ` FROM smart_strategy_games
		WHERE is_active
		ORDER BY start_time DESC, id DESC
		LIMIT 1`

	g, err := scanGame(r.db.QueryRow(ctx, query))
	if err != nil {
		return nil, notFound(err, ErrGameNotFound, "get active game")
	}
	return g, nil
}

// Deactivate marks a session inactive.
func (r *GameRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE smart_strategy_games SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// List retrieves the most recent sessions.
func (r *GameRepository) List(ctx context.Context, limit int) ([]*model.GameSession, error) {
	query := `SELECT ` + gameColumns + ` FROM smart_strategy_games ORDER BY start_time DESC, id DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.GameSession
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

// AddParticipation records a guess. Returns ErrDuplicateParticipation when
// the user already played this session.
func (r *GameRepository) AddParticipation(ctx context.Context, p *model.Participation) error {
	const query = `
		INSERT INTO game_participations (game_id, user_id, stake_amount, stake_currency, selected_door,
			is_correct, reward, participated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, participated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.GameID, p.UserID, p.StakeAmount, string(p.StakeCurrency), p.SelectedDoor, p.IsCorrect, p.Reward,
	).Scan(&p.ID, &p.ParticipatedAt)
	if err != nil {
		if isUniqueViolation(err, "game_participations_game_user_key") {
			return ErrDuplicateParticipation
		}
		return fmt.Errorf("failed to add participation: %w", err)
	}
	return nil
}

// ListParticipationsByUser retrieves a user's guesses, newest first.
func (r *GameRepository) ListParticipationsByUser(ctx context.Context, userID int64) ([]*model.Participation, error) {
	return r.listParticipations(ctx, `WHERE user_id = $1`, userID)
}

// ListParticipationsByGame retrieves every guess in a session.
func (r *GameRepository) ListParticipationsByGame(ctx context.Context, gameID int64) ([]*model.Participation, error) {
	return r.listParticipations(ctx, `WHERE game_id = $1`, gameID)
}

func (r *GameRepository) listParticipations(ctx context.Context, where string, arg int64) ([]*model.Participation, error) {
	query := `
		SELECT id, game_id, user_id, stake_amount, stake_currency, selected_door, is_correct, reward, participated_at
		FROM game_participations ` + where + `
		ORDER BY participated_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var out []*model.Participation
	for rows.Next() {
		var (
			p        model.Participation
			currency string
		)
		err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &p.StakeAmount, &currency,
			&p.SelectedDoor, &p.IsCorrect, &p.Reward, &p.ParticipatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.StakeCurrency = model.Currency(currency)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}
	return out, nil
}
