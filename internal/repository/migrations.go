package repository

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		public_id VARCHAR(6) NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		login_count BIGINT NOT NULL DEFAULT 0,
		logout_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_public_id_key UNIQUE (public_id),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		usdt NUMERIC(24,8) NOT NULL DEFAULT 0 CHECK (usdt >= 0),
		egp NUMERIC(24,8) NOT NULL DEFAULT 0 CHECK (egp >= 0),
		asser_coin NUMERIC(24,8) NOT NULL DEFAULT 0 CHECK (asser_coin >= 0),
		version BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type VARCHAR(32) NOT NULL,
		from_currency VARCHAR(8),
		to_currency VARCHAR(8),
		from_amount NUMERIC(24,8) NOT NULL DEFAULT 0,
		to_amount NUMERIC(24,8) NOT NULL DEFAULT 0,
		recipient_user_id VARCHAR(6),
		transfer_fee NUMERIC(24,8) NOT NULL DEFAULT 0,
		reference TEXT,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'completed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS farm_states (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		planted_items JSONB NOT NULL DEFAULT '[]',
		daily_production NUMERIC(24,8) NOT NULL DEFAULT 0,
		current_earnings NUMERIC(24,8) NOT NULL DEFAULT 0,
		total_earnings NUMERIC(24,8) NOT NULL DEFAULT 0,
		last_harvest TIMESTAMPTZ,
		last_watering TIMESTAMPTZ,
		next_watering_available TIMESTAMPTZ,
		next_harvest_time TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS smart_strategy_games (
		id BIGSERIAL PRIMARY KEY,
		formula_id INT NOT NULL,
		formula_name TEXT NOT NULL,
		correct_door SMALLINT NOT NULL CHECK (correct_door BETWEEN 1 AND 10),
		duration_seconds INT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_by BIGINT NOT NULL REFERENCES users(id)
	)`,
	`DROP INDEX IF EXISTS idx_games_active`,
	`CREATE INDEX IF NOT EXISTS idx_games_start ON smart_strategy_games(start_time DESC)`,
	// at most one row may be flagged active
	`CREATE UNIQUE INDEX IF NOT EXISTS smart_strategy_games_one_active ON smart_strategy_games ((TRUE)) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS game_participations (
		id BIGSERIAL PRIMARY KEY,
		game_id BIGINT NOT NULL REFERENCES smart_strategy_games(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		stake_amount NUMERIC(24,8) NOT NULL,
		stake_currency VARCHAR(8) NOT NULL,
		selected_door SMALLINT NOT NULL CHECK (selected_door BETWEEN 1 AND 10),
		is_correct BOOLEAN NOT NULL,
		reward NUMERIC(24,8) NOT NULL DEFAULT 0,
		participated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT game_participations_game_user_key UNIQUE (game_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS exchange_rates (
		id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		usdt_to_asser NUMERIC(24,8) NOT NULL,
		egp_to_asser NUMERIC(24,8) NOT NULL,
		asser_to_usdt NUMERIC(24,8) NOT NULL,
		asser_to_egp NUMERIC(24,8) NOT NULL,
		usdt_to_egp NUMERIC(24,8) NOT NULL,
		egp_to_usdt NUMERIC(24,8) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`INSERT INTO exchange_rates (id, usdt_to_asser, egp_to_asser, asser_to_usdt, asser_to_egp, usdt_to_egp, egp_to_usdt)
	VALUES (1, 10, 0.2, 0.10, 5, 30, 0.033)
	ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS payment_requests (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(24,8) NOT NULL CHECK (amount > 0),
		currency VARCHAR(8) NOT NULL,
		full_name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		wallet_address TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ,
		processed_by BIGINT REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_requests_status ON payment_requests(status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id BIGSERIAL PRIMARY KEY,
		referrer_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		referred_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT referrals_referred_key UNIQUE (referred_id),
		CONSTRAINT referrals_not_self CHECK (referrer_id <> referred_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS game_subscriptions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		game_time VARCHAR(5) NOT NULL,
		fee NUMERIC(24,8) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT game_subscriptions_user_slot_key UNIQUE (user_id, game_time)
	)`,
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
