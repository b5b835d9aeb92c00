// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"asser-platform/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("email already registered")
	ErrPublicIDTaken          = errors.New("public user id already taken")
	ErrBalanceNotFound        = errors.New("balance not found")
	ErrVersionConflict        = errors.New("balance was modified concurrently")
	ErrFarmNotFound           = errors.New("farm not found")
	ErrGameNotFound           = errors.New("game not found")
	ErrActiveGameExists       = errors.New("another game is already active")
	ErrDuplicateParticipation = errors.New("user already participated in this game")
	ErrPaymentNotFound        = errors.New("payment request not found")
	ErrRatesNotFound          = errors.New("exchange rates not configured")
	ErrDuplicateSubscription  = errors.New("already subscribed to this game slot")
	ErrAlreadyReferred        = errors.New("user already has a referrer")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs units of work. Everything fn does through q commits or rolls
// back together.
type Store interface {
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// Queries groups the repositories available inside a unit of work.
type Queries interface {
	Users() UserStore
	Balances() BalanceStore
	Transactions() TransactionStore
	Farms() FarmStore
	Games() GameStore
	Payments() PaymentStore
	Rates() RateStore
	Subscriptions() SubscriptionStore
	Referrals() ReferralStore
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByPublicID(ctx context.Context, publicID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	IncrementLogin(ctx context.Context, id int64) error
	IncrementLogout(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int) ([]*model.User, error)
}

// BalanceStore persists balances. GetForUpdate locks the row until the
// unit of work ends; Update fails with ErrVersionConflict on a stale version.
type BalanceStore interface {
	Create(ctx context.Context, b *model.Balance) error
	Get(ctx context.Context, userID int64) (*model.Balance, error)
	GetForUpdate(ctx context.Context, userID int64) (*model.Balance, error)
	Update(ctx context.Context, b *model.Balance) error
}

// TransactionStore persists the append-only ledger.
type TransactionStore interface {
	Create(ctx context.Context, tx *model.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error)
	CountByType(ctx context.Context, userID int64) (map[string]int, error)
}

// FarmStore persists farm state.
type FarmStore interface {
	Create(ctx context.Context, f *model.FarmState) error
	Get(ctx context.Context, userID int64) (*model.FarmState, error)
	GetForUpdate(ctx context.Context, userID int64) (*model.FarmState, error)
	Update(ctx context.Context, f *model.FarmState) error
}

// GameStore persists game sessions and participations.
type GameStore interface {
	Create(ctx context.Context, g *model.GameSession) error
	GetByID(ctx context.Context, id int64) (*model.GameSession, error)
	GetActive(ctx context.Context) (*model.GameSession, error)
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, limit int) ([]*model.GameSession, error)
	AddParticipation(ctx context.Context, p *model.Participation) error
	ListParticipationsByUser(ctx context.Context, userID int64) ([]*model.Participation, error)
	ListParticipationsByGame(ctx context.Context, gameID int64) ([]*model.Participation, error)
}

// PaymentStore persists deposit and withdrawal requests.
type PaymentStore interface {
	Create(ctx context.Context, p *model.PaymentRequest) error
	GetForUpdate(ctx context.Context, id int64) (*model.PaymentRequest, error)
	Update(ctx context.Context, p *model.PaymentRequest) error
	List(ctx context.Context, status model.PaymentStatus, limit int) ([]*model.PaymentRequest, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.PaymentRequest, error)
}

// RateStore persists the exchange rate singleton.
type RateStore interface {
	Get(ctx context.Context) (*model.ExchangeRate, error)
	Save(ctx context.Context, r *model.ExchangeRate) error
}

// SubscriptionStore persists game slot subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, s *model.GameSubscription) error
	ListByUser(ctx context.Context, userID int64) ([]*model.GameSubscription, error)
}

// ReferralStore persists who invited whom.
type ReferralStore interface {
	Create(ctx context.Context, r *model.Referral) error
	CountByReferrer(ctx context.Context, referrerID int64) (int, error)
	ListMembers(ctx context.Context, referrerID int64) ([]*model.TeamMember, error)
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InTx runs fn inside a database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewQueries(tx))
	})
}

// NewQueries binds every repository to db.
func NewQueries(db DBTX) Queries {
	return pgQueries{db: db}
}

type pgQueries struct {
	db DBTX
}

func (q pgQueries) Users() UserStore                 { return NewUserRepository(q.db) }
func (q pgQueries) Balances() BalanceStore           { return NewBalanceRepository(q.db) }
func (q pgQueries) Transactions() TransactionStore   { return NewTransactionRepository(q.db) }
func (q pgQueries) Farms() FarmStore                 { return NewFarmRepository(q.db) }
func (q pgQueries) Games() GameStore                 { return NewGameRepository(q.db) }
func (q pgQueries) Payments() PaymentStore           { return NewPaymentRepository(q.db) }
func (q pgQueries) Rates() RateStore                 { return NewRateRepository(q.db) }
func (q pgQueries) Subscriptions() SubscriptionStore { return NewSubscriptionRepository(q.db) }
func (q pgQueries) Referrals() ReferralStore         { return NewReferralRepository(q.db) }

// isUniqueViolation reports whether err is a unique constraint violation,
// optionally of a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// notFound maps pgx.ErrNoRows to sentinel and wraps anything else.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
