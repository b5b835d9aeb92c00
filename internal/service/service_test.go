package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"asser-platform/internal/auth"
	"asser-platform/internal/config"
	"asser-platform/internal/game"
	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type testEnv struct {
	clock    *testClock
	store    *memory.Store
	notifier *recordingNotifier
	accounts *AccountService
	ledger   *LedgerService
	games    *GameService
	farms    *FarmService
	payments *PaymentService
}

func testConfig() *config.Config {
	return &config.Config{
		Admin: config.AdminConfig{Emails: []string{"admin@example.com"}},
		Ledger: config.LedgerConfig{
			TransferFeeRate: 0.02,
			MinTransfer:     0.01,
			MaxTransfer:     10000,
			SubscriptionFee: 5,
			WelcomeUSDT:     100,
			WelcomeEGP:      500,
			WelcomeAsser:    100,
		},
		Games: config.GamesConfig{
			RewardRate:      0.02,
			MinStake:        10,
			DefaultDuration: 100,
			MaxDuration:     3600,
		},
		Farm: config.FarmConfig{
			MaxPlants:        6,
			HarvestInterval:  24 * time.Hour,
			WateringInterval: 4 * time.Hour,
		},
		Referral: config.ReferralConfig{LinkBase: "https://assercoin.com/ref/"},
	}
}

// fixedDoorCatalog answers door 7 for formula 1 and door 3 for formula 2.
func fixedDoorCatalog(t require.TestingT) *game.Catalog {
	c, err := game.NewCatalog(
		game.Formula{ID: 1, Name: "Seven", Calculate: func(game.Snapshot) float64 { return 7 }},
		game.Formula{ID: 2, Name: "Logins", Calculate: func(s game.Snapshot) float64 { return float64(s.LoginCount + 3) }},
	)
	require.NoError(t, err)
	return c
}

func newTestEnv(t require.TestingT, mutate ...func(*config.Config)) *testEnv {
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	clock := &testClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	store := memory.New(memory.WithClock(clock.Now))
	locks := lock.NewUserLock()

	tokens, err := auth.NewTokenManager("test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		clock:    clock,
		store:    store,
		notifier: &recordingNotifier{},
		accounts: NewAccountService(store, locks, tokens, auth.Hasher{Cost: bcrypt.MinCost}, cfg),
		ledger:   NewLedgerService(store, locks, cfg.Ledger),
		games:    NewGameService(store, locks, fixedDoorCatalog(t), cfg.Games),
		farms:    NewFarmService(store, locks, cfg.Farm),
	}
	env.payments = NewPaymentService(store, locks, env.notifier)

	seq := 100000
	var seqMu sync.Mutex
	env.accounts.publicID = func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprint(seq)
	}

	for _, b := range []*base{&env.accounts.base, &env.ledger.base, &env.games.base, &env.farms.base, &env.payments.base} {
		b.SetClock(clock.Now)
	}
	return env
}

func (e *testEnv) register(t require.TestingT, name, email string) *model.User {
	res, err := e.accounts.Register(context.Background(), RegisterInput{
		FullName: name,
		Email:    email,
		Password: "secret123",
		Phone:    "01012345678",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) balance(t require.TestingT, userID int64) *model.Balance {
	bal, err := e.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return bal
}

func (e *testEnv) history(t require.TestingT, userID int64) []*model.Transaction {
	txs, err := e.ledger.History(context.Background(), userID, 200)
	require.NoError(t, err)
	return txs
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t testing.TB, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
