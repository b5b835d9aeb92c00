// Package memory implements repository.Store in process memory. A unit of
// work holds a store-wide lock and is rolled back when it returns an error.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"asser-platform/internal/model"
	"asser-platform/internal/repository"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store seeded with the default exchange rates.
func New(opts ...Option) *Store {
	rates := model.DefaultExchangeRate()
	s := &Store{
		d: &data{
			users:    make(map[int64]*model.User),
			balances: make(map[int64]*model.Balance),
			farms:    make(map[int64]*model.FarmState),
			games:    make(map[int64]*model.GameSession),
			payments: make(map[int64]*model.PaymentRequest),
			rates:    &rates,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx runs fn with exclusive access to the store.
func (s *Store) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.d.clone()
	if err := fn(&queries{d: s.d, now: s.now}); err != nil {
		*s.d = *backup
		return err
	}
	return nil
}

type data struct {
	seq            int64
	users          map[int64]*model.User
	balances       map[int64]*model.Balance
	transactions   []*model.Transaction
	farms          map[int64]*model.FarmState
	games          map[int64]*model.GameSession
	participations []*model.Participation
	payments       map[int64]*model.PaymentRequest
	rates          *model.ExchangeRate
	subscriptions  []*model.GameSubscription
	referrals      []*model.Referral
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

func (d *data) clone() *data {
	c := &data{
		seq:      d.seq,
		users:    make(map[int64]*model.User, len(d.users)),
		balances: make(map[int64]*model.Balance, len(d.balances)),
		farms:    make(map[int64]*model.FarmState, len(d.farms)),
		games:    make(map[int64]*model.GameSession, len(d.games)),
		payments: make(map[int64]*model.PaymentRequest, len(d.payments)),
	}
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range d.balances {
		b := *v
		c.balances[k] = &b
	}
	for k, v := range d.farms {
		c.farms[k] = copyFarm(v)
	}
	for k, v := range d.games {
		g := *v
		c.games[k] = &g
	}
	for k, v := range d.payments {
		p := *v
		c.payments[k] = &p
	}
	for _, v := range d.transactions {
		t := *v
		c.transactions = append(c.transactions, &t)
	}
	for _, v := range d.participations {
		p := *v
		c.participations = append(c.participations, &p)
	}
	for _, v := range d.subscriptions {
		sub := *v
		c.subscriptions = append(c.subscriptions, &sub)
	}
	for _, v := range d.referrals {
		ref := *v
		c.referrals = append(c.referrals, &ref)
	}
	if d.rates != nil {
		r := *d.rates
		c.rates = &r
	}
	return c
}

func copyFarm(f *model.FarmState) *model.FarmState {
	c := *f
	c.PlantedItems = append([]model.Plant(nil), f.PlantedItems...)
	if c.PlantedItems == nil {
		c.PlantedItems = []model.Plant{}
	}
	c.LastHarvest = copyTime(f.LastHarvest)
	c.LastWatering = copyTime(f.LastWatering)
	c.NextWateringAvailable = copyTime(f.NextWateringAvailable)
	c.NextHarvestTime = copyTime(f.NextHarvestTime)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type queries struct {
	d   *data
	now func() time.Time
}

func (q *queries) Users() repository.UserStore                 { return users{q} }
func (q *queries) Balances() repository.BalanceStore           { return balances{q} }
func (q *queries) Transactions() repository.TransactionStore   { return transactions{q} }
func (q *queries) Farms() repository.FarmStore                 { return farms{q} }
func (q *queries) Games() repository.GameStore                 { return games{q} }
func (q *queries) Payments() repository.PaymentStore           { return payments{q} }
func (q *queries) Rates() repository.RateStore                 { return rates{q} }
func (q *queries) Subscriptions() repository.SubscriptionStore { return subscriptions{q} }
func (q *queries) Referrals() repository.ReferralStore         { return referrals{q} }

type users struct{ q *queries }

func (r users) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.q.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrEmailTaken
		}
		if existing.PublicID == u.PublicID {
			return repository.ErrPublicIDTaken
		}
	}
	now := r.q.now()
	u.ID = r.q.d.nextID()
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	r.q.d.users[u.ID] = &stored
	return nil
}

func (r users) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.q.d.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r users) find(match func(*model.User) bool) (*model.User, error) {
	for _, u := range r.q.d.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r users) GetByPublicID(_ context.Context, publicID string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.PublicID == publicID })
}

func (r users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r users) update(id int64, fn func(*model.User)) error {
	u, ok := r.q.d.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = r.q.now()
	return nil
}

func (r users) SetActive(_ context.Context, id int64, active bool) error {
	return r.update(id, func(u *model.User) { u.IsActive = active })
}

func (r users) IncrementLogin(_ context.Context, id int64) error {
	return r.update(id, func(u *model.User) { u.LoginCount++ })
}

func (r users) IncrementLogout(_ context.Context, id int64) error {
	return r.update(id, func(u *model.User) { u.LogoutCount++ })
}

func (r users) Search(_ context.Context, query string, limit int) ([]*model.User, error) {
	q := strings.ToLower(query)
	var out []*model.User
	for _, u := range r.q.d.users {
		if q == "" || strings.Contains(strings.ToLower(u.FullName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) || u.PublicID == query {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type balances struct{ q *queries }

func (r balances) Create(_ context.Context, b *model.Balance) error {
	b.Version = 0
	b.UpdatedAt = r.q.now()
	stored := *b
	r.q.d.balances[b.UserID] = &stored
	return nil
}

func (r balances) Get(_ context.Context, userID int64) (*model.Balance, error) {
	b, ok := r.q.d.balances[userID]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	c := *b
	return &c, nil
}

func (r balances) GetForUpdate(ctx context.Context, userID int64) (*model.Balance, error) {
	return r.Get(ctx, userID)
}

func (r balances) Update(_ context.Context, b *model.Balance) error {
	stored, ok := r.q.d.balances[b.UserID]
	if !ok || stored.Version != b.Version {
		return repository.ErrVersionConflict
	}
	b.Version++
	b.UpdatedAt = r.q.now()
	*stored = *b
	return nil
}

type transactions struct{ q *queries }

func (r transactions) Create(_ context.Context, tx *model.Transaction) error {
	if tx.Status == "" {
		tx.Status = model.TxStatusCompleted
	}
	tx.ID = r.q.d.nextID()
	tx.CreatedAt = r.q.now()
	stored := *tx
	r.q.d.transactions = append(r.q.d.transactions, &stored)
	return nil
}

func (r transactions) ListByUser(_ context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for i := len(r.q.d.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if t := r.q.d.transactions[i]; t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r transactions) CountByType(_ context.Context, userID int64) (map[string]int, error) {
	counts := make(map[string]int)
	for _, t := range r.q.d.transactions {
		if t.UserID == userID {
			counts[t.Type]++
		}
	}
	return counts, nil
}

type farms struct{ q *queries }

func (r farms) Create(_ context.Context, f *model.FarmState) error {
	f.UpdatedAt = r.q.now()
	r.q.d.farms[f.UserID] = copyFarm(f)
	return nil
}

func (r farms) Get(_ context.Context, userID int64) (*model.FarmState, error) {
	f, ok := r.q.d.farms[userID]
	if !ok {
		return nil, repository.ErrFarmNotFound
	}
	return copyFarm(f), nil
}

func (r farms) GetForUpdate(ctx context.Context, userID int64) (*model.FarmState, error) {
	return r.Get(ctx, userID)
}

func (r farms) Update(_ context.Context, f *model.FarmState) error {
	if _, ok := r.q.d.farms[f.UserID]; !ok {
		return repository.ErrFarmNotFound
	}
	f.UpdatedAt = r.q.now()
	r.q.d.farms[f.UserID] = copyFarm(f)
	return nil
}

type games struct{ q *queries }

func (r games) Create(_ context.Context, g *model.GameSession) error {
	if g.IsActive {
		for _, existing := range r.q.d.games {
			if existing.IsActive {
				return repository.ErrActiveGameExists
			}
		}
	}
	g.ID = r.q.d.nextID()
	stored := *g
	r.q.d.games[g.ID] = &stored
	return nil
}

func (r games) GetByID(_ context.Context, id int64) (*model.GameSession, error) {
	g, ok := r.q.d.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	c := *g
	return &c, nil
}

func (r games) sorted() []*model.GameSession {
	out := make([]*model.GameSession, 0, len(r.q.d.games))
	for _, g := range r.q.d.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r games) GetActive(_ context.Context) (*model.GameSession, error) {
	for _, g := range r.sorted() {
		if g.IsActive {
			c := *g
			return &c, nil
		}
	}
	return nil, repository.ErrGameNotFound
}

func (r games) Deactivate(_ context.Context, id int64) error {
	g, ok := r.q.d.games[id]
	if !ok {
		return repository.ErrGameNotFound
	}
	g.IsActive = false
	return nil
}

func (r games) List(_ context.Context, limit int) ([]*model.GameSession, error) {
	var out []*model.GameSession
	for _, g := range r.sorted() {
		if len(out) == limit {
			break
		}
		c := *g
		out = append(out, &c)
	}
	return out, nil
}

func (r games) AddParticipation(_ context.Context, p *model.Participation) error {
	for _, existing := range r.q.d.participations {
		if existing.GameID == p.GameID && existing.UserID == p.UserID {
			return repository.ErrDuplicateParticipation
		}
	}
	p.ID = r.q.d.nextID()
	p.ParticipatedAt = r.q.now()
	stored := *p
	r.q.d.participations = append(r.q.d.participations, &stored)
	return nil
}

func (r games) listParticipations(match func(*model.Participation) bool) []*model.Participation {
	var out []*model.Participation
	for i := len(r.q.d.participations) - 1; i >= 0; i-- {
		if p := r.q.d.participations[i]; match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	return out
}

func (r games) ListParticipationsByUser(_ context.Context, userID int64) ([]*model.Participation, error) {
	return r.listParticipations(func(p *model.Participation) bool { return p.UserID == userID }), nil
}

func (r games) ListParticipationsByGame(_ context.Context, gameID int64) ([]*model.Participation, error) {
	return r.listParticipations(func(p *model.Participation) bool { return p.GameID == gameID }), nil
}

type payments struct{ q *queries }

func (r payments) Create(_ context.Context, p *model.PaymentRequest) error {
	p.ID = r.q.d.nextID()
	p.CreatedAt = r.q.now()
	stored := *p
	r.q.d.payments[p.ID] = &stored
	return nil
}

func (r payments) GetForUpdate(_ context.Context, id int64) (*model.PaymentRequest, error) {
	p, ok := r.q.d.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (r payments) Update(_ context.Context, p *model.PaymentRequest) error {
	stored, ok := r.q.d.payments[p.ID]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	stored.Status = p.Status
	stored.ProcessedAt = copyTime(p.ProcessedAt)
	if p.ProcessedBy != nil {
		by := *p.ProcessedBy
		stored.ProcessedBy = &by
	}
	return nil
}

func (r payments) list(match func(*model.PaymentRequest) bool, limit int) []*model.PaymentRequest {
	var out []*model.PaymentRequest
	for _, p := range r.q.d.payments {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r payments) List(_ context.Context, status model.PaymentStatus, limit int) ([]*model.PaymentRequest, error) {
	return r.list(func(p *model.PaymentRequest) bool { return status == "" || p.Status == status }, limit), nil
}

func (r payments) ListByUser(_ context.Context, userID int64, limit int) ([]*model.PaymentRequest, error) {
	return r.list(func(p *model.PaymentRequest) bool { return p.UserID == userID }, limit), nil
}

type rates struct{ q *queries }

func (r rates) Get(_ context.Context) (*model.ExchangeRate, error) {
	if r.q.d.rates == nil {
		return nil, repository.ErrRatesNotFound
	}
	c := *r.q.d.rates
	return &c, nil
}

func (r rates) Save(_ context.Context, rate *model.ExchangeRate) error {
	rate.UpdatedAt = r.q.now()
	c := *rate
	r.q.d.rates = &c
	return nil
}

type subscriptions struct{ q *queries }

func (r subscriptions) Create(_ context.Context, s *model.GameSubscription) error {
	for _, existing := range r.q.d.subscriptions {
		if existing.UserID == s.UserID && existing.GameTime == s.GameTime {
			return repository.ErrDuplicateSubscription
		}
	}
	s.ID = r.q.d.nextID()
	s.CreatedAt = r.q.now()
	stored := *s
	r.q.d.subscriptions = append(r.q.d.subscriptions, &stored)
	return nil
}

func (r subscriptions) ListByUser(_ context.Context, userID int64) ([]*model.GameSubscription, error) {
	var out []*model.GameSubscription
	for _, s := range r.q.d.subscriptions {
		if s.UserID == userID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameTime < out[j].GameTime })
	return out, nil
}

type referrals struct{ q *queries }

func (r referrals) Create(_ context.Context, ref *model.Referral) error {
	for _, existing := range r.q.d.referrals {
		if existing.ReferredID == ref.ReferredID {
			return repository.ErrAlreadyReferred
		}
	}
	ref.ID = r.q.d.nextID()
	ref.CreatedAt = r.q.now()
	stored := *ref
	r.q.d.referrals = append(r.q.d.referrals, &stored)
	return nil
}

func (r referrals) CountByReferrer(_ context.Context, referrerID int64) (int, error) {
	n := 0
	for _, ref := range r.q.d.referrals {
		if ref.ReferrerID == referrerID {
			n++
		}
	}
	return n, nil
}

func (r referrals) ListMembers(_ context.Context, referrerID int64) ([]*model.TeamMember, error) {
	var out []*model.TeamMember
	// newest first; referrals are appended in creation order
	for i := len(r.q.d.referrals) - 1; i >= 0; i-- {
		ref := r.q.d.referrals[i]
		if ref.ReferrerID != referrerID {
			continue
		}
		u, ok := r.q.d.users[ref.ReferredID]
		if !ok {
			continue
		}
		out = append(out, &model.TeamMember{
			UserID:   u.PublicID,
			FullName: u.FullName,
			Email:    u.Email,
			JoinedAt: ref.CreatedAt,
		})
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
