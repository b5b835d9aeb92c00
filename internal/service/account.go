package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"asser-platform/internal/auth"
	"asser-platform/internal/config"
	"asser-platform/internal/farm"
	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 6

// publicIDAttempts bounds retries when a random public id collides.
const publicIDAttempts = 10

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`

	// ReferralCode is the inviting user's public id. Unknown codes are
	// ignored.
	ReferralCode string `json:"referralCode"`
}

// ReferralStats summarizes a user's invitations.
type ReferralStats struct {
	Count int    `json:"count"`
	Link  string `json:"link"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// AccountService handles registration, login and account administration.
type AccountService struct {
	base
	tokens   *auth.TokenManager
	hasher   auth.Hasher
	cfg      *config.Config
	publicID func() string
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	store repository.Store,
	locks *lock.UserLock,
	tokens *auth.TokenManager,
	hasher auth.Hasher,
	cfg *config.Config,
) *AccountService {
	return &AccountService{
		base:     newBase(store, locks),
		tokens:   tokens,
		hasher:   hasher,
		cfg:      cfg,
		publicID: randomPublicID,
	}
}

// randomPublicID returns a random 6-digit id without a leading zero.
func randomPublicID() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// Register creates an account with its welcome funds and an empty farm.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.ReferralCode = strings.TrimSpace(in.ReferralCode)

	if in.FullName == "" {
		return nil, ErrNameRequired
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		user = &model.User{
			PublicID:     s.publicID(),
			FullName:     in.FullName,
			Email:        in.Email,
			Phone:        in.Phone,
			PasswordHash: hash,
			IsActive:     true,
			IsAdmin:      s.cfg.IsAdminEmail(in.Email),
		}
		err = s.view(ctx, func(q repository.Queries) error {
			if err := s.createAccount(ctx, q, user); err != nil {
				return err
			}
			return s.attachReferrer(ctx, q, user, in.ReferralCode)
		})
		if !errors.Is(err, repository.ErrPublicIDTaken) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrPublicIDTaken) {
			return nil, fmt.Errorf("failed to allocate a public user id: %w", err)
		}
		return nil, err
	}

	token, expires, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("public_id", user.PublicID).
		Bool("is_admin", user.IsAdmin).
		Msg("User registered")

	return &AuthResult{User: user, Token: token, ExpiresAt: expires}, nil
}

func (s *AccountService) createAccount(ctx context.Context, q repository.Queries, user *model.User) error {
	if err := q.Users().Create(ctx, user); err != nil {
		return err
	}

	welcome := []struct {
		currency model.Currency
		amount   decimal.Decimal
	}{
		{model.CurrencyUSDT, config.Dec(s.cfg.Ledger.WelcomeUSDT)},
		{model.CurrencyEGP, config.Dec(s.cfg.Ledger.WelcomeEGP)},
		{model.CurrencyAsser, config.Dec(s.cfg.Ledger.WelcomeAsser)},
	}

	bal := &model.Balance{UserID: user.ID, USDT: decimal.Zero, EGP: decimal.Zero, Asser: decimal.Zero}
	for _, w := range welcome {
		bal.Add(w.currency, w.amount)
	}
	if err := q.Balances().Create(ctx, bal); err != nil {
		return err
	}

	for _, w := range welcome {
		if !w.amount.IsPositive() {
			continue
		}
		err := record(ctx, q, &model.Transaction{
			UserID:      user.ID,
			Type:        model.TxTypeDeposit,
			ToCurrency:  w.currency,
			ToAmount:    w.amount,
			Description: fmt.Sprintf("Welcome bonus %s %s", w.amount.String(), w.currency.Label()),
		})
		if err != nil {
			return err
		}
	}

	return q.Farms().Create(ctx, farm.NewState(user.ID, s.now()))
}

// attachReferrer links a new account to the owner of code.
func (s *AccountService) attachReferrer(ctx context.Context, q repository.Queries, user *model.User, code string) error {
	if code == "" {
		return nil
	}
	referrer, err := q.Users().GetByPublicID(ctx, code)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Warn().Str("referral_code", code).Str("email", user.Email).Msg("Unknown referral code ignored")
		return nil
	}
	if err != nil {
		return err
	}
	return q.Referrals().Create(ctx, &model.Referral{ReferrerID: referrer.ID, ReferredID: user.ID})
}

// Team lists the users who registered with userID's code.
func (s *AccountService) Team(ctx context.Context, userID int64) ([]*model.TeamMember, error) {
	var members []*model.TeamMember
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		members, err = q.Referrals().ListMembers(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*model.TeamMember{}
	}
	return members, nil
}

// ReferralStats returns the invitation count and the user's share link.
func (s *AccountService) ReferralStats(ctx context.Context, userID int64) (*ReferralStats, error) {
	stats := &ReferralStats{}
	err := s.view(ctx, func(q repository.Queries) error {
		u, err := q.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		stats.Link = s.cfg.Referral.LinkBase + u.PublicID
		stats.Count, err = q.Referrals().CountByReferrer(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Login checks credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user *model.User
	err := s.view(ctx, func(q repository.Queries) error {
		u, err := q.Users().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		if !s.hasher.Check(u.PasswordHash, password) {
			return ErrInvalidCredentials
		}
		if !u.IsActive {
			return ErrAccountDisabled
		}
		if err := q.Users().IncrementLogin(ctx, u.ID); err != nil {
			return err
		}
		u.LoginCount++
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Msg("User logged in")
	return &AuthResult{User: user, Token: token, ExpiresAt: expires}, nil
}

// Logout records the logout. Tokens are stateless and simply expire.
func (s *AccountService) Logout(ctx context.Context, userID int64) error {
	return s.view(ctx, func(q repository.Queries) error {
		return q.Users().IncrementLogout(ctx, userID)
	})
}

// Authenticate resolves a bearer token to an active user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.User(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// User returns an account by internal id.
func (s *AccountService) User(ctx context.Context, userID int64) (*model.User, error) {
	var user *model.User
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		user, err = q.Users().GetByID(ctx, userID)
		return err
	})
	return user, err
}

// SetUserActive enables or disables an account.
func (s *AccountService) SetUserActive(ctx context.Context, adminID, userID int64, active bool) (*model.User, error) {
	if adminID == userID && !active {
		return nil, ErrSelfDeactivate
	}

	var user *model.User
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		if err := q.Users().SetActive(ctx, userID, active); err != nil {
			return err
		}
		var err error
		user, err = q.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("user_id", userID).
		Bool("active", active).
		Msg("User status changed")
	return user, nil
}

// SearchUsers finds accounts by name, email or public id.
func (s *AccountService) SearchUsers(ctx context.Context, query string, limit int) ([]*model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var users []*model.User
	err := s.view(ctx, func(q repository.Queries) error {
		var err error
		users, err = q.Users().Search(ctx, strings.TrimSpace(query), limit)
		return err
	})
	return users, err
}
