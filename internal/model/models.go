// Package model defines the data models for the platform.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifies one of the balances a user holds.
type Currency string

const (
	CurrencyUSDT  Currency = "usdt"
	CurrencyEGP   Currency = "egp"
	CurrencyAsser Currency = "asser" // AsserCoin, the platform currency
)

// Currencies lists every supported currency.
func Currencies() []Currency {
	return []Currency{CurrencyUSDT, CurrencyEGP, CurrencyAsser}
}

// ParseCurrency normalizes user input into a Currency.
func ParseCurrency(s string) (Currency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "usdt":
		return CurrencyUSDT, true
	case "egp":
		return CurrencyEGP, true
	case "asser", "ac", "assercoin":
		return CurrencyAsser, true
	}
	return "", false
}

// Label returns the display code, e.g. "USDT" or "AC".
func (c Currency) Label() string {
	if c == CurrencyAsser {
		return "AC"
	}
	return strings.ToUpper(string(c))
}

// User represents a registered account.
type User struct {
	ID           int64  `json:"id" db:"id"`
	PublicID     string `json:"userId" db:"public_id"` // 6-digit id users share for transfers
	FullName     string `json:"fullName" db:"full_name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone" db:"phone"`
	PasswordHash string `json:"-" db:"password_hash"`
	IsActive     bool   `json:"isActive" db:"is_active"`
	IsAdmin      bool   `json:"isAdmin" db:"is_admin"`

	// Activity counters feeding the statistics snapshot.
	LoginCount  int64 `json:"loginCount" db:"login_count"`
	LogoutCount int64 `json:"logoutCount" db:"logout_count"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Referral links an account to the user whose code it registered with.
// A user is referred at most once.
type Referral struct {
	ID         int64     `json:"id" db:"id"`
	ReferrerID int64     `json:"referrerId" db:"referrer_id"`
	ReferredID int64     `json:"referredId" db:"referred_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// TeamMember is a referred user as shown to the referrer.
type TeamMember struct {
	UserID   string    `json:"userId"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Balance is a user's holdings in every currency.
type Balance struct {
	UserID    int64           `json:"userId" db:"user_id"`
	USDT      decimal.Decimal `json:"usdt" db:"usdt"`
	EGP       decimal.Decimal `json:"egp" db:"egp"`
	Asser     decimal.Decimal `json:"asserCoin" db:"asser_coin"`
	Version   int64           `json:"-" db:"version"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// Amount returns the holding in currency c.
func (b *Balance) Amount(c Currency) decimal.Decimal {
	switch c {
	case CurrencyUSDT:
		return b.USDT
	case CurrencyEGP:
		return b.EGP
	case CurrencyAsser:
		return b.Asser
	}
	return decimal.Zero
}

// Covers reports whether the holding in c is at least amount.
func (b *Balance) Covers(c Currency, amount decimal.Decimal) bool {
	return b.Amount(c).GreaterThanOrEqual(amount)
}

// Add adjusts the holding in c by delta (negative to debit).
func (b *Balance) Add(c Currency, delta decimal.Decimal) {
	v := b.Amount(c).Add(delta).Round(AmountScale)
	switch c {
	case CurrencyUSDT:
		b.USDT = v
	case CurrencyEGP:
		b.EGP = v
	case CurrencyAsser:
		b.Asser = v
	}
}

// AmountScale is the number of decimal places money is stored with.
const AmountScale = 8

// Transaction represents an append-only ledger record.
type Transaction struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	Type            string          `json:"type" db:"type"`
	FromCurrency    Currency        `json:"fromCurrency,omitempty" db:"from_currency"`
	ToCurrency      Currency        `json:"toCurrency,omitempty" db:"to_currency"`
	FromAmount      decimal.Decimal `json:"fromAmount" db:"from_amount"`
	ToAmount        decimal.Decimal `json:"toAmount" db:"to_amount"`
	RecipientUserID string          `json:"recipientUserId,omitempty" db:"recipient_user_id"`
	TransferFee     decimal.Decimal `json:"transferFee" db:"transfer_fee"`
	Reference       string          `json:"reference,omitempty" db:"reference"`
	Description     string          `json:"description" db:"description"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeExchange         = "exchange"          // Currency conversion, both legs in one row
	TxTypeTransfer         = "transfer"          // User-to-user transfer, one row per party
	TxTypeDeposit          = "deposit"           // Welcome funds and approved deposits
	TxTypeWithdrawal       = "withdrawal"        // Approved withdrawal
	TxTypePurchase         = "purchase"          // Farm plant purchase
	TxTypeFarmHarvest      = "farm_harvest"      // Farm production credited
	TxTypeGameWin          = "game_win"          // Correct door guess reward
	TxTypeGameLoss         = "game_loss"         // Incorrect guess, no balance change
	TxTypeGameSubscription = "game_subscription" // Game slot subscription fee
)

// TxStatusCompleted is the status every ledger row is written with.
const TxStatusCompleted = "completed"

// PlantSize is the size of a farm plant.
type PlantSize string

const (
	PlantSmall  PlantSize = "small"
	PlantMedium PlantSize = "medium"
	PlantLarge  PlantSize = "large"
)

// Plant is one planted item on a user's farm.
type Plant struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Size            PlantSize       `json:"size"`
	PlantedAt       time.Time       `json:"plantedAt"`
	DailyProduction decimal.Decimal `json:"dailyProduction"`
	LastWatered     time.Time       `json:"lastWatered"`
	NeedsWater      bool            `json:"needsWater"`
}

// FarmState is a user's farm.
type FarmState struct {
	UserID                int64           `json:"userId" db:"user_id"`
	PlantedItems          []Plant         `json:"plantedItems" db:"planted_items"`
	DailyProduction       decimal.Decimal `json:"dailyProduction" db:"daily_production"`
	CurrentEarnings       decimal.Decimal `json:"currentEarnings" db:"current_earnings"`
	TotalEarnings         decimal.Decimal `json:"totalEarnings" db:"total_earnings"`
	LastHarvest           *time.Time      `json:"lastHarvest" db:"last_harvest"`
	LastWatering          *time.Time      `json:"lastWatering" db:"last_watering"`
	NextWateringAvailable *time.Time      `json:"nextWateringAvailable" db:"next_watering_available"`
	NextHarvestTime       *time.Time      `json:"nextHarvestTime" db:"next_harvest_time"`
	UpdatedAt             time.Time       `json:"updatedAt" db:"updated_at"`
}

// GameSession is one round of the door prediction game.
type GameSession struct {
	ID              int64     `json:"id" db:"id"`
	FormulaID       int       `json:"formulaId" db:"formula_id"`
	FormulaName     string    `json:"formulaName" db:"formula_name"`
	CorrectDoor     int       `json:"correctDoor" db:"correct_door"`
	DurationSeconds int       `json:"durationSeconds" db:"duration_seconds"`
	StartTime       time.Time `json:"startTime" db:"start_time"`
	EndTime         time.Time `json:"endTime" db:"end_time"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	CreatedBy       int64     `json:"createdBy" db:"created_by"`
}

// Participation is one user's guess in a game session.
type Participation struct {
	ID             int64           `json:"id" db:"id"`
	GameID         int64           `json:"gameId" db:"game_id"`
	UserID         int64           `json:"userId" db:"user_id"`
	StakeAmount    decimal.Decimal `json:"stakeAmount" db:"stake_amount"`
	StakeCurrency  Currency        `json:"stakeCurrency" db:"stake_currency"`
	SelectedDoor   int             `json:"selectedDoor" db:"selected_door"`
	IsCorrect      bool            `json:"isCorrect" db:"is_correct"`
	Reward         decimal.Decimal `json:"reward" db:"reward"`
	ParticipatedAt time.Time       `json:"participatedAt" db:"participated_at"`
}

// ExchangeRate is the singleton set of conversion rates.
type ExchangeRate struct {
	USDTToAsser decimal.Decimal `json:"usdtToAsser" db:"usdt_to_asser"`
	EGPToAsser  decimal.Decimal `json:"egpToAsser" db:"egp_to_asser"`
	AsserToUSDT decimal.Decimal `json:"asserToUsdt" db:"asser_to_usdt"`
	AsserToEGP  decimal.Decimal `json:"asserToEgp" db:"asser_to_egp"`
	USDTToEGP   decimal.Decimal `json:"usdtToEgp" db:"usdt_to_egp"`
	EGPToUSDT   decimal.Decimal `json:"egpToUsdt" db:"egp_to_usdt"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// DefaultExchangeRate returns the rates a fresh installation starts with.
func DefaultExchangeRate() ExchangeRate {
	return ExchangeRate{
		USDTToAsser: decimal.NewFromInt(10),
		EGPToAsser:  decimal.RequireFromString("0.2"),
		AsserToUSDT: decimal.RequireFromString("0.10"),
		AsserToEGP:  decimal.NewFromInt(5),
		USDTToEGP:   decimal.NewFromInt(30),
		EGPToUSDT:   decimal.RequireFromString("0.033"),
	}
}

// Rate returns the conversion rate for the pair, or false when the pair is unsupported.
func (r *ExchangeRate) Rate(from, to Currency) (decimal.Decimal, bool) {
	switch {
	case from == CurrencyUSDT && to == CurrencyAsser:
		return r.USDTToAsser, true
	case from == CurrencyEGP && to == CurrencyAsser:
		return r.EGPToAsser, true
	case from == CurrencyAsser && to == CurrencyUSDT:
		return r.AsserToUSDT, true
	case from == CurrencyAsser && to == CurrencyEGP:
		return r.AsserToEGP, true
	case from == CurrencyUSDT && to == CurrencyEGP:
		return r.USDTToEGP, true
	case from == CurrencyEGP && to == CurrencyUSDT:
		return r.EGPToUSDT, true
	}
	return decimal.Zero, false
}

// PaymentType distinguishes deposits from withdrawals.
type PaymentType string

const (
	PaymentDeposit    PaymentType = "deposit"
	PaymentWithdrawal PaymentType = "withdrawal"
)

// PaymentStatus is the settlement state of a payment request.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentRequest is a deposit or withdrawal awaiting admin review.
type PaymentRequest struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"userId" db:"user_id"`
	Type          PaymentType     `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      Currency        `json:"currency" db:"currency"`
	FullName      string          `json:"fullName" db:"full_name"`
	PhoneNumber   string          `json:"phoneNumber" db:"phone_number"`
	WalletAddress string          `json:"walletAddress,omitempty" db:"wallet_address"`
	Status        PaymentStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty" db:"processed_at"`
	ProcessedBy   *int64          `json:"processedBy,omitempty" db:"processed_by"`
}

// GameSubscription reserves a user's seat in a scheduled game slot.
type GameSubscription struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"userId" db:"user_id"`
	GameTime  string          `json:"gameTime" db:"game_time"`
	Fee       decimal.Decimal `json:"fee" db:"fee"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// GameSlots are the times of day a game subscription can be bought for.
func GameSlots() []string {
	return []string{"15:00", "18:00", "21:00"}
}
