package service

import (
	"errors"

	"asser-platform/internal/apperr"
	"asser-platform/internal/farm"
	"asser-platform/internal/game"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// Ledger errors.
var (
	ErrInvalidAmount       = apperr.New(apperr.KindValidation, "AMOUNT_INVALID", "amount must be positive")
	ErrAmountOutOfRange    = apperr.New(apperr.KindValidation, "AMOUNT_OUT_OF_RANGE", "amount is outside the allowed range")
	ErrInvalidCurrency     = apperr.New(apperr.KindValidation, "CURRENCY_INVALID", "unsupported currency")
	ErrSameCurrency        = apperr.New(apperr.KindValidation, "EXCHANGE_SAME_CURRENCY", "cannot exchange a currency to itself")
	ErrUnsupportedPair     = apperr.New(apperr.KindValidation, "EXCHANGE_PAIR_UNSUPPORTED", "exchange pair is not supported")
	ErrInvalidRate         = apperr.New(apperr.KindValidation, "RATE_INVALID", "exchange rates must be positive")
	ErrInsufficientBalance = apperr.New(apperr.KindInsufficientBalance, "BALANCE_INSUFFICIENT", "insufficient balance")
	ErrRecipientNotFound   = apperr.New(apperr.KindNotFound, "TRANSFER_RECIPIENT_NOT_FOUND", "recipient not found")
	ErrSelfTransfer        = apperr.New(apperr.KindValidation, "TRANSFER_SELF", "cannot transfer to yourself")
	ErrRecipientInactive   = apperr.New(apperr.KindState, "TRANSFER_RECIPIENT_INACTIVE", "recipient account is disabled")
	ErrBusy                = apperr.New(apperr.KindConflict, "BALANCE_BUSY", "another operation on this balance is in progress, try again")
)

// Payment and subscription errors.
var (
	ErrPaymentDetails      = apperr.New(apperr.KindValidation, "PAYMENT_DETAILS_MISSING", "full name and phone number are required")
	ErrWalletRequired      = apperr.New(apperr.KindValidation, "PAYMENT_WALLET_REQUIRED", "a wallet address is required for USDT withdrawals")
	ErrPaymentNotFound     = apperr.New(apperr.KindNotFound, "PAYMENT_NOT_FOUND", "payment request not found")
	ErrAlreadySettled      = apperr.New(apperr.KindConflict, "PAYMENT_ALREADY_SETTLED", "payment request was already processed")
	ErrInvalidSlot         = apperr.New(apperr.KindValidation, "SUBSCRIPTION_SLOT_INVALID", "unknown game time slot")
	ErrAlreadySubscribed   = apperr.New(apperr.KindConflict, "SUBSCRIPTION_DUPLICATE", "already subscribed to this game time")
	ErrInvalidPaymentState = apperr.New(apperr.KindValidation, "PAYMENT_STATUS_INVALID", "unknown payment status")
)

// Game errors.
var (
	ErrInvalidDuration     = apperr.New(apperr.KindValidation, "GAME_DURATION_INVALID", "game duration is out of range")
	ErrInvalidDoor         = apperr.New(apperr.KindValidation, "GAME_DOOR_INVALID", "door must be between 1 and 10")
	ErrStakeTooLow         = apperr.New(apperr.KindValidation, "GAME_STAKE_TOO_LOW", "stake is below the minimum")
	ErrGameNotFound        = apperr.New(apperr.KindNotFound, "GAME_NOT_FOUND", "game not found")
	ErrGameNotOpen         = apperr.New(apperr.KindState, "GAME_NOT_OPEN", "game is not accepting guesses")
	ErrGameInProgress      = apperr.New(apperr.KindConflict, "GAME_IN_PROGRESS", "another game is still running")
	ErrAlreadyParticipated = apperr.New(apperr.KindConflict, "GAME_ALREADY_PARTICIPATED", "you already played this game")
)

// Account errors.
var (
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "ACCOUNT_EMAIL_TAKEN", "email is already registered")
	ErrInvalidEmail       = apperr.New(apperr.KindValidation, "ACCOUNT_EMAIL_INVALID", "email address is invalid")
	ErrWeakPassword       = apperr.New(apperr.KindValidation, "ACCOUNT_PASSWORD_WEAK", "password must be at least 6 characters")
	ErrNameRequired       = apperr.New(apperr.KindValidation, "ACCOUNT_NAME_REQUIRED", "full name is required")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
	ErrInvalidToken       = apperr.New(apperr.KindUnauthorized, "AUTH_INVALID_TOKEN", "invalid or expired token")
	ErrAccountDisabled    = apperr.New(apperr.KindForbidden, "ACCOUNT_DISABLED", "account is disabled")
	ErrSelfDeactivate     = apperr.New(apperr.KindValidation, "ACCOUNT_SELF_DEACTIVATE", "admins cannot disable their own account")
)

// Re-exported domain errors so handlers only need this package.
var (
	ErrUnknownFormula   = game.ErrUnknownFormula
	ErrUnknownPlantSize = farm.ErrUnknownSize
)

// translate maps storage and locking errors onto domain errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lock.ErrLockTimeout), errors.Is(err, repository.ErrVersionConflict):
		return ErrBusy
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repository.ErrActiveGameExists):
		return ErrGameInProgress
	case errors.Is(err, repository.ErrDuplicateParticipation):
		return ErrAlreadyParticipated
	case errors.Is(err, repository.ErrPaymentNotFound):
		return ErrPaymentNotFound
	case errors.Is(err, repository.ErrDuplicateSubscription):
		return ErrAlreadySubscribed
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	}
	return err
}
