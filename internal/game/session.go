package game

import (
	"time"

	"github.com/shopspring/decimal"

	"asser-platform/internal/model"
)

const (
	MinDoor = 1
	MaxDoor = 10
)

// ValidDoor reports whether d is a selectable door.
func ValidDoor(d int) bool {
	return d >= MinDoor && d <= MaxDoor
}

// Remaining returns the time left before the session stops accepting
// guesses, never negative.
func Remaining(s *model.GameSession, now time.Time) time.Duration {
	if s == nil || !s.IsActive {
		return 0
	}
	left := s.EndTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds is Remaining rounded up to whole seconds.
func RemainingSeconds(s *model.GameSession, now time.Time) int {
	left := Remaining(s, now)
	secs := int(left / time.Second)
	if left%time.Second > 0 {
		secs++
	}
	return secs
}

// IsOpen reports whether the session accepts guesses at now.
func IsOpen(s *model.GameSession, now time.Time) bool {
	return Remaining(s, now) > 0
}

// Evaluate scores a guess. A correct guess earns stake*rate; a wrong guess
// earns nothing and costs nothing.
func Evaluate(selected, correct int, stake, rate decimal.Decimal) (bool, decimal.Decimal) {
	if selected != correct {
		return false, decimal.Zero
	}
	return true, stake.Mul(rate).Round(model.AmountScale)
}

// NewSession builds an open session starting at now.
func NewSession(f Formula, door, durationSeconds int, createdBy int64, now time.Time) *model.GameSession {
	return &model.GameSession{
		FormulaID:       f.ID,
		FormulaName:     f.Name,
		CorrectDoor:     door,
		DurationSeconds: durationSeconds,
		StartTime:       now,
		EndTime:         now.Add(time.Duration(durationSeconds) * time.Second),
		IsActive:        true,
		CreatedBy:       createdBy,
	}
}
