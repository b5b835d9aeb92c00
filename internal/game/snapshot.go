// Package game implements the door prediction game: the statistics snapshot,
// the catalog of outcome formulas and the session timing rules.
package game

import "time"

// Snapshot is a read-only view of one user's activity used by the formulas.
// It is assembled on demand and never persisted.
type Snapshot struct {
	LoginCount         int
	AccountBalance     float64
	CactusCount        int
	UserID             string // numeric public id, digits may be parsed out
	PhoneNumber        string
	TotalWins          int
	ParticipationCount int
	MessageCount       int
	Rewards            float64
	LossCount          int
	ActiveDays         int
	TransferCount      int
	CorrectAnswers     int
	LogoutCount        int
	PrivateMessages    int
	GameCount          int
	DepositCount       int
	DiscountCount      int
	PrizeCount         int
	PurchaseCount      int
	QuestionCount      int
	InvitationCount    int
	PreviousBalance    float64
	Losses             int

	// TakenAt is the moment the snapshot was built. Calendar formulas read
	// the date from here instead of the wall clock.
	TakenAt time.Time
}

// digitAt returns the decimal digit at index i of s, or 0 when i is out of
// range or the character is not a digit.
func digitAt(s string, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	c := s[i]
	if c < '0' || c > '9' {
		return 0
	}
	return float64(c - '0')
}

func firstDigit(s string) float64 { return digitAt(s, 0) }

func lastDigit(s string) float64 { return digitAt(s, len(s)-1) }

// digitSpread returns max digit minus min digit of s, ignoring non-digits.
func digitSpread(s string) float64 {
	lo, hi := 10, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		lo = min(lo, d)
		hi = max(hi, d)
	}
	if hi < 0 {
		return 0
	}
	return float64(hi - lo)
}

// leadingInt parses the leading run of digits of s, 0 when there is none.
func leadingInt(s string) float64 {
	var n float64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + float64(c-'0')
	}
	return n
}

// atLeastOne guards a count used as a denominator.
func atLeastOne(n int) float64 {
	return float64(max(1, n))
}
