package game

// f converts a counter for arithmetic.
func f(n int) float64 { return float64(n) }

// builtinFormulas returns the 50 outcome formulas.
//
// Products are wrapped in float64() before being added to so the compiler
// never fuses them into FMA instructions; results must be bit-identical on
// every architecture.
func builtinFormulas() []Formula {
	return []Formula{
		{1, "Login Momentum", func(s Snapshot) float64 {
			return float64(f(s.LoginCount)*2) + 5
		}},
		{2, "Balance Quarter", func(s Snapshot) float64 {
			return s.AccountBalance/4 + float64(s.AccountBalance*0.03)
		}},
		{3, "Cactus Growth", func(s Snapshot) float64 {
			return float64(f(s.CactusCount)*1.5) - 2
		}},
		{4, "ID Bookends", func(s Snapshot) float64 {
			return firstDigit(s.UserID) + lastDigit(s.UserID)
		}},
		{5, "Balance Tenth", func(s Snapshot) float64 {
			return (float64(s.AccountBalance*0.1) + 7) / 2
		}},
		{6, "Login Cactus Product", func(s Snapshot) float64 {
			return float64(f(s.LoginCount)*f(s.CactusCount)) - 6
		}},
		{7, "Phone Midpoint", func(s Snapshot) float64 {
			return digitAt(s.PhoneNumber, len(s.PhoneNumber)/2) * 1.3
		}},
		{8, "Victory Doubling", func(s Snapshot) float64 {
			return float64(f(s.TotalWins)*2) + 11
		}},
		{9, "Participation Half", func(s Snapshot) float64 {
			return f(s.ParticipationCount)/2 - 1
		}},
		{10, "Message Amplifier", func(s Snapshot) float64 {
			return f(s.MessageCount) / 0.05
		}},
		{11, "Balance Offset", func(s Snapshot) float64 {
			return (s.AccountBalance - 3) * 1.25
		}},
		{12, "ID Phone Cross", func(s Snapshot) float64 {
			return firstDigit(s.UserID) * lastDigit(s.PhoneNumber)
		}},
		{13, "Reward Tenth", func(s Snapshot) float64 {
			return float64(s.Rewards*0.1) + 17
		}},
		{14, "Balance Third", func(s Snapshot) float64 {
			return (s.AccountBalance+12)/3 + 6
		}},
		{15, "Loss Third", func(s Snapshot) float64 {
			return f(s.LossCount)/3 + 1.5
		}},
		{16, "Active Days", func(s Snapshot) float64 {
			return float64(f(s.ActiveDays)*0.75) + 4
		}},
		{17, "Transfer Half", func(s Snapshot) float64 {
			return f(s.TransferCount)/2 - 7
		}},
		{18, "Correct Triple", func(s Snapshot) float64 {
			return float64(f(s.CorrectAnswers)*3) - 2
		}},
		{19, "Fifth Digit", func(s Snapshot) float64 {
			return digitAt(s.UserID, 4) * 2.5
		}},
		{20, "Cactus per Logout", func(s Snapshot) float64 {
			return f(s.CactusCount) * 2 / atLeastOne(s.LogoutCount)
		}},
		{21, "Balance Minus Losses", func(s Snapshot) float64 {
			return (s.AccountBalance - f(s.LossCount)) / 1.2
		}},
		{22, "Calendar Day", func(s Snapshot) float64 {
			return float64(f(s.TakenAt.Day())*0.5) + 10
		}},
		{23, "Victory Quadruple", func(s Snapshot) float64 {
			return float64(f(s.TotalWins)*4) - 3
		}},
		{24, "Private Messages", func(s Snapshot) float64 {
			return f(s.PrivateMessages) / 0.02
		}},
		{25, "Micro Balance", func(s Snapshot) float64 {
			return (float64(s.AccountBalance*0.0025) + 3) / 2
		}},
		{26, "Game Multiplier", func(s Snapshot) float64 {
			return float64(f(s.GameCount)*3.2) - 1
		}},
		{27, "Login Wins", func(s Snapshot) float64 {
			return f(s.LoginCount) * f(s.TotalWins) / 2
		}},
		{28, "Message Ratio", func(s Snapshot) float64 {
			return f(s.MessageCount) / 0.021
		}},
		{29, "Weekday Countdown", func(s Snapshot) float64 {
			// Sunday is 0, matching time.Weekday.
			return f(7-int(s.TakenAt.Weekday())) * 0.05
		}},
		{30, "Balance Percent", func(s Snapshot) float64 {
			return float64(s.AccountBalance*0.012) + 8.4
		}},
		{31, "Correct Offset", func(s Snapshot) float64 {
			return f(s.CorrectAnswers-2) * 3
		}},
		{32, "Deposit Quarter", func(s Snapshot) float64 {
			return f(s.DepositCount)/4 + 11
		}},
		{33, "Participation Tenfold", func(s Snapshot) float64 {
			return f(s.ParticipationCount) / 0.1
		}},
		{34, "Balance Ninety-Five", func(s Snapshot) float64 {
			return float64(s.AccountBalance*0.95) + 7
		}},
		{35, "Deposit Multiplier", func(s Snapshot) float64 {
			return float64(f(s.DepositCount)*1.25) - 6
		}},
		{36, "ID Digit Spread", func(s Snapshot) float64 {
			return digitSpread(s.UserID) * 3
		}},
		{37, "Cactus Eighty", func(s Snapshot) float64 {
			return float64(f(s.CactusCount)*0.8) + 9.1
		}},
		{38, "Loss Multiplier", func(s Snapshot) float64 {
			return float64(f(s.LossCount)*2.3) - 1
		}},
		{39, "Discount Double", func(s Snapshot) float64 {
			return f(s.DiscountCount)/0.5 + 6
		}},
		{40, "Prize Ratio", func(s Snapshot) float64 {
			return f(s.PrizeCount) / 1.5 * 1.7
		}},
		{41, "Balance Amplifier", func(s Snapshot) float64 {
			return s.AccountBalance/0.75 + 3.5
		}},
		{42, "Games per Day", func(s Snapshot) float64 {
			return f(s.GameCount) / atLeastOne(s.ActiveDays)
		}},
		{43, "ID Magnitude", func(s Snapshot) float64 {
			return float64(leadingInt(s.UserID)*0.003) + f(s.GameCount)
		}},
		{44, "Previous Balance Drift", func(s Snapshot) float64 {
			return (s.PreviousBalance - f(s.Losses)) / 0.04
		}},
		{45, "Purchase Multiplier", func(s Snapshot) float64 {
			return float64(f(s.PurchaseCount)*2.5) + 2
		}},
		{46, "Question Fifth", func(s Snapshot) float64 {
			return float64(f(s.QuestionCount)*0.2) + 10
		}},
		{47, "Phone Tail", func(s Snapshot) float64 {
			return (lastDigit(s.PhoneNumber) + 2) / 0.005
		}},
		{48, "Invitation Amplifier", func(s Snapshot) float64 {
			return f(s.InvitationCount)/0.003 + 7
		}},
		{49, "Login Scale", func(s Snapshot) float64 {
			return float64(f(s.LoginCount)*1.15) - 6
		}},
		{50, "Balance and Wins", func(s Snapshot) float64 {
			return float64(s.AccountBalance*0.0075) + float64(f(s.TotalWins)*2)
		}},
	}
}
