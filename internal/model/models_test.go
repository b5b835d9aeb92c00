package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want Currency
		ok   bool
	}{
		{"usdt", CurrencyUSDT, true},
		{" USDT ", CurrencyUSDT, true},
		{"egp", CurrencyEGP, true},
		{"asser", CurrencyAsser, true},
		{"AC", CurrencyAsser, true},
		{"btc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCurrency(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBalanceAddAndCovers(t *testing.T) {
	b := &Balance{Asser: decimal.NewFromInt(100)}

	assert.True(t, b.Covers(CurrencyAsser, decimal.NewFromInt(100)))
	assert.False(t, b.Covers(CurrencyAsser, decimal.RequireFromString("100.01")))
	assert.False(t, b.Covers(CurrencyUSDT, decimal.NewFromInt(1)))

	b.Add(CurrencyAsser, decimal.NewFromInt(-51))
	b.Add(CurrencyUSDT, decimal.RequireFromString("5.00"))

	assert.True(t, b.Asser.Equal(decimal.NewFromInt(49)))
	assert.True(t, b.USDT.Equal(decimal.NewFromInt(5)))
	assert.True(t, b.EGP.IsZero())
}

func TestExchangeRatePairs(t *testing.T) {
	r := DefaultExchangeRate()

	supported := 0
	for _, from := range Currencies() {
		for _, to := range Currencies() {
			rate, ok := r.Rate(from, to)
			if from == to {
				assert.False(t, ok)
				continue
			}
			assert.True(t, ok, "%s->%s", from, to)
			assert.True(t, rate.IsPositive())
			supported++
		}
	}
	assert.Equal(t, 6, supported)

	rate, _ := r.Rate(CurrencyAsser, CurrencyUSDT)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.1")))
}

func TestCurrencyLabel(t *testing.T) {
	assert.Equal(t, "AC", CurrencyAsser.Label())
	assert.Equal(t, "USDT", CurrencyUSDT.Label())
	assert.Equal(t, "EGP", CurrencyEGP.Label())
}
