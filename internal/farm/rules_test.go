package farm

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"asser-platform/internal/model"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func TestCatalog(t *testing.T) {
	tests := []struct {
		size       model.PlantSize
		price      string
		production string
	}{
		{model.PlantSmall, "4", "0.146"},
		{model.PlantMedium, "6", "0.22"},
		{model.PlantLarge, "10", "0.336"},
	}
	for _, tt := range tests {
		cfg, ok := GetPlant(tt.size)
		require.True(t, ok)
		assert.True(t, cfg.Price.Equal(decimal.RequireFromString(tt.price)))
		assert.True(t, cfg.DailyProduction.Equal(decimal.RequireFromString(tt.production)))
	}

	_, ok := GetPlant("giant")
	assert.False(t, ok)
	assert.Len(t, AllPlants(), 3)
}

func TestPlantRespectsLimit(t *testing.T) {
	r := DefaultRules()
	state := NewState(1, t0)
	large := Plants[model.PlantLarge]

	for i := 0; i < r.MaxPlants; i++ {
		_, err := r.Plant(state, large, fmt.Sprintf("p%d", i), t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	_, err := r.Plant(state, large, "extra", t0)
	require.ErrorIs(t, err, ErrMaxPlantsReached)

	assert.Len(t, state.PlantedItems, 6)
	assert.True(t, state.DailyProduction.Equal(decimal.RequireFromString("2.016")))
	// The harvest clock started with the first plant.
	assert.Equal(t, t0.Add(24*time.Hour), *state.NextHarvestTime)
}

func TestHarvestCreditsOncePerInterval(t *testing.T) {
	r := DefaultRules()
	state := NewState(1, t0)
	_, err := r.Plant(state, Plants[model.PlantLarge], "p1", t0)
	require.NoError(t, err)

	_, ok := r.Harvest(state, t0.Add(23*time.Hour))
	assert.False(t, ok, "not due yet")

	harvestAt := t0.Add(30 * time.Hour)
	amount, ok := r.Harvest(state, harvestAt)
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.336")))
	assert.Equal(t, harvestAt.Add(24*time.Hour), *state.NextHarvestTime)
	assert.Equal(t, harvestAt, *state.LastHarvest)
	assert.True(t, state.TotalEarnings.Equal(decimal.RequireFromString("0.336")))

	_, ok = r.Harvest(state, harvestAt.Add(time.Hour))
	assert.False(t, ok, "re-reading before the next interval must not credit")

	amount, ok = r.Harvest(state, harvestAt.Add(24*time.Hour))
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.336")))
	assert.True(t, state.TotalEarnings.Equal(decimal.RequireFromString("0.672")))
}

func TestHarvestEmptyFarm(t *testing.T) {
	r := DefaultRules()
	state := NewState(1, t0)

	_, ok := r.Harvest(state, t0.Add(48*time.Hour))
	assert.False(t, ok)
}

func TestWater(t *testing.T) {
	r := DefaultRules()
	state := NewState(1, t0)

	require.ErrorIs(t, r.Water(state, t0), ErrNoPlants)

	_, err := r.Plant(state, Plants[model.PlantSmall], "p1", t0)
	require.NoError(t, err)

	r.RefreshWaterNeeds(state, t0.Add(5*time.Hour))
	assert.True(t, state.PlantedItems[0].NeedsWater)

	wateredAt := t0.Add(5 * time.Hour)
	require.NoError(t, r.Water(state, wateredAt))
	assert.False(t, state.PlantedItems[0].NeedsWater)
	assert.Equal(t, wateredAt, state.PlantedItems[0].LastWatered)
	assert.Equal(t, wateredAt.Add(4*time.Hour), *state.NextWateringAvailable)

	require.ErrorIs(t, r.Water(state, wateredAt.Add(time.Hour)), ErrWateringUnavailable)
	require.NoError(t, r.Water(state, wateredAt.Add(4*time.Hour)))
}

// TestHarvestNeverDoubleCreditsProperty reads the farm at random increasing
// times and checks the total credited equals production times the number of
// harvests, with harvests at least one interval apart.
func TestHarvestNeverDoubleCreditsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRules()
		state := NewState(1, t0)
		plants := rapid.IntRange(1, r.MaxPlants).Draw(t, "plants")
		for i := 0; i < plants; i++ {
			size := rapid.SampledFrom([]model.PlantSize{model.PlantSmall, model.PlantMedium, model.PlantLarge}).Draw(t, "size")
			if _, err := r.Plant(state, Plants[size], fmt.Sprintf("p%d", i), t0); err != nil {
				t.Fatal(err)
			}
		}

		now := t0
		credited := decimal.Zero
		harvests := 0
		var last time.Time
		reads := rapid.IntRange(1, 30).Draw(t, "reads")
		for i := 0; i < reads; i++ {
			now = now.Add(time.Duration(rapid.IntRange(0, 72).Draw(t, "hours")) * time.Hour)
			amount, ok := r.Harvest(state, now)
			if !ok {
				continue
			}
			if harvests > 0 && now.Sub(last) < r.HarvestInterval {
				t.Fatalf("harvests %v apart", now.Sub(last))
			}
			credited = credited.Add(amount)
			harvests++
			last = now
		}

		want := state.DailyProduction.Mul(decimal.NewFromInt(int64(harvests)))
		if !credited.Equal(want) || !state.TotalEarnings.Equal(want) {
			t.Fatalf("credited %s, total %s, want %s", credited, state.TotalEarnings, want)
		}
	})
}
