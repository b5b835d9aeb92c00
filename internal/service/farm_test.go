package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asser-platform/internal/config"
	"asser-platform/internal/farm"
	"asser-platform/internal/model"
)

func TestFarmHarvest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	view, err := env.farms.Plant(ctx, u.ID, model.PlantLarge)
	require.NoError(t, err)
	require.Len(t, view.PlantedItems, 1)
	assertDec(t, "0.336", view.DailyProduction)
	assertDec(t, "90", env.balance(t, u.ID).Asser)
	assert.Len(t, txsOfType(env.history(t, u.ID), model.TxTypePurchase), 1)

	env.clock.Advance(24 * time.Hour)
	view, err = env.farms.State(ctx, u.ID)
	require.NoError(t, err)
	assertDec(t, "0.336", view.Harvested)
	assertDec(t, "0.336", view.TotalEarnings)
	assertDec(t, "90.336", env.balance(t, u.ID).Asser)

	view, err = env.farms.State(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, view.Harvested.IsZero())
	assertDec(t, "90.336", env.balance(t, u.ID).Asser)
	assert.Len(t, txsOfType(env.history(t, u.ID), model.TxTypeFarmHarvest), 1)

	env.clock.Advance(23 * time.Hour)
	view, err = env.farms.State(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, view.Harvested.IsZero())

	env.clock.Advance(time.Hour)
	view, err = env.farms.State(ctx, u.ID)
	require.NoError(t, err)
	assertDec(t, "0.336", view.Harvested)
	assertDec(t, "0.672", view.TotalEarnings)
}

func TestFarmPlantSettlesDueHarvest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	_, err := env.farms.Plant(ctx, u.ID, model.PlantSmall)
	require.NoError(t, err)

	env.clock.Advance(25 * time.Hour)
	view, err := env.farms.Plant(ctx, u.ID, model.PlantMedium)
	require.NoError(t, err)
	assertDec(t, "0.146", view.Harvested)
	assertDec(t, "0.366", view.DailyProduction)
	// 100 - 4 - 6 + 0.146
	assertDec(t, "90.146", env.balance(t, u.ID).Asser)
}

func TestFarmPlantRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown size", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "Sara", "sara@example.com")
		_, err := env.farms.Plant(ctx, u.ID, model.PlantSize("huge"))
		assert.ErrorIs(t, err, ErrUnknownPlantSize)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		env := newTestEnv(t, func(c *config.Config) { c.Ledger.WelcomeAsser = 5 })
		u := env.register(t, "Sara", "sara@example.com")

		_, err := env.farms.Plant(ctx, u.ID, model.PlantLarge)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		view, err := env.farms.State(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, view.PlantedItems)
		assertDec(t, "5", env.balance(t, u.ID).Asser)
	})

	t.Run("plant limit", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.register(t, "Sara", "sara@example.com")
		for i := 0; i < 6; i++ {
			_, err := env.farms.Plant(ctx, u.ID, model.PlantSmall)
			require.NoError(t, err)
		}
		_, err := env.farms.Plant(ctx, u.ID, model.PlantSmall)
		assert.ErrorIs(t, err, farm.ErrMaxPlantsReached)
		assertDec(t, "76", env.balance(t, u.ID).Asser)
	})
}

func TestFarmWater(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "Sara", "sara@example.com")

	_, err := env.farms.Water(ctx, u.ID)
	assert.ErrorIs(t, err, farm.ErrNoPlants)

	_, err = env.farms.Plant(ctx, u.ID, model.PlantSmall)
	require.NoError(t, err)

	_, err = env.farms.Water(ctx, u.ID)
	require.NoError(t, err)
	_, err = env.farms.Water(ctx, u.ID)
	assert.ErrorIs(t, err, farm.ErrWateringUnavailable)

	env.clock.Advance(4 * time.Hour)
	view, err := env.farms.State(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.PlantedItems, 1)
	assert.True(t, view.PlantedItems[0].NeedsWater)

	view, err = env.farms.Water(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, view.PlantedItems[0].NeedsWater)
	assertDec(t, "96", env.balance(t, u.ID).Asser)
}

func TestFarmCatalog(t *testing.T) {
	env := newTestEnv(t)
	plants := env.farms.Catalog()
	require.Len(t, plants, 3)
	assertDec(t, "4", plants[0].Price)
	assertDec(t, "10", plants[2].Price)
}
