package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"asser-platform/internal/model"
)

// FarmRepository handles farm state persistence. Planted items are stored
// as a JSONB array on the farm row.
type FarmRepository struct {
	db DBTX
}

// NewFarmRepository creates a new FarmRepository instance.
func NewFarmRepository(db DBTX) *FarmRepository {
	return &FarmRepository{db: db}
}

// Create inserts an empty farm for a user.
func (r *FarmRepository) Create(ctx context.Context, f *model.FarmState) error {
	items, err := marshalPlants(f.PlantedItems)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO farm_states (user_id, planted_items, daily_production, current_earnings, total_earnings,
			last_harvest, last_watering, next_watering_available, next_harvest_time, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		f.UserID, items, f.DailyProduction, f.CurrentEarnings, f.TotalEarnings,
		f.LastHarvest, f.LastWatering, f.NextWateringAvailable, f.NextHarvestTime,
	).Scan(&f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create farm: %w", err)
	}
	return nil
}

// Get retrieves a user's farm.
func (r *FarmRepository) Get(ctx context.Context, userID int64) (*model.FarmState, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate retrieves a user's farm and locks the row.
func (r *FarmRepository) GetForUpdate(ctx context.Context, userID int64) (*model.FarmState, error) {
	return r.get(ctx, userID, true)
}

func (r *FarmRepository) get(ctx context.Context, userID int64, forUpdate bool) (*model.FarmState, error) {
	query := `
		SELECT user_id, planted_items, daily_production, current_earnings, total_earnings,
			last_harvest, last_watering, next_watering_available, next_harvest_time, updated_at
		FROM farm_states
		WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		f     model.FarmState
		items []byte
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&f.UserID,
		&items,
		&f.DailyProduction,
		&f.CurrentEarnings,
		&f.TotalEarnings,
		&f.LastHarvest,
		&f.LastWatering,
		&f.NextWateringAvailable,
		&f.NextHarvestTime,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, ErrFarmNotFound, "get farm")
	}
	if err := json.Unmarshal(items, &f.PlantedItems); err != nil {
		return nil, fmt.Errorf("failed to decode planted items: %w", err)
	}
	if f.PlantedItems == nil {
		f.PlantedItems = []model.Plant{}
	}
	return &f, nil
}

// Update writes the whole farm row.
func (r *FarmRepository) Update(ctx context.Context, f *model.FarmState) error {
	items, err := marshalPlants(f.PlantedItems)
	if err != nil {
		return err
	}

	const query = `
		UPDATE farm_states
		SET planted_items = $2, daily_production = $3, current_earnings = $4, total_earnings = $5,
			last_harvest = $6, last_watering = $7, next_watering_available = $8, next_harvest_time = $9,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		f.UserID, items, f.DailyProduction, f.CurrentEarnings, f.TotalEarnings,
		f.LastHarvest, f.LastWatering, f.NextWateringAvailable, f.NextHarvestTime,
	).Scan(&f.UpdatedAt)
	if err != nil {
		return notFound(err, ErrFarmNotFound, "update farm")
	}
	return nil
}

func marshalPlants(plants []model.Plant) ([]byte, error) {
	if plants == nil {
		plants = []model.Plant{}
	}
	b, err := json.Marshal(plants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode planted items: %w", err)
	}
	return b, nil
}
