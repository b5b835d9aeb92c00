package farm

import (
	"time"

	"github.com/shopspring/decimal"

	"asser-platform/internal/apperr"
	"asser-platform/internal/model"
)

var (
	ErrUnknownSize         = apperr.New(apperr.KindValidation, "FARM_UNKNOWN_SIZE", "unknown plant size")
	ErrMaxPlantsReached    = apperr.New(apperr.KindState, "FARM_MAX_PLANTS", "maximum number of plants reached")
	ErrNoPlants            = apperr.New(apperr.KindState, "FARM_NO_PLANTS", "no plants to water")
	ErrWateringUnavailable = apperr.New(apperr.KindState, "FARM_WATERING_UNAVAILABLE", "plants were watered recently")
)

// Rules are the tunable farm parameters.
type Rules struct {
	MaxPlants        int
	HarvestInterval  time.Duration
	WateringInterval time.Duration
}

// DefaultRules returns 6 plants, daily harvests and a 4 hour watering window.
func DefaultRules() Rules {
	return Rules{MaxPlants: 6, HarvestInterval: 24 * time.Hour, WateringInterval: 4 * time.Hour}
}

// NewState returns an empty farm for a user.
func NewState(userID int64, now time.Time) *model.FarmState {
	return &model.FarmState{
		UserID:       userID,
		PlantedItems: []model.Plant{},
		UpdatedAt:    now,
	}
}

// DailyProduction sums the production of every plant.
func DailyProduction(plants []model.Plant) decimal.Decimal {
	total := decimal.Zero
	for _, p := range plants {
		total = total.Add(p.DailyProduction)
	}
	return total
}

// CanPlant checks the plant limit.
func (r Rules) CanPlant(state *model.FarmState) error {
	if len(state.PlantedItems) >= r.MaxPlants {
		return ErrMaxPlantsReached
	}
	return nil
}

// Plant appends a new plant to the farm. The harvest clock starts with the
// first plant and is not reset by later purchases.
func (r Rules) Plant(state *model.FarmState, cfg PlantConfig, id string, now time.Time) (model.Plant, error) {
	if err := r.CanPlant(state); err != nil {
		return model.Plant{}, err
	}

	p := model.Plant{
		ID:              id,
		Type:            PlantType,
		Size:            cfg.Size,
		PlantedAt:       now,
		DailyProduction: cfg.DailyProduction,
		LastWatered:     now,
	}
	state.PlantedItems = append(state.PlantedItems, p)
	state.DailyProduction = DailyProduction(state.PlantedItems)
	if state.NextHarvestTime == nil {
		next := now.Add(r.HarvestInterval)
		state.NextHarvestTime = &next
	}
	state.UpdatedAt = now
	return p, nil
}

// HarvestDue reports whether production is ready to be collected.
func (r Rules) HarvestDue(state *model.FarmState, now time.Time) bool {
	if len(state.PlantedItems) == 0 || state.NextHarvestTime == nil {
		return false
	}
	return !now.Before(*state.NextHarvestTime)
}

// Harvest collects production if due and returns the amount to credit.
// It fires at most once per call; the next harvest is one interval after now.
func (r Rules) Harvest(state *model.FarmState, now time.Time) (decimal.Decimal, bool) {
	if !r.HarvestDue(state, now) {
		return decimal.Zero, false
	}

	amount := DailyProduction(state.PlantedItems)
	next := now.Add(r.HarvestInterval)
	harvested := now

	state.CurrentEarnings = amount
	state.TotalEarnings = state.TotalEarnings.Add(amount)
	state.LastHarvest = &harvested
	state.NextHarvestTime = &next
	state.UpdatedAt = now
	return amount, true
}

// RefreshWaterNeeds marks plants whose watering window has elapsed.
func (r Rules) RefreshWaterNeeds(state *model.FarmState, now time.Time) {
	for i := range state.PlantedItems {
		p := &state.PlantedItems[i]
		p.NeedsWater = !now.Before(p.LastWatered.Add(r.WateringInterval))
	}
}

// Water waters every plant and opens the next watering window.
func (r Rules) Water(state *model.FarmState, now time.Time) error {
	if len(state.PlantedItems) == 0 {
		return ErrNoPlants
	}
	if state.NextWateringAvailable != nil && now.Before(*state.NextWateringAvailable) {
		return ErrWateringUnavailable
	}

	for i := range state.PlantedItems {
		state.PlantedItems[i].LastWatered = now
		state.PlantedItems[i].NeedsWater = false
	}
	watered := now
	next := now.Add(r.WateringInterval)
	state.LastWatering = &watered
	state.NextWateringAvailable = &next
	state.UpdatedAt = now
	return nil
}
