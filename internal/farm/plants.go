// Package farm implements the virtual farm: the plant catalog and the
// purchase, harvest and watering rules.
package farm

import (
	"github.com/shopspring/decimal"

	"asser-platform/internal/model"
)

// PlantType is the only crop the farm grows.
const PlantType = "cactus"

// PlantConfig holds the configuration for a purchasable plant size.
type PlantConfig struct {
	Size            model.PlantSize `json:"size"`
	Name            string          `json:"name"`
	Emoji           string          `json:"emoji"`
	Price           decimal.Decimal `json:"price"`           // AsserCoin
	DailyProduction decimal.Decimal `json:"dailyProduction"` // AsserCoin per harvest interval
	Description     string          `json:"description"`
}

// Plants contains all purchasable plant sizes. Daily production follows a
// flat per-size table, independent of price.
var Plants = map[model.PlantSize]PlantConfig{
	model.PlantSmall: {
		Size:            model.PlantSmall,
		Name:            "Small cactus",
		Emoji:           "🌵",
		Price:           decimal.NewFromInt(4),
		DailyProduction: decimal.RequireFromString("0.146"),
		Description:     "Cheap starter plant",
	},
	model.PlantMedium: {
		Size:            model.PlantMedium,
		Name:            "Medium cactus",
		Emoji:           "🌵",
		Price:           decimal.NewFromInt(6),
		DailyProduction: decimal.RequireFromString("0.22"),
		Description:     "Balanced price and yield",
	},
	model.PlantLarge: {
		Size:            model.PlantLarge,
		Name:            "Large cactus",
		Emoji:           "🌵",
		Price:           decimal.NewFromInt(10),
		DailyProduction: decimal.RequireFromString("0.336"),
		Description:     "Highest yield",
	},
}

// GetPlant returns the configuration for a size.
func GetPlant(size model.PlantSize) (PlantConfig, bool) {
	cfg, ok := Plants[size]
	return cfg, ok
}

// AllPlants returns every plant configuration from smallest to largest.
func AllPlants() []PlantConfig {
	return []PlantConfig{Plants[model.PlantSmall], Plants[model.PlantMedium], Plants[model.PlantLarge]}
}
