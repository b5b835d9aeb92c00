package game

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"asser-platform/internal/apperr"
)

// ErrUnknownFormula is returned when a formula id is not in the catalog.
var ErrUnknownFormula = apperr.New(apperr.KindValidation, "FORMULA_UNKNOWN", "unknown formula id")

// Formula derives a raw number from a snapshot.
type Formula struct {
	ID        int
	Name      string
	Calculate func(Snapshot) float64
}

// Catalog is an immutable set of formulas keyed by id.
type Catalog struct {
	formulas map[int]Formula
}

// NewCatalog builds a catalog, rejecting duplicate ids and nil functions.
func NewCatalog(formulas ...Formula) (*Catalog, error) {
	c := &Catalog{formulas: make(map[int]Formula, len(formulas))}
	for _, f := range formulas {
		if f.Calculate == nil {
			return nil, fmt.Errorf("formula %d has no calculate function", f.ID)
		}
		if _, ok := c.formulas[f.ID]; ok {
			return nil, fmt.Errorf("duplicate formula id %d", f.ID)
		}
		c.formulas[f.ID] = f
	}
	return c, nil
}

var defaultCatalog = mustCatalog(builtinFormulas()...)

func mustCatalog(formulas ...Formula) *Catalog {
	c, err := NewCatalog(formulas...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the builtin catalog of 50 formulas.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Get retrieves a formula by id.
func (c *Catalog) Get(id int) (Formula, bool) {
	f, ok := c.formulas[id]
	return f, ok
}

// List returns all formulas ordered by id.
func (c *Catalog) List() []Formula {
	out := make([]Formula, 0, len(c.formulas))
	for _, f := range c.formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of formulas.
func (c *Catalog) Count() int {
	return len(c.formulas)
}

// NormalizeDoor maps any raw formula result onto a door in [1,10]:
// abs(floor(r)) mod 10, with 0 becoming 10. Non-finite results map to 10.
func NormalizeDoor(r float64) int {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 10
	}
	door := int(math.Mod(math.Abs(math.Floor(r)), 10))
	if door == 0 {
		return 10
	}
	return door
}

// CorrectDoor computes the winning door for a formula and snapshot.
func (c *Catalog) CorrectDoor(id int, s Snapshot) (int, error) {
	f, ok := c.Get(id)
	if !ok {
		return 0, fmt.Errorf("formula %d: %w", id, ErrUnknownFormula)
	}
	return NormalizeDoor(f.Calculate(s)), nil
}

// CorrectDoorOrRandom behaves like CorrectDoor but falls back to a uniformly
// random door for unknown ids. A nil rng uses the global source.
func (c *Catalog) CorrectDoorOrRandom(id int, s Snapshot, rng *rand.Rand) int {
	door, err := c.CorrectDoor(id, s)
	if err == nil {
		return door
	}
	if rng == nil {
		return rand.IntN(10) + 1
	}
	return rng.IntN(10) + 1
}

// CalculateCorrectDoor computes the winning door using the default catalog.
func CalculateCorrectDoor(id int, s Snapshot) (int, error) {
	return defaultCatalog.CorrectDoor(id, s)
}
