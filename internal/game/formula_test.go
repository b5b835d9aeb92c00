package game

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"asser-platform/internal/apperr"
)

func TestNormalizeDoor(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want int
	}{
		{"zero maps to ten", 0, 10},
		{"ten maps to ten", 10, 10},
		{"negative fraction floors away from zero", -10.3, 1},
		{"just below one", 0.999, 10},
		{"plain fraction", 7.2, 7},
		{"negative half", -3.5, 4},
		{"large value", 1460.76, 10},
		{"huge value", 1e20, 10},
		{"nan", math.NaN(), 10},
		{"positive infinity", math.Inf(1), 10},
		{"negative infinity", math.Inf(-1), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDoor(tt.raw))
		})
	}
}

func TestNormalizeDoorProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := rapid.Float64Range(-1e12, 1e12).Draw(t, "raw")
		door := NormalizeDoor(r)
		if !ValidDoor(door) {
			t.Fatalf("NormalizeDoor(%v) = %d", r, door)
		}
		expected := int(math.Mod(math.Abs(math.Floor(r)), 10))
		if expected == 0 {
			expected = 10
		}
		if door != expected {
			t.Fatalf("NormalizeDoor(%v) = %d, want %d", r, door, expected)
		}
	})
}

func TestCorrectDoorUnknownFormula(t *testing.T) {
	_, err := CalculateCorrectDoor(51, referenceSnapshot())
	require.ErrorIs(t, err, ErrUnknownFormula)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = CalculateCorrectDoor(0, referenceSnapshot())
	require.ErrorIs(t, err, ErrUnknownFormula)
}

func TestCorrectDoorOrRandom(t *testing.T) {
	catalog := DefaultCatalog()
	snap := referenceSnapshot()

	known := catalog.CorrectDoorOrRandom(1, snap, nil)
	assert.Equal(t, 9, known)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		door := catalog.CorrectDoorOrRandom(999, snap, rng)
		assert.True(t, ValidDoor(door))
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	one := func(Snapshot) float64 { return 1 }

	_, err := NewCatalog(Formula{ID: 1, Name: "a", Calculate: one}, Formula{ID: 1, Name: "b", Calculate: one})
	require.Error(t, err)

	_, err = NewCatalog(Formula{ID: 2, Name: "nil"})
	require.Error(t, err)

	c, err := NewCatalog(Formula{ID: 3, Name: "c", Calculate: one}, Formula{ID: 2, Name: "d", Calculate: one})
	require.NoError(t, err)
	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 3, list[1].ID)
}

func TestCatalogListIsOrdered(t *testing.T) {
	list := DefaultCatalog().List()
	require.Len(t, list, 50)
	for i, f := range list {
		assert.Equal(t, i+1, f.ID)
	}
}
