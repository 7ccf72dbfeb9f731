package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollStaysInRange(t *testing.T) {
	roller := New(&Config{Seed: 42})

	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v := roller.Roll(Sides)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, Sides)
		seen[v] = true
	}
	assert.Len(t, seen, Sides)
}

func TestRollDefaultsToSixSides(t *testing.T) {
	roller := New(nil)
	for i := 0; i < 100; i++ {
		v := roller.Roll(0)
		assert.True(t, v >= 1 && v <= Sides)
	}
}

func TestSeededRollersAreDeterministic(t *testing.T) {
	a := New(&Config{Seed: 7})
	b := New(&Config{Seed: 7})
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Roll(Sides), b.Roll(Sides))
	}
}
