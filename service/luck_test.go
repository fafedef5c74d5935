package service

import (
	"testing"

	"vivolive/models"

	"github.com/stretchr/testify/assert"
)

func fixedRoll(v float64) randFloat {
	return func() float64 { return v }
}

func TestDrawWin(t *testing.T) {
	t.Run("roll under the rate wins", func(t *testing.T) {
		assert.True(t, DrawWin(30, fixedRoll(0.29)))
	})

	t.Run("roll at the rate loses", func(t *testing.T) {
		assert.False(t, DrawWin(30, fixedRoll(0.30)))
	})

	t.Run("zero rate never wins", func(t *testing.T) {
		assert.False(t, DrawWin(0, fixedRoll(0)))
	})

	t.Run("full rate always wins", func(t *testing.T) {
		assert.True(t, DrawWin(100, fixedRoll(0.9999)))
	})
}

func TestPickMultiplier(t *testing.T) {
	table := []models.LuckyMultiplier{
		{Label: "X10", Value: 10, Chance: 70},
		{Label: "X50", Value: 50, Chance: 20},
		{Label: "X100", Value: 100, Chance: 8},
		{Label: "X500", Value: 500, Chance: 2},
	}

	tests := []struct {
		name string
		roll float64
		want string
	}{
		{"low draw hits the first band", 0.0, "X10"},
		{"draw inside the first band", 0.699, "X10"},
		{"boundary falls into the next band", 0.70, "X50"},
		{"draw inside the third band", 0.95, "X100"},
		{"top of the table", 0.99, "X500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickMultiplier(table, fixedRoll(tt.roll))
			assert.Equal(t, tt.want, got.Label)
		})
	}

	t.Run("draw past the cumulative sum falls back to the last entry", func(t *testing.T) {
		short := []models.LuckyMultiplier{
			{Label: "X10", Value: 10, Chance: 40},
			{Label: "X50", Value: 50, Chance: 10},
		}
		got := PickMultiplier(short, fixedRoll(0.99))
		assert.Equal(t, "X50", got.Label)
	})

	t.Run("order is declaration order, not value order", func(t *testing.T) {
		reversed := []models.LuckyMultiplier{
			{Label: "X500", Value: 500, Chance: 50},
			{Label: "X10", Value: 10, Chance: 50},
		}
		got := PickMultiplier(reversed, fixedRoll(0.25))
		assert.Equal(t, "X500", got.Label)
	})
}
