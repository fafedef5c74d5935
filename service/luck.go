package service

import (
	"math/rand"

	"vivolive/models"
)

// randFloat returns a float in [0, 1). Swapped out in tests for forced
// outcomes.
type randFloat func() float64

// DrawWin rolls one trial against a percentage win rate.
func DrawWin(winRate float64, roll randFloat) bool {
	return roll()*100 < winRate
}

// PickMultiplier selects a refund multiplier row by a cumulative walk over
// the table in declared order. A draw past the cumulative sum falls back to
// the last entry, so the table is total even when chances sum below 100.
func PickMultiplier(table []models.LuckyMultiplier, roll randFloat) models.LuckyMultiplier {
	draw := roll() * 100
	var cumulative float64
	for _, m := range table {
		cumulative += m.Chance
		if draw < cumulative {
			return m
		}
	}
	return table[len(table)-1]
}

// defaultRoll is the production randomness source.
func defaultRoll() float64 {
	return rand.Float64()
}
