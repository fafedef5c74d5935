package models

import (
	"errors"
	"fmt"
)

// LuckyMultiplier is one row of the refund multiplier table. Chance is a
// percentage share of winning trials; entries are evaluated in declared
// order by a cumulative walk, never sorted.
type LuckyMultiplier struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Chance float64 `json:"chance"`
}

// GameSettings is the singleton tuning document read by every transaction
// evaluation. It is stored as one row, live-updated by administrators, and
// served to services through an injected provider that refreshes on a
// short TTL. Version counts updates, for audit logs.
type GameSettings struct {
	WheelWinRate     float64           `json:"wheelWinRate"`
	SlotsWinRate     float64           `json:"slotsWinRate"`
	LuckyGiftWinRate float64           `json:"luckyGiftWinRate"`
	LuckyMultipliers []LuckyMultiplier `json:"luckyMultipliers"`

	// Share of winning spins that land on the big multiplier.
	WheelJackpotChance float64 `json:"wheelJackpotChance"`
	SlotsSevenChance   float64 `json:"slotsSevenChance"`

	WheelJackpotX float64 `json:"wheelJackpotX"`
	WheelNormalX  float64 `json:"wheelNormalX"`
	SlotsSevenX   float64 `json:"slotsSevenX"`
	SlotsFruitX   float64 `json:"slotsFruitX"`

	ComboDuration   float64  `json:"comboDuration"` // seconds
	EmojiDuration   float64  `json:"emojiDuration"` // seconds
	AvailableEmojis []string `json:"availableEmojis"`

	Version int64 `json:"version"`
}

// DefaultGameSettings returns the values substituted when the settings
// document is missing.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		WheelWinRate:     45,
		SlotsWinRate:     35,
		LuckyGiftWinRate: 30,
		LuckyMultipliers: []LuckyMultiplier{
			{Label: "X10", Value: 10, Chance: 70},
			{Label: "X50", Value: 50, Chance: 20},
			{Label: "X100", Value: 100, Chance: 8},
			{Label: "X500", Value: 500, Chance: 2},
		},
		WheelJackpotChance: 10,
		SlotsSevenChance:   10,
		WheelJackpotX:      8,
		WheelNormalX:       2,
		SlotsSevenX:        20,
		SlotsFruitX:        5,
		ComboDuration:      5,
		EmojiDuration:      1.5,
	}
}

// Validate rejects settings that would make the probability model
// undefined. Chances must sum to at most 100; draws past the cumulative
// sum fall back to the last table entry, so a sum below 100 simply fattens
// the tail entry rather than dropping trials.
func (s *GameSettings) Validate() error {
	for name, rate := range map[string]float64{
		"wheelWinRate":       s.WheelWinRate,
		"slotsWinRate":       s.SlotsWinRate,
		"luckyGiftWinRate":   s.LuckyGiftWinRate,
		"wheelJackpotChance": s.WheelJackpotChance,
		"slotsSevenChance":   s.SlotsSevenChance,
	} {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("%s must be within [0,100], got %v", name, rate)
		}
	}
	if len(s.LuckyMultipliers) == 0 {
		return errors.New("lucky multiplier table must not be empty")
	}
	var sum float64
	for i, m := range s.LuckyMultipliers {
		if m.Value <= 0 {
			return fmt.Errorf("lucky multiplier %d (%s): value must be positive", i, m.Label)
		}
		if m.Chance <= 0 {
			return fmt.Errorf("lucky multiplier %d (%s): chance must be positive", i, m.Label)
		}
		sum += m.Chance
	}
	if sum > 100 {
		return fmt.Errorf("lucky multiplier chances sum to %v, must not exceed 100", sum)
	}
	for name, x := range map[string]float64{
		"wheelJackpotX": s.WheelJackpotX,
		"wheelNormalX":  s.WheelNormalX,
		"slotsSevenX":   s.SlotsSevenX,
		"slotsFruitX":   s.SlotsFruitX,
	} {
		if x <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, x)
		}
	}
	if s.ComboDuration <= 0 {
		return fmt.Errorf("comboDuration must be positive, got %v", s.ComboDuration)
	}
	return nil
}
