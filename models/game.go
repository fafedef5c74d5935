package models

import (
	"fmt"
)

// Game identifies one of the coin mini-games.
type Game string

const (
	GameWheel Game = "wheel"
	GameSlots Game = "slots"
)

// ParseGame validates a game identifier from the wire.
func ParseGame(s string) (Game, error) {
	switch Game(s) {
	case GameWheel, GameSlots:
		return Game(s), nil
	default:
		return "", fmt.Errorf("unknown game %q", s)
	}
}

// TransactionType returns the ledger type for this game's spins.
func (g Game) TransactionType() TransactionType {
	if g == GameWheel {
		return TransactionTypeWheelSpin
	}
	return TransactionTypeSlotsSpin
}

// SpinResult reports the outcome of one wheel or slots spin.
type SpinResult struct {
	Game       Game
	Bet        int64
	Won        bool
	Multiplier float64
	WinLabel   string
	Payout     int64
	NewCoins   int64
}
