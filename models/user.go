package models

import (
	"time"
)

// User represents an account with its coin balance and lifetime scores.
// Coins are spendable; wealth and charm are monotonic lifetime counters
// (coins spent and gift value received, respectively).
type User struct {
	ID           string    `db:"id"`
	CustomID     int64     `db:"custom_id"`
	Name         string    `db:"name"`
	Avatar       string    `db:"avatar"`
	Coins        int64     `db:"coins"`
	Wealth       int64     `db:"wealth"`
	Charm        int64     `db:"charm"`
	IsAdmin      bool      `db:"is_admin"`
	IsBanned     bool      `db:"is_banned"`
	Frame        string    `db:"frame"`
	ActiveBubble string    `db:"active_bubble"`
	NameStyle    string    `db:"name_style"`
	OwnedItems   []string  `db:"owned_items"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CanAfford checks if the user has sufficient coins for an amount
func (u *User) CanAfford(amount int64) bool {
	return u.Coins >= amount
}

// Owns reports whether the user owns the given store item.
func (u *User) Owns(itemID string) bool {
	for _, id := range u.OwnedItems {
		if id == itemID {
			return true
		}
	}
	return false
}

// Level returns the display level derived from lifetime wealth.
func (u *User) Level() int {
	return LevelForWealth(u.Wealth)
}

// levelThresholds maps cumulative wealth to display levels. A new account
// starts at level 1; each entry is the wealth required to reach the next.
var levelThresholds = []int64{
	0, 1_000, 5_000, 20_000, 50_000, 100_000, 250_000,
	500_000, 1_000_000, 2_500_000, 5_000_000, 10_000_000,
}

// LevelForWealth derives the display level for a cumulative wealth score.
func LevelForWealth(wealth int64) int {
	level := 1
	for i := 1; i < len(levelThresholds); i++ {
		if wealth < levelThresholds[i] {
			break
		}
		level = i + 1
	}
	return level
}

// ProfilePatch is the subset of user fields that appear in denormalized
// speaker snapshots and must be re-synchronized into every room where the
// user is seated whenever the profile changes.
type ProfilePatch struct {
	Name      *string
	Avatar    *string
	Frame     *string
	NameStyle *string
}
