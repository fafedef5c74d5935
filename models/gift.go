package models

import "time"

// GiftCategory groups gifts into the catalog tabs.
type GiftCategory string

const (
	GiftCategoryPopular   GiftCategory = "popular"
	GiftCategoryExclusive GiftCategory = "exclusive"
	GiftCategoryLucky     GiftCategory = "lucky"
	GiftCategoryCelebrity GiftCategory = "celebrity"
	GiftCategoryTrend     GiftCategory = "trend"
)

// Gift is immutable catalog data, edited only by administrators. Cost is
// coins per unit per recipient. Gifts in the lucky category always carry
// IsLucky; the flag is forced on write so the two can never disagree.
type Gift struct {
	ID            string       `db:"id"`
	Name          string       `db:"name"`
	Cost          int64        `db:"cost"`
	Icon          string       `db:"icon"`
	Category      GiftCategory `db:"category"`
	IsLucky       bool         `db:"is_lucky"`
	AnimationType string       `db:"animation_type"`
}

// Normalize forces invariants the admin panel maintains in the original
// catalog editor: lucky-category gifts are lucky, and an empty category
// defaults to popular.
func (g *Gift) Normalize() {
	if g.Category == "" {
		g.Category = GiftCategoryPopular
	}
	g.IsLucky = g.Category == GiftCategoryLucky
}

// GiftResult reports a completed gift transaction. WinLabel carries the
// label of the last winning multiplier when several trials won. ComboCount
// is zero when the send was not part of a combo chain.
type GiftResult struct {
	GiftID         string
	Quantity       int64
	Recipients     int
	TotalCost      int64
	TotalRefund    int64
	IsLuckyWin     bool
	WinLabel       string
	NewCoins       int64
	ComboCount     int64
	ComboExpiresAt time.Time
	Announcement   *GlobalAnnouncement
}
