package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// seedGift rows are inserted on first boot so a fresh deployment has a
// usable catalog before an admin edits it. Lucky-category gifts carry the
// is_lucky flag.
type seedGift struct {
	id, name      string
	cost          int64
	icon          string
	category      string
	animationType string
}

var defaultGifts = []seedGift{
	{"rose", "Rose", 10, "\U0001F339", "popular", "float"},
	{"heart", "Heart", 50, "❤️", "popular", "float"},
	{"perfume", "Perfume", 200, "\U0001F9F4", "popular", "shine"},
	{"teddy", "Teddy Bear", 500, "\U0001F9F8", "exclusive", "bounce"},
	{"crown", "Crown", 2000, "\U0001F451", "exclusive", "shine"},
	{"lucky-clover", "Lucky Clover", 100, "\U0001F340", "lucky", "spin"},
	{"lucky-star", "Lucky Star", 500, "\U0001F31F", "lucky", "spin"},
	{"sports-car", "Sports Car", 5000, "\U0001F3CE", "celebrity", "drive"},
	{"castle", "Castle", 20000, "\U0001F3F0", "celebrity", "fullscreen"},
	{"rocket", "Rocket", 10000, "\U0001F680", "trend", "fullscreen"},
}

type seedItem struct {
	id, name string
	itemType string
	url      string
	price    int64
}

var defaultStoreItems = []seedItem{
	{"frame-gold", "Gold Frame", "frame", "frames/gold.png", 1000},
	{"frame-neon", "Neon Frame", "frame", "frames/neon.png", 2500},
	{"bubble-star", "Star Bubble", "bubble", "bubbles/star.png", 500},
	{"bubble-galaxy", "Galaxy Bubble", "bubble", "bubbles/galaxy.png", 1500},
}

// SeedCatalogs populates the gift and store catalogs when they are empty.
// Existing rows are never touched, so admin edits survive restarts.
func SeedCatalogs(ctx context.Context, db *DB) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var giftCount int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM gifts").Scan(&giftCount); err != nil {
			return fmt.Errorf("failed to count gifts: %w", err)
		}
		if giftCount == 0 {
			for _, g := range defaultGifts {
				_, err := tx.Exec(ctx, `
					INSERT INTO gifts (id, name, cost, icon, category, is_lucky, animation_type)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					g.id, g.name, g.cost, g.icon, g.category, g.category == "lucky", g.animationType,
				)
				if err != nil {
					return fmt.Errorf("failed to seed gift %s: %w", g.id, err)
				}
			}
			log.WithField("count", len(defaultGifts)).Info("Seeded default gift catalog")
		}

		var itemCount int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM store_items").Scan(&itemCount); err != nil {
			return fmt.Errorf("failed to count store items: %w", err)
		}
		if itemCount == 0 {
			for _, i := range defaultStoreItems {
				_, err := tx.Exec(ctx, `
					INSERT INTO store_items (id, name, item_type, url, price)
					VALUES ($1, $2, $3, $4, $5)`,
					i.id, i.name, i.itemType, i.url, i.price,
				)
				if err != nil {
					return fmt.Errorf("failed to seed store item %s: %w", i.id, err)
				}
			}
			log.WithField("count", len(defaultStoreItems)).Info("Seeded default store catalog")
		}

		return nil
	})
}
