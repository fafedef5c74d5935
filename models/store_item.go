package models

import (
	"fmt"
)

// ItemType is the tagged variant of a cosmetic store item. Only the listed
// variants are accepted; payloads are validated at the boundary before they
// touch user documents.
type ItemType string

const (
	ItemTypeFrame  ItemType = "frame"
	ItemTypeBubble ItemType = "bubble"
)

// Valid reports whether the tag is a known variant.
func (t ItemType) Valid() bool {
	return t == ItemTypeFrame || t == ItemTypeBubble
}

// StoreItem is admin-edited cosmetic catalog data.
type StoreItem struct {
	ID    string   `db:"id"`
	Name  string   `db:"name"`
	Type  ItemType `db:"item_type"`
	URL   string   `db:"url"`
	Price int64    `db:"price"`
}

// Validate rejects malformed catalog entries before they are stored.
func (i *StoreItem) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("store item %s: name is required", i.ID)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("store item %s: unknown item type %q", i.ID, i.Type)
	}
	if i.Price < 0 {
		return fmt.Errorf("store item %s: price must not be negative", i.ID)
	}
	return nil
}
