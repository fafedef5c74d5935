package repository

import (
	"context"
	"fmt"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

// StoreItemRepository implements the service.StoreItemRepository interface
type StoreItemRepository struct {
	q queryable
}

// NewStoreItemRepository creates a new store item repository
func NewStoreItemRepository(db *database.DB) *StoreItemRepository {
	return &StoreItemRepository{q: db.Pool}
}

// newStoreItemRepositoryWithTx creates a new store item repository with a transaction
func newStoreItemRepositoryWithTx(tx queryable) *StoreItemRepository {
	return &StoreItemRepository{q: tx}
}

// GetByID retrieves a store item by ID, or nil if absent
func (r *StoreItemRepository) GetByID(ctx context.Context, id string) (*models.StoreItem, error) {
	query := `
		SELECT id, name, item_type, url, price
		FROM store_items
		WHERE id = $1
	`

	var item models.StoreItem
	err := r.q.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Type,
		&item.URL,
		&item.Price,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store item %s: %w", id, err)
	}

	return &item, nil
}

// GetAll returns the cosmetics catalog
func (r *StoreItemRepository) GetAll(ctx context.Context) ([]*models.StoreItem, error) {
	query := `
		SELECT id, name, item_type, url, price
		FROM store_items
		ORDER BY item_type, price
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}
	defer rows.Close()

	var items []*models.StoreItem
	for rows.Next() {
		var item models.StoreItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Type,
			&item.URL,
			&item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// Upsert creates or updates a catalog entry
func (r *StoreItemRepository) Upsert(ctx context.Context, item *models.StoreItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO store_items (id, name, item_type, url, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			item_type = EXCLUDED.item_type,
			url = EXCLUDED.url,
			price = EXCLUDED.price
	`

	_, err := r.q.Exec(ctx, query, item.ID, item.Name, item.Type, item.URL, item.Price)
	if err != nil {
		return fmt.Errorf("failed to upsert store item %s: %w", item.ID, err)
	}

	return nil
}

// Delete removes a catalog entry
func (r *StoreItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM store_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store item %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("store item %s not found", id)
	}

	return nil
}
