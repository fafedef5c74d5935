package repository

import (
	"context"
	"fmt"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

// GiftRepository implements the service.GiftRepository interface
type GiftRepository struct {
	q queryable
}

// NewGiftRepository creates a new gift repository
func NewGiftRepository(db *database.DB) *GiftRepository {
	return &GiftRepository{q: db.Pool}
}

// newGiftRepositoryWithTx creates a new gift repository with a transaction
func newGiftRepositoryWithTx(tx queryable) *GiftRepository {
	return &GiftRepository{q: tx}
}

// GetByID retrieves a gift by ID, or nil if absent
func (r *GiftRepository) GetByID(ctx context.Context, id string) (*models.Gift, error) {
	query := `
		SELECT id, name, cost, icon, category, is_lucky, animation_type
		FROM gifts
		WHERE id = $1
	`

	var gift models.Gift
	err := r.q.QueryRow(ctx, query, id).Scan(
		&gift.ID,
		&gift.Name,
		&gift.Cost,
		&gift.Icon,
		&gift.Category,
		&gift.IsLucky,
		&gift.AnimationType,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift %s: %w", id, err)
	}

	return &gift, nil
}

// GetAll returns the full catalog
func (r *GiftRepository) GetAll(ctx context.Context) ([]*models.Gift, error) {
	query := `
		SELECT id, name, cost, icon, category, is_lucky, animation_type
		FROM gifts
		ORDER BY category, cost
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	defer rows.Close()

	var gifts []*models.Gift
	for rows.Next() {
		var gift models.Gift
		err := rows.Scan(
			&gift.ID,
			&gift.Name,
			&gift.Cost,
			&gift.Icon,
			&gift.Category,
			&gift.IsLucky,
			&gift.AnimationType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		gifts = append(gifts, &gift)
	}

	return gifts, rows.Err()
}

// Upsert creates or updates a catalog entry. Invariants are normalized on
// the way in so category and the lucky flag can never disagree.
func (r *GiftRepository) Upsert(ctx context.Context, gift *models.Gift) error {
	gift.Normalize()

	query := `
		INSERT INTO gifts (id, name, cost, icon, category, is_lucky, animation_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			cost = EXCLUDED.cost,
			icon = EXCLUDED.icon,
			category = EXCLUDED.category,
			is_lucky = EXCLUDED.is_lucky,
			animation_type = EXCLUDED.animation_type
	`

	_, err := r.q.Exec(ctx, query,
		gift.ID, gift.Name, gift.Cost, gift.Icon, gift.Category, gift.IsLucky, gift.AnimationType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert gift %s: %w", gift.ID, err)
	}

	return nil
}

// Delete removes a catalog entry
func (r *GiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM gifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gift %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("gift %s not found", id)
	}

	return nil
}
