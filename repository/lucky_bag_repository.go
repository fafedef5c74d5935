package repository

import (
	"context"
	"fmt"
	"time"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

const luckyBagColumns = `
	id, sender_id, sender_name, sender_avatar, room_id, room_title,
	total_amount, remaining_amount, recipients_limit, claimed_by,
	refunded, created_at, expires_at`

// LuckyBagRepository implements the service.LuckyBagRepository interface
type LuckyBagRepository struct {
	q queryable
}

// NewLuckyBagRepository creates a new lucky bag repository
func NewLuckyBagRepository(db *database.DB) *LuckyBagRepository {
	return &LuckyBagRepository{q: db.Pool}
}

// newLuckyBagRepositoryWithTx creates a new lucky bag repository with a transaction
func newLuckyBagRepositoryWithTx(tx queryable) *LuckyBagRepository {
	return &LuckyBagRepository{q: tx}
}

func scanLuckyBag(row pgx.Row) (*models.LuckyBag, error) {
	var bag models.LuckyBag
	err := row.Scan(
		&bag.ID,
		&bag.SenderID,
		&bag.SenderName,
		&bag.SenderAvatar,
		&bag.RoomID,
		&bag.RoomTitle,
		&bag.TotalAmount,
		&bag.RemainingAmount,
		&bag.RecipientsLimit,
		&bag.ClaimedBy,
		&bag.Refunded,
		&bag.CreatedAt,
		&bag.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if bag.ClaimedBy == nil {
		bag.ClaimedBy = []string{}
	}
	return &bag, nil
}

// Create persists a new bag
func (r *LuckyBagRepository) Create(ctx context.Context, bag *models.LuckyBag) error {
	query := `
		INSERT INTO lucky_bags (
			id, sender_id, sender_name, sender_avatar, room_id, room_title,
			total_amount, remaining_amount, recipients_limit, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		bag.ID, bag.SenderID, bag.SenderName, bag.SenderAvatar,
		bag.RoomID, bag.RoomTitle, bag.TotalAmount, bag.RemainingAmount,
		bag.RecipientsLimit, bag.ExpiresAt,
	).Scan(&bag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lucky bag %s: %w", bag.ID, err)
	}

	return nil
}

// GetForUpdate retrieves a bag with a row lock held for the transaction,
// serializing concurrent claims. Returns nil if absent.
func (r *LuckyBagRepository) GetForUpdate(ctx context.Context, id string) (*models.LuckyBag, error) {
	query := `SELECT ` + luckyBagColumns + ` FROM lucky_bags WHERE id = $1 FOR UPDATE`

	bag, err := scanLuckyBag(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lucky bag %s: %w", id, err)
	}

	return bag, nil
}

// RecordClaim appends a claimer and deducts their share from the pool. The
// guards in the WHERE clause back up the service checks under the row lock.
func (r *LuckyBagRepository) RecordClaim(ctx context.Context, bagID string, userID string, amount int64) error {
	query := `
		UPDATE lucky_bags
		SET remaining_amount = remaining_amount - $1,
		    claimed_by = array_append(claimed_by, $2)
		WHERE id = $3
		  AND remaining_amount >= $1
		  AND NOT ($2 = ANY(claimed_by))
		  AND NOT refunded
	`

	result, err := r.q.Exec(ctx, query, amount, userID, bagID)
	if err != nil {
		return fmt.Errorf("failed to record claim on lucky bag %s: %w", bagID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lucky bag %s not claimable by user %s", bagID, userID)
	}

	return nil
}

// GetExpired returns unrefunded bags past their claim window
func (r *LuckyBagRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.LuckyBag, error) {
	query := `
		SELECT ` + luckyBagColumns + `
		FROM lucky_bags
		WHERE expires_at <= $1 AND NOT refunded
		ORDER BY expires_at
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired lucky bags: %w", err)
	}
	defer rows.Close()

	var bags []*models.LuckyBag
	for rows.Next() {
		bag, err := scanLuckyBag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lucky bag: %w", err)
		}
		bags = append(bags, bag)
	}

	return bags, rows.Err()
}

// MarkRefunded flags a bag so the expiry sweep never pays it twice
func (r *LuckyBagRepository) MarkRefunded(ctx context.Context, id string) error {
	query := `
		UPDATE lucky_bags
		SET refunded = TRUE
		WHERE id = $1 AND NOT refunded
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark lucky bag %s refunded: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lucky bag %s already refunded or missing", id)
	}

	return nil
}
