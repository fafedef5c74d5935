package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vivolive/database"
	"vivolive/models"
)

// CoinHistoryRepository implements the service.CoinHistoryRepository interface
type CoinHistoryRepository struct {
	q queryable
}

// NewCoinHistoryRepository creates a new coin history repository
func NewCoinHistoryRepository(db *database.DB) *CoinHistoryRepository {
	return &CoinHistoryRepository{q: db.Pool}
}

// newCoinHistoryRepositoryWithTx creates a new coin history repository with a transaction
func newCoinHistoryRepositoryWithTx(tx queryable) *CoinHistoryRepository {
	return &CoinHistoryRepository{q: tx}
}

// Record creates a new ledger entry
func (r *CoinHistoryRepository) Record(ctx context.Context, history *models.CoinHistory) error {
	if err := history.Validate(); err != nil {
		return fmt.Errorf("invalid coin history for user %s: %w", history.UserID, err)
	}

	metadataJSON, err := json.Marshal(history.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO coin_history
		(user_id, coins_before, coins_after, change_amount, transaction_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.UserID,
		history.CoinsBefore,
		history.CoinsAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record coin history for user %s: %w", history.UserID, err)
	}

	return nil
}

// GetByUser returns ledger entries for a user, newest first
func (r *CoinHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.CoinHistory, error) {
	query := `
		SELECT id, user_id, coins_before, coins_after, change_amount,
		       transaction_type, metadata, created_at
		FROM coin_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin history for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanHistories(rows)
}

// GetByDateRange returns ledger entries within a date range
func (r *CoinHistoryRepository) GetByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.CoinHistory, error) {
	query := `
		SELECT id, user_id, coins_before, coins_after, change_amount,
		       transaction_type, metadata, created_at
		FROM coin_history
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin history for user %s in date range: %w", userID, err)
	}
	defer rows.Close()

	return scanHistories(rows)
}

type historyRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHistories(rows historyRows) ([]*models.CoinHistory, error) {
	var histories []*models.CoinHistory
	for rows.Next() {
		var history models.CoinHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.CoinsBefore,
			&history.CoinsAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coin history: %w", err)
	}

	return histories, nil
}
