package service

import (
	"context"
	"fmt"

	"vivolive/events"
	"vivolive/models"
)

// RecordCoinChange records a ledger entry and emits the matching events.
// This is the single entry point for all coin balance changes in the system.
func RecordCoinChange(ctx context.Context, uow UnitOfWork, history *models.CoinHistory) error {
	// Record the ledger entry
	if err := uow.CoinHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record coin history: %w", err)
	}

	// Emit coin change event (flushed after the transaction commits)
	event := events.CoinChangeEvent{
		UserID:          history.UserID,
		OldCoins:        history.CoinsBefore,
		NewCoins:        history.CoinsAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}
	uow.EventBus().Publish(event)

	// Also emit user created event for the bootstrap grant
	if history.TransactionType == models.TransactionTypeInitial {
		if name, ok := history.Metadata["name"].(string); ok {
			userCreatedEvent := events.UserCreatedEvent{
				UserID:       history.UserID,
				Name:         name,
				InitialCoins: history.CoinsAfter,
			}
			uow.EventBus().Publish(userCreatedEvent)
		}
	}

	return nil
}
