package repository

import (
	"context"
	"fmt"

	"vivolive/database"
	"vivolive/events"
	"vivolive/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	roomRepo         service.RoomRepository
	coinHistoryRepo  service.CoinHistoryRepository
	giftRepo         service.GiftRepository
	storeItemRepo    service.StoreItemRepository
	gameSettingsRepo service.GameSettingsRepository
	luckyBagRepo     service.LuckyBagRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.roomRepo = newRoomRepositoryWithTx(tx)
	u.coinHistoryRepo = newCoinHistoryRepositoryWithTx(tx)
	u.giftRepo = newGiftRepositoryWithTx(tx)
	u.storeItemRepo = newStoreItemRepositoryWithTx(tx)
	u.gameSettingsRepo = newGameSettingsRepositoryWithTx(tx)
	u.luckyBagRepo = newLuckyBagRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// RoomRepository returns the room repository for this unit of work
func (u *unitOfWork) RoomRepository() service.RoomRepository {
	if u.roomRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roomRepo
}

// CoinHistoryRepository returns the coin history repository for this unit of work
func (u *unitOfWork) CoinHistoryRepository() service.CoinHistoryRepository {
	if u.coinHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.coinHistoryRepo
}

// GiftRepository returns the gift repository for this unit of work
func (u *unitOfWork) GiftRepository() service.GiftRepository {
	if u.giftRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.giftRepo
}

// StoreItemRepository returns the store item repository for this unit of work
func (u *unitOfWork) StoreItemRepository() service.StoreItemRepository {
	if u.storeItemRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.storeItemRepo
}

// GameSettingsRepository returns the game settings repository for this unit of work
func (u *unitOfWork) GameSettingsRepository() service.GameSettingsRepository {
	if u.gameSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameSettingsRepo
}

// LuckyBagRepository returns the lucky bag repository for this unit of work
func (u *unitOfWork) LuckyBagRepository() service.LuckyBagRepository {
	if u.luckyBagRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.luckyBagRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
