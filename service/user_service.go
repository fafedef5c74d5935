package service

import (
	"context"
	"fmt"

	"vivolive/config"
	"vivolive/events"
	"vivolive/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{uowFactory: uowFactory}
}

// GetOrCreateUser retrieves an existing user or bootstraps a new account
// with the starting coin grant.
func (s *userService) GetOrCreateUser(ctx context.Context, id string, name string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		if err := uow.Commit(); err != nil {
			return nil, commitFailed(err)
		}
		return user, nil
	}

	startingCoins := config.Get().StartingCoins
	user, err = uow.UserRepository().Create(ctx, id, name, startingCoins)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &models.CoinHistory{
		UserID:          id,
		CoinsBefore:     0,
		CoinsAfter:      startingCoins,
		ChangeAmount:    startingCoins,
		TransactionType: models.TransactionTypeInitial,
		Metadata: map[string]any{
			"name": name,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial grant: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return user, nil
}

// GetUser retrieves a user, failing if absent
func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return user, nil
}

// UpdateProfile applies a profile patch and re-syncs the denormalized seat
// snapshots in every room where the user is seated.
func (s *userService) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := uow.UserRepository().UpdateProfile(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if err := uow.RoomRepository().UpdateSpeakerProfiles(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to sync seat snapshots: %w", err)
	}

	// Push fresh snapshots of every affected room to connected clients
	roomIDs, err := uow.RoomRepository().RoomIDsWithSpeaker(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find seated rooms: %w", err)
	}
	for _, roomID := range roomIDs {
		room, err := uow.RoomRepository().GetByID(ctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to reload room %s: %w", roomID, err)
		}
		if room != nil {
			uow.EventBus().Publish(events.RoomUpdatedEvent{Room: room})
		}
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	return nil
}

// PurchaseItem buys a store item, deducts its price, adds it to the
// inventory and equips it.
func (s *userService) PurchaseItem(ctx context.Context, userID string, itemID string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	item, err := uow.StoreItemRepository().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	if user.Owns(itemID) {
		return nil, ErrAlreadyOwned
	}
	if !user.CanAfford(item.Price) {
		return nil, ErrInsufficientFunds
	}

	if item.Price > 0 {
		if err := uow.UserRepository().DeductCoins(ctx, userID, item.Price); err != nil {
			return nil, fmt.Errorf("failed to deduct price: %w", err)
		}
	}
	if err := uow.UserRepository().AddOwnedItem(ctx, userID, itemID); err != nil {
		return nil, fmt.Errorf("failed to add item to inventory: %w", err)
	}

	// Purchases equip immediately
	switch item.Type {
	case models.ItemTypeFrame:
		frame := item.URL
		patch := models.ProfilePatch{Frame: &frame}
		if err := uow.UserRepository().UpdateProfile(ctx, userID, patch); err != nil {
			return nil, fmt.Errorf("failed to equip frame: %w", err)
		}
		if err := uow.RoomRepository().UpdateSpeakerProfiles(ctx, userID, patch); err != nil {
			return nil, fmt.Errorf("failed to sync seat snapshots: %w", err)
		}
	case models.ItemTypeBubble:
		if err := uow.UserRepository().SetActiveBubble(ctx, userID, item.URL); err != nil {
			return nil, fmt.Errorf("failed to equip bubble: %w", err)
		}
	}

	history := &models.CoinHistory{
		UserID:          userID,
		CoinsBefore:     user.Coins,
		CoinsAfter:      user.Coins - item.Price,
		ChangeAmount:    -item.Price,
		TransactionType: models.TransactionTypeStorePurchase,
		Metadata: map[string]any{
			"item_id":   itemID,
			"item_type": string(item.Type),
			"price":     item.Price,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	updated, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return updated, nil
}

// GetRankings returns the wealth and charm leaderboards
func (s *userService) GetRankings(ctx context.Context, limit int) ([]*models.User, []*models.User, error) {
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wealth, err := uow.UserRepository().GetTopByWealth(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get wealth ranking: %w", err)
	}
	charm, err := uow.UserRepository().GetTopByCharm(ctx, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get charm ranking: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, commitFailed(err)
	}

	return wealth, charm, nil
}

// GetCoinHistory returns the user's recent ledger entries
func (s *userService) GetCoinHistory(ctx context.Context, userID string, limit int) ([]*models.CoinHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	histories, err := uow.CoinHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin history: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return histories, nil
}
