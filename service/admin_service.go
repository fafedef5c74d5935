package service

import (
	"context"
	"fmt"

	"vivolive/models"

	log "github.com/sirupsen/logrus"
)

// adminService implements the AdminService interface
type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{uowFactory: uowFactory}
}

// requireAdmin loads the caller and fails unless the admin flag is set.
func requireAdmin(ctx context.Context, uow UnitOfWork, adminID string) error {
	admin, err := uow.UserRepository().GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil {
		return ErrUserNotFound
	}
	if !admin.IsAdmin {
		return ErrNotAdmin
	}
	return nil
}

// ListGifts returns the full gift catalog
func (s *adminService) ListGifts(ctx context.Context) ([]*models.Gift, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gifts, err := uow.GiftRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return gifts, nil
}

// UpsertGift creates or updates a gift catalog entry; admin only
func (s *adminService) UpsertGift(ctx context.Context, adminID string, gift *models.Gift) error {
	if gift.ID == "" || gift.Name == "" {
		return fmt.Errorf("gift ID and name are required")
	}
	if gift.Cost <= 0 {
		return fmt.Errorf("gift cost must be positive, got %d", gift.Cost)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	if err := uow.GiftRepository().Upsert(ctx, gift); err != nil {
		return fmt.Errorf("failed to upsert gift %s: %w", gift.ID, err)
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	log.WithFields(log.Fields{
		"adminId": adminID,
		"giftId":  gift.ID,
		"cost":    gift.Cost,
	}).Info("Gift catalog entry saved")

	return nil
}

// DeleteGift removes a gift catalog entry; admin only
func (s *adminService) DeleteGift(ctx context.Context, adminID string, giftID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	if err := uow.GiftRepository().Delete(ctx, giftID); err != nil {
		return fmt.Errorf("failed to delete gift %s: %w", giftID, err)
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	return nil
}

// ListStoreItems returns the full cosmetics catalog
func (s *adminService) ListStoreItems(ctx context.Context) ([]*models.StoreItem, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	items, err := uow.StoreItemRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return items, nil
}

// UpsertStoreItem creates or updates a cosmetics entry; admin only
func (s *adminService) UpsertStoreItem(ctx context.Context, adminID string, item *models.StoreItem) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	if err := uow.StoreItemRepository().Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to upsert store item %s: %w", item.ID, err)
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	return nil
}

// DeleteStoreItem removes a cosmetics entry; admin only
func (s *adminService) DeleteStoreItem(ctx context.Context, adminID string, itemID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	if err := uow.StoreItemRepository().Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete store item %s: %w", itemID, err)
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	return nil
}

// SetBanned toggles another user's ban flag; admin only
func (s *adminService) SetBanned(ctx context.Context, adminID string, userID string, banned bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := uow.UserRepository().SetBanned(ctx, userID, banned); err != nil {
		return fmt.Errorf("failed to set ban flag: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	log.WithFields(log.Fields{
		"adminId": adminID,
		"userId":  userID,
		"banned":  banned,
	}).Info("User ban flag changed")

	return nil
}

// AdjustCoins credits or debits a user's balance by hand; admin only.
// Debits past zero fail like any other deduction.
func (s *adminService) AdjustCoins(ctx context.Context, adminID string, userID string, delta int64, reason string) (*models.User, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if delta > 0 {
		if err := uow.UserRepository().AddCoins(ctx, userID, delta); err != nil {
			return nil, fmt.Errorf("failed to credit coins: %w", err)
		}
	} else {
		if !user.CanAfford(-delta) {
			return nil, ErrInsufficientFunds
		}
		if err := uow.UserRepository().DeductCoins(ctx, userID, -delta); err != nil {
			return nil, fmt.Errorf("failed to debit coins: %w", err)
		}
	}

	history := &models.CoinHistory{
		UserID:          userID,
		CoinsBefore:     user.Coins,
		CoinsAfter:      user.Coins + delta,
		ChangeAmount:    delta,
		TransactionType: models.TransactionTypeAdminAdjust,
		Metadata: map[string]any{
			"admin_id": adminID,
			"reason":   reason,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record adjustment: %w", err)
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
