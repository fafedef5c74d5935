package service

import (
	"context"
	"fmt"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// luckyBagService implements the LuckyBagService interface. Claim shares
// are drawn randomly; the final claim sweeps the remainder, and anything
// left after the window goes back to the sender.
type luckyBagService struct {
	uowFactory UnitOfWorkFactory
	roll       randFloat
}

// NewLuckyBagService creates a new lucky bag service
func NewLuckyBagService(uowFactory UnitOfWorkFactory) LuckyBagService {
	return newLuckyBagServiceWithRoll(uowFactory, defaultRoll)
}

func newLuckyBagServiceWithRoll(uowFactory UnitOfWorkFactory, roll randFloat) *luckyBagService {
	return &luckyBagService{
		uowFactory: uowFactory,
		roll:       roll,
	}
}

// Send creates a bag funded from the sender's balance
func (s *luckyBagService) Send(ctx context.Context, senderID string, roomID string, totalAmount int64, recipients int) (*models.LuckyBag, error) {
	if totalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if recipients <= 0 || int64(recipients) > totalAmount {
		return nil, fmt.Errorf("recipients must be between 1 and the total amount")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sender, err := uow.UserRepository().GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	if sender.IsBanned {
		return nil, ErrUserBanned
	}
	if !sender.CanAfford(totalAmount) {
		return nil, ErrInsufficientFunds
	}

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if err := uow.UserRepository().DeductCoins(ctx, senderID, totalAmount); err != nil {
		return nil, fmt.Errorf("failed to fund lucky bag: %w", err)
	}
	// Wealth counts the full drop like any other gift spend
	if err := uow.UserRepository().AddWealth(ctx, senderID, totalAmount); err != nil {
		return nil, fmt.Errorf("failed to add wealth: %w", err)
	}

	now := time.Now()
	bag := &models.LuckyBag{
		ID:              uuid.NewString(),
		SenderID:        senderID,
		SenderName:      sender.Name,
		SenderAvatar:    sender.Avatar,
		RoomID:          roomID,
		RoomTitle:       room.Title,
		TotalAmount:     totalAmount,
		RemainingAmount: totalAmount,
		RecipientsLimit: recipients,
		ClaimedBy:       []string{},
		ExpiresAt:       now.Add(models.LuckyBagExpiry),
	}
	if err := uow.LuckyBagRepository().Create(ctx, bag); err != nil {
		return nil, fmt.Errorf("failed to create lucky bag: %w", err)
	}

	history := &models.CoinHistory{
		UserID:          senderID,
		CoinsBefore:     sender.Coins,
		CoinsAfter:      sender.Coins - totalAmount,
		ChangeAmount:    -totalAmount,
		TransactionType: models.TransactionTypeLuckyBagSent,
		Metadata: map[string]any{
			"bag_id":     bag.ID,
			"room_id":    roomID,
			"recipients": recipients,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record lucky bag send: %w", err)
	}

	uow.EventBus().Publish(events.LuckyBagEvent{
		BagID:     bag.ID,
		RoomID:    roomID,
		SenderID:  senderID,
		Amount:    totalAmount,
		Remaining: totalAmount,
	})
	announcement := buildLuckyBagAnnouncement(sender, room, totalAmount, recipients)
	uow.EventBus().Publish(events.AnnouncementEvent{Announcement: *announcement})

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return bag, nil
}

// Claim takes a random share for the claimer. The bag row lock serializes
// concurrent claims, so the checks below hold when the update lands.
func (s *luckyBagService) Claim(ctx context.Context, bagID string, userID string) (*models.LuckyBagClaim, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bag, err := uow.LuckyBagRepository().GetForUpdate(ctx, bagID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lucky bag: %w", err)
	}
	if bag == nil {
		return nil, ErrBagNotFound
	}
	if bag.Refunded || bag.Expired(time.Now()) {
		return nil, ErrBagExpired
	}
	if bag.HasClaimed(userID) {
		return nil, ErrAlreadyClaimed
	}
	if bag.Exhausted() {
		return nil, ErrBagExhausted
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}

	amount := s.drawShare(bag.RemainingAmount, bag.RemainingClaims())

	if err := uow.LuckyBagRepository().RecordClaim(ctx, bagID, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}
	if err := uow.UserRepository().AddCoins(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit claim: %w", err)
	}

	history := &models.CoinHistory{
		UserID:          userID,
		CoinsBefore:     user.Coins,
		CoinsAfter:      user.Coins + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeLuckyBagClaim,
		Metadata: map[string]any{
			"bag_id":  bagID,
			"room_id": bag.RoomID,
			"sender":  bag.SenderID,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record claim transaction: %w", err)
	}

	uow.EventBus().Publish(events.LuckyBagEvent{
		BagID:     bagID,
		RoomID:    bag.RoomID,
		SenderID:  bag.SenderID,
		ClaimedBy: userID,
		Amount:    amount,
		Remaining: bag.RemainingAmount - amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return &models.LuckyBagClaim{
		BagID:    bagID,
		UserID:   userID,
		Amount:   amount,
		NewCoins: user.Coins + amount,
	}, nil
}

// drawShare picks a random share that always leaves at least one coin per
// remaining claimer. The final claim takes everything left.
func (s *luckyBagService) drawShare(remaining int64, claimsLeft int) int64 {
	if claimsLeft <= 1 {
		return remaining
	}

	// Standard double-average draw: uniform in [1, 2*remaining/claimsLeft]
	max := remaining * 2 / int64(claimsLeft)
	if max < 1 {
		max = 1
	}
	amount := 1 + int64(s.roll()*float64(max))

	ceiling := remaining - int64(claimsLeft-1)
	if amount > ceiling {
		amount = ceiling
	}
	if amount < 1 {
		amount = 1
	}
	return amount
}

// ExpireOverdue refunds the remainder of every bag past its window.
// Runs from a background worker; each bag refunds in its own transaction
// so one failure does not stall the sweep.
func (s *luckyBagService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	expired, err := uow.LuckyBagRepository().GetExpired(ctx, now)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bags: %w", err)
	}

	refunded := 0
	for _, bag := range expired {
		if err := s.refundBag(ctx, bag.ID); err != nil {
			log.WithError(err).WithField("bagId", bag.ID).Error("Failed to refund expired lucky bag")
			continue
		}
		refunded++
	}

	return refunded, nil
}

func (s *luckyBagService) refundBag(ctx context.Context, bagID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Re-check under the row lock; a racing claim may have emptied it
	bag, err := uow.LuckyBagRepository().GetForUpdate(ctx, bagID)
	if err != nil {
		return fmt.Errorf("failed to get bag: %w", err)
	}
	if bag == nil || bag.Refunded {
		return nil
	}

	if err := uow.LuckyBagRepository().MarkRefunded(ctx, bagID); err != nil {
		return fmt.Errorf("failed to mark refunded: %w", err)
	}

	if bag.RemainingAmount > 0 {
		sender, err := uow.UserRepository().GetByID(ctx, bag.SenderID)
		if err != nil {
			return fmt.Errorf("failed to get sender: %w", err)
		}
		if sender != nil {
			if err := uow.UserRepository().AddCoins(ctx, bag.SenderID, bag.RemainingAmount); err != nil {
				return fmt.Errorf("failed to refund sender: %w", err)
			}

			history := &models.CoinHistory{
				UserID:          bag.SenderID,
				CoinsBefore:     sender.Coins,
				CoinsAfter:      sender.Coins + bag.RemainingAmount,
				ChangeAmount:    bag.RemainingAmount,
				TransactionType: models.TransactionTypeLuckyBagRefund,
				Metadata: map[string]any{
					"bag_id": bagID,
				},
			}
			if err := RecordCoinChange(ctx, uow, history); err != nil {
				return fmt.Errorf("failed to record refund: %w", err)
			}
		}
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}
	return nil
}
