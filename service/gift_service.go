package service

import (
	"context"
	"fmt"
	"time"

	"vivolive/events"
	"vivolive/models"
)

// giftService implements the GiftService interface. Sends are serialized
// per sender so rapid combo taps settle one at a time against the balance.
type giftService struct {
	uowFactory  UnitOfWorkFactory
	settings    SettingsProvider
	combos      *ComboTracker
	senderLocks *keyedLock
	roll        randFloat
}

// NewGiftService creates a new gift service
func NewGiftService(uowFactory UnitOfWorkFactory, settings SettingsProvider, combos *ComboTracker) GiftService {
	return newGiftServiceWithRoll(uowFactory, settings, combos, defaultRoll)
}

func newGiftServiceWithRoll(uowFactory UnitOfWorkFactory, settings SettingsProvider, combos *ComboTracker, roll randFloat) *giftService {
	return &giftService{
		uowFactory:  uowFactory,
		settings:    settings,
		combos:      combos,
		senderLocks: newKeyedLock(),
		roll:        roll,
	}
}

// SendGift executes one atomic gift transaction: cost out, wealth up,
// charm to every recipient, and for lucky gifts a per-trial refund draw.
// isCombo marks a repeat press on the combo button, which extends a live
// chain instead of starting one.
func (s *giftService) SendGift(ctx context.Context, senderID string, roomID string, giftID string, quantity int64, recipientIDs []string, isCombo bool) (*models.GiftResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	recipientIDs = dedupe(recipientIDs)
	if len(recipientIDs) == 0 {
		return nil, ErrNoRecipients
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.senderLocks.Lock(senderID)
	defer s.senderLocks.Unlock(senderID)

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

	gift, err := uow.GiftRepository().GetByID(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	recipients, err := uow.UserRepository().GetByIDs(ctx, recipientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}
	if len(recipients) != len(recipientIDs) {
		return nil, fmt.Errorf("%w: %d of %d recipients exist", ErrUserNotFound, len(recipients), len(recipientIDs))
	}

	totalCost := gift.Cost * quantity * int64(len(recipients))
	if !sender.CanAfford(totalCost) {
		// A combo repeat the sender cannot fund ends the chain at once
		if isCombo && s.combos != nil {
			s.combos.Break(senderID, roomID)
		}
		return nil, ErrInsufficientFunds
	}

	// One refund trial per gift unit per recipient
	var totalRefund int64
	var winLabel string
	isLuckyWin := false
	if gift.IsLucky {
		trials := quantity * int64(len(recipients))
		for i := int64(0); i < trials; i++ {
			if !DrawWin(settings.LuckyGiftWinRate, s.roll) {
				continue
			}
			m := PickMultiplier(settings.LuckyMultipliers, s.roll)
			totalRefund += int64(float64(gift.Cost) * m.Value)
			winLabel = m.Label
			isLuckyWin = true
		}
	}

	if err := uow.UserRepository().DeductCoins(ctx, senderID, totalCost); err != nil {
		return nil, fmt.Errorf("failed to deduct gift cost: %w", err)
	}
	if totalRefund > 0 {
		if err := uow.UserRepository().AddCoins(ctx, senderID, totalRefund); err != nil {
			return nil, fmt.Errorf("failed to credit refund: %w", err)
		}
	}
	// Wealth counts the full spend even when luck gives coins back
	if err := uow.UserRepository().AddWealth(ctx, senderID, totalCost); err != nil {
		return nil, fmt.Errorf("failed to add wealth: %w", err)
	}

	charmPerRecipient := gift.Cost * quantity
	recipientNames := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		recipientNames = append(recipientNames, recipient.Name)
		if err := uow.UserRepository().AddCharm(ctx, recipient.ID, charmPerRecipient); err != nil {
			return nil, fmt.Errorf("failed to add charm to %s: %w", recipient.ID, err)
		}
		// Seat snapshots track the counter for live renders
		if err := uow.RoomRepository().AddSpeakerCharm(ctx, roomID, recipient.ID, charmPerRecipient); err != nil {
			return nil, fmt.Errorf("failed to bump seat charm for %s: %w", recipient.ID, err)
		}
	}

	netChange := -totalCost + totalRefund
	history := &models.CoinHistory{
		UserID:          senderID,
		CoinsBefore:     sender.Coins,
		CoinsAfter:      sender.Coins + netChange,
		ChangeAmount:    netChange,
		TransactionType: models.TransactionTypeGiftSent,
		Metadata: map[string]any{
			"gift_id":    giftID,
			"room_id":    roomID,
			"quantity":   quantity,
			"recipients": len(recipients),
			"total_cost": totalCost,
			"refund":     totalRefund,
			"lucky_win":  isLuckyWin,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record gift transaction: %w", err)
	}

	result := &models.GiftResult{
		GiftID:      giftID,
		Quantity:    quantity,
		Recipients:  len(recipients),
		TotalCost:   totalCost,
		TotalRefund: totalRefund,
		IsLuckyWin:  isLuckyWin,
		WinLabel:    winLabel,
		NewCoins:    sender.Coins + netChange,
	}

	if ShouldAnnounce(totalCost, isLuckyWin) {
		announcement := buildGiftAnnouncement(sender, room, gift, recipientNames, totalCost, totalRefund, isLuckyWin)
		result.Announcement = announcement
		uow.EventBus().Publish(events.AnnouncementEvent{Announcement: *announcement})
	}

	uow.EventBus().Publish(events.GiftSentEvent{
		RoomID:         roomID,
		SenderID:       senderID,
		SenderName:     sender.Name,
		RecipientLabel: models.RecipientLabel(recipientNames),
		GiftID:         giftID,
		GiftName:       gift.Name,
		GiftIcon:       gift.Icon,
		Quantity:       quantity,
		TotalCost:      totalCost,
		IsLuckyWin:     isLuckyWin,
		WinLabel:       winLabel,
		TotalRefund:    totalRefund,
	})

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload room: %w", err)
	}
	if updated != nil {
		uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	// Combo state is advisory and in-memory; it moves only after commit
	if s.combos != nil {
		window := time.Duration(settings.ComboDuration * float64(time.Second))
		hit := s.combos.Hit(senderID, roomID, giftID, recipientIDs, quantity, isCombo, window)
		result.ComboCount = hit.Count
		result.ComboExpiresAt = hit.ExpiresAt
	}

	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
