package service

import (
	"fmt"
	"time"

	"vivolive/models"

	"github.com/google/uuid"
)

// ShouldAnnounce decides whether a gift send earns a global banner: any
// lucky win, or a total spend at or above the threshold.
func ShouldAnnounce(totalCost int64, isLuckyWin bool) bool {
	return isLuckyWin || totalCost >= models.AnnounceThreshold
}

// buildGiftAnnouncement assembles the banner for a qualifying gift send.
// A lucky win advertises the refund; a plain big send advertises the spend.
func buildGiftAnnouncement(sender *models.User, room *models.Room, gift *models.Gift, recipientNames []string, totalCost, totalRefund int64, isLuckyWin bool) *models.GlobalAnnouncement {
	announcement := &models.GlobalAnnouncement{
		ID:             uuid.NewString(),
		SenderName:     sender.Name,
		RecipientLabel: models.RecipientLabel(recipientNames),
		RecipientCount: len(recipientNames),
		GiftName:       gift.Name,
		GiftIcon:       gift.Icon,
		RoomID:         room.ID,
		RoomTitle:      room.Title,
		Type:           models.AnnouncementTypeGift,
		Amount:         totalCost,
		Timestamp:      time.Now(),
	}
	if isLuckyWin {
		announcement.Type = models.AnnouncementTypeLuckyWin
		announcement.Amount = totalRefund
	}
	return announcement
}

// buildLuckyBagAnnouncement assembles the banner for a lucky bag drop. Every
// bag gets one; the room title tells viewers where to go claim a share.
func buildLuckyBagAnnouncement(sender *models.User, room *models.Room, totalAmount int64, recipients int) *models.GlobalAnnouncement {
	return &models.GlobalAnnouncement{
		ID:             uuid.NewString(),
		SenderName:     sender.Name,
		RecipientLabel: fmt.Sprintf("%d users", recipients),
		RecipientCount: recipients,
		RoomID:         room.ID,
		RoomTitle:      room.Title,
		Type:           models.AnnouncementTypeLuckyBag,
		Amount:         totalAmount,
		Timestamp:      time.Now(),
	}
}
