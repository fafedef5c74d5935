package models

import (
	"fmt"
	"time"
)

// AnnouncementType tags what a global banner reports.
type AnnouncementType string

const (
	AnnouncementTypeGift     AnnouncementType = "gift"
	AnnouncementTypeLuckyWin AnnouncementType = "lucky_win"
	AnnouncementTypeLuckyBag AnnouncementType = "lucky_bag"
)

// AnnounceThreshold is the minimum total gift cost that triggers a global
// announcement on its own.
const AnnounceThreshold = 2000

// GlobalAnnouncement is an ephemeral broadcast record consumed once by the
// banner; it is never persisted. Amount carries the refund for lucky wins
// and the spend for everything else.
type GlobalAnnouncement struct {
	ID             string           `json:"id"`
	SenderName     string           `json:"senderName"`
	RecipientLabel string           `json:"recipientLabel"`
	RecipientCount int              `json:"recipientCount"`
	GiftName       string           `json:"giftName"`
	GiftIcon       string           `json:"giftIcon"`
	RoomID         string           `json:"roomId"`
	RoomTitle      string           `json:"roomTitle"`
	Type           AnnouncementType `json:"type"`
	Amount         int64            `json:"amount"`
	Timestamp      time.Time        `json:"timestamp"`
}

// RecipientLabel renders a recipient set for display: the single recipient's
// name, or a count when a send fans out to several users.
func RecipientLabel(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return fmt.Sprintf("%d users", len(names))
}
