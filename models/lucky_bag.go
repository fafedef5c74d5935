package models

import (
	"time"
)

// LuckyBagExpiry is how long a bag stays claimable before the remainder is
// refunded to the sender.
const LuckyBagExpiry = 10 * time.Minute

// LuckyBag is a pooled coin giveaway claimable by room participants. Shares
// are drawn randomly per claim; the final claim takes the remainder.
type LuckyBag struct {
	ID              string    `db:"id"`
	SenderID        string    `db:"sender_id"`
	SenderName      string    `db:"sender_name"`
	SenderAvatar    string    `db:"sender_avatar"`
	RoomID          string    `db:"room_id"`
	RoomTitle       string    `db:"room_title"`
	TotalAmount     int64     `db:"total_amount"`
	RemainingAmount int64     `db:"remaining_amount"`
	RecipientsLimit int       `db:"recipients_limit"`
	ClaimedBy       []string  `db:"claimed_by"`
	Refunded        bool      `db:"refunded"`
	CreatedAt       time.Time `db:"created_at"`
	ExpiresAt       time.Time `db:"expires_at"`
}

// Exhausted reports whether nothing is left to claim.
func (b *LuckyBag) Exhausted() bool {
	return b.RemainingAmount <= 0 || len(b.ClaimedBy) >= b.RecipientsLimit
}

// Expired reports whether the bag is past its claim window.
func (b *LuckyBag) Expired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}

// HasClaimed reports whether the user already took a share.
func (b *LuckyBag) HasClaimed(userID string) bool {
	for _, id := range b.ClaimedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RemainingClaims is how many claims are still allowed.
func (b *LuckyBag) RemainingClaims() int {
	n := b.RecipientsLimit - len(b.ClaimedBy)
	if n < 0 {
		return 0
	}
	return n
}

// LuckyBagClaim reports one successful claim.
type LuckyBagClaim struct {
	BagID    string
	UserID   string
	Amount   int64
	NewCoins int64
}
