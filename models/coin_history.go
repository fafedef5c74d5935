package models

import (
	"errors"
	"time"
)

// TransactionType represents the kind of coin movement recorded in the ledger.
type TransactionType string

const (
	// Gift sends record one net row for the sender: -totalCost + totalRefund.
	TransactionTypeGiftSent TransactionType = "gift_sent"

	// Game transactions
	TransactionTypeWheelSpin TransactionType = "wheel_spin"
	TransactionTypeSlotsSpin TransactionType = "slots_spin"

	// Lucky bag transactions
	TransactionTypeLuckyBagSent   TransactionType = "lucky_bag_sent"
	TransactionTypeLuckyBagClaim  TransactionType = "lucky_bag_claim"
	TransactionTypeLuckyBagRefund TransactionType = "lucky_bag_refund"

	// Store and system transactions
	TransactionTypeStorePurchase TransactionType = "store_purchase"
	TransactionTypeInitial       TransactionType = "initial"
	TransactionTypeAdminAdjust   TransactionType = "admin_adjust"
)

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}

// IsSystemGenerated returns true for ledger rows not caused by a user action.
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeInitial ||
		tt == TransactionTypeAdminAdjust ||
		tt == TransactionTypeLuckyBagRefund
}

// CoinHistory is a historical coin balance change for one user. Charm and
// wealth are not ledgered here; they are monotonic counters on the user row.
type CoinHistory struct {
	ID              int64           `db:"id"`
	UserID          string          `db:"user_id"`
	CoinsBefore     int64           `db:"coins_before"`
	CoinsAfter      int64           `db:"coins_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Validate performs basic consistency checks on the ledger row.
func (h *CoinHistory) Validate() error {
	if h.CoinsAfter != h.CoinsBefore+h.ChangeAmount {
		return errors.New("coin balance calculation is inconsistent")
	}
	return nil
}
