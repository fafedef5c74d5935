package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP statuses; everything else surfaces as a 500.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserBanned           = errors.New("user is banned")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomLocked           = errors.New("room is locked")
	ErrNotHost              = errors.New("only the host may do this")
	ErrNotSeated            = errors.New("user does not hold a seat")
	ErrInvalidSeat          = errors.New("seat index out of range")
	ErrGiftNotFound         = errors.New("gift not found")
	ErrItemNotFound         = errors.New("store item not found")
	ErrAlreadyOwned         = errors.New("item already owned")
	ErrNoRecipients         = errors.New("gift has no recipients")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInsufficientFunds    = errors.New("insufficient coins")
	ErrBagNotFound          = errors.New("lucky bag not found")
	ErrBagExhausted         = errors.New("lucky bag is exhausted")
	ErrBagExpired           = errors.New("lucky bag has expired")
	ErrAlreadyClaimed       = errors.New("lucky bag already claimed by user")
	ErrNotAdmin             = errors.New("admin privileges required")
	ErrConfigurationMissing = errors.New("game settings not configured")
	ErrTransactionFailed    = errors.New("transaction failed")
)

// commitFailed tags a commit error so callers can tell a transaction that
// died at the final step from a validation failure.
func commitFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}
