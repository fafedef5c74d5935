package service

import (
	"context"
	"time"

	"vivolive/events"
	"vivolive/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDs retrieves multiple users at once, preserving only found rows
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// Create creates a new user with the initial coin balance
	Create(ctx context.Context, id string, name string, initialCoins int64) (*models.User, error)

	// AddCoins adds to a user's spendable balance atomically
	AddCoins(ctx context.Context, id string, amount int64) error

	// DeductCoins deducts from a user's balance atomically, failing if insufficient funds
	DeductCoins(ctx context.Context, id string, amount int64) error

	// AddWealth bumps the lifetime coins-spent counter
	AddWealth(ctx context.Context, id string, amount int64) error

	// AddCharm bumps the lifetime gift-value-received counter
	AddCharm(ctx context.Context, id string, amount int64) error

	// UpdateProfile applies a partial profile update
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error

	// AddOwnedItem appends a store item to the user's inventory
	AddOwnedItem(ctx context.Context, id string, itemID string) error

	// SetActiveBubble equips a chat bubble cosmetic
	SetActiveBubble(ctx context.Context, id string, bubble string) error

	// SetBanned toggles the ban flag
	SetBanned(ctx context.Context, id string, banned bool) error

	// GetTopByWealth returns the wealth ranking
	GetTopByWealth(ctx context.Context, limit int) ([]*models.User, error)

	// GetTopByCharm returns the charm ranking
	GetTopByCharm(ctx context.Context, limit int) ([]*models.User, error)
}

// RoomRepository defines the interface for room and seat data access
type RoomRepository interface {
	// Create persists a new room
	Create(ctx context.Context, room *models.Room) error

	// GetByID retrieves a room with its speakers, or nil if absent
	GetByID(ctx context.Context, id string) (*models.Room, error)

	// GetAll returns all live rooms with speakers loaded
	GetAll(ctx context.Context) ([]*models.Room, error)

	// Update persists room-level fields (title, background, lock, listeners)
	Update(ctx context.Context, room *models.Room) error

	// AddListeners adjusts the approximate listener counter
	AddListeners(ctx context.Context, id string, delta int) error

	// UpsertSpeaker seats a user, replacing any prior seat entry they hold
	UpsertSpeaker(ctx context.Context, roomID string, speaker models.Speaker) error

	// RemoveSpeaker frees whatever seat the user occupies
	RemoveSpeaker(ctx context.Context, roomID string, userID string) error

	// AddSpeakerCharm bumps the denormalized charm on a seat snapshot
	AddSpeakerCharm(ctx context.Context, roomID string, userID string, delta int64) error

	// SetSpeakerMuted toggles the mute flag on a seat snapshot
	SetSpeakerMuted(ctx context.Context, roomID string, userID string, muted bool) error

	// SetSpeakerEmoji sets or clears the active emoji on a seat snapshot
	SetSpeakerEmoji(ctx context.Context, roomID string, userID string, emoji string) error

	// UpdateSpeakerProfiles re-syncs profile fields into every seat the user holds
	UpdateSpeakerProfiles(ctx context.Context, userID string, patch models.ProfilePatch) error

	// RoomIDsWithSpeaker returns the rooms where the user currently holds a seat
	RoomIDsWithSpeaker(ctx context.Context, userID string) ([]string, error)

	// Delete removes the room and cascades its speakers
	Delete(ctx context.Context, id string) error
}

// CoinHistoryRepository defines the interface for the coin ledger
type CoinHistoryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, history *models.CoinHistory) error

	// GetByUser returns ledger entries for a user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.CoinHistory, error)

	// GetByDateRange returns ledger entries within a date range
	GetByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.CoinHistory, error)
}

// GiftRepository defines the interface for the gift catalog
type GiftRepository interface {
	// GetByID retrieves a gift by ID, or nil if absent
	GetByID(ctx context.Context, id string) (*models.Gift, error)

	// GetAll returns the full catalog
	GetAll(ctx context.Context) ([]*models.Gift, error)

	// Upsert creates or updates a catalog entry
	Upsert(ctx context.Context, gift *models.Gift) error

	// Delete removes a catalog entry
	Delete(ctx context.Context, id string) error
}

// StoreItemRepository defines the interface for the cosmetics catalog
type StoreItemRepository interface {
	GetByID(ctx context.Context, id string) (*models.StoreItem, error)
	GetAll(ctx context.Context) ([]*models.StoreItem, error)
	Upsert(ctx context.Context, item *models.StoreItem) error
	Delete(ctx context.Context, id string) error
}

// GameSettingsRepository defines the interface for the tuning singleton
type GameSettingsRepository interface {
	// Get retrieves the settings document, or nil if never written
	Get(ctx context.Context) (*models.GameSettings, error)

	// Save upserts the settings document and bumps its version
	Save(ctx context.Context, settings *models.GameSettings) error
}

// LuckyBagRepository defines the interface for lucky bag data access
type LuckyBagRepository interface {
	// Create persists a new bag
	Create(ctx context.Context, bag *models.LuckyBag) error

	// GetForUpdate retrieves a bag with a row lock held for the transaction
	GetForUpdate(ctx context.Context, id string) (*models.LuckyBag, error)

	// RecordClaim appends a claimer and deducts their share from the pool
	RecordClaim(ctx context.Context, bagID string, userID string, amount int64) error

	// GetExpired returns unrefunded bags past their claim window
	GetExpired(ctx context.Context, now time.Time) ([]*models.LuckyBag, error)

	// MarkRefunded flags a bag so the expiry sweep never pays it twice
	MarkRefunded(ctx context.Context, id string) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// SettingsProvider serves the current game settings to transaction paths.
type SettingsProvider interface {
	// Current returns the live settings, substituting defaults when the
	// document is missing
	Current(ctx context.Context) (models.GameSettings, error)
}

// UserService defines the interface for account operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or bootstraps a new account
	GetOrCreateUser(ctx context.Context, id string, name string) (*models.User, error)

	// GetUser retrieves a user, failing if absent
	GetUser(ctx context.Context, id string) (*models.User, error)

	// UpdateProfile applies a profile patch and re-syncs seat snapshots
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error

	// PurchaseItem buys a store item and equips it
	PurchaseItem(ctx context.Context, userID string, itemID string) (*models.User, error)

	// GetRankings returns the wealth and charm leaderboards
	GetRankings(ctx context.Context, limit int) (wealth []*models.User, charm []*models.User, err error)

	// GetCoinHistory returns the user's recent ledger entries
	GetCoinHistory(ctx context.Context, userID string, limit int) ([]*models.CoinHistory, error)
}

// RoomService defines the interface for room and seat operations
type RoomService interface {
	// CreateRoom opens a new room hosted by the given user
	CreateRoom(ctx context.Context, hostID string, title string, background string) (*models.Room, error)

	// GetRoom retrieves a room by ID
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// ListRooms returns all live rooms
	ListRooms(ctx context.Context) ([]*models.Room, error)

	// EnterRoom records a listener entering; fails if the room is locked
	// and the user is not the host
	EnterRoom(ctx context.Context, roomID string, userID string) (*models.Room, error)

	// LeaveRoom records a listener or speaker leaving; a host leaving
	// deletes the room
	LeaveRoom(ctx context.Context, roomID string, userID string) error

	// JoinSeat handles a seat click: claim, reseat, or profile-open
	JoinSeat(ctx context.Context, roomID string, userID string, seatIndex int) (*models.SeatChange, error)

	// LeaveSeat frees the user's seat without leaving the room
	LeaveSeat(ctx context.Context, roomID string, userID string) (*models.Room, error)

	// SetMuted toggles the user's own mute flag
	SetMuted(ctx context.Context, roomID string, userID string, muted bool) error

	// SetEmoji plays an emoji on the user's seat for the configured duration
	SetEmoji(ctx context.Context, roomID string, userID string, emoji string) error

	// SetLocked toggles the room lock; host only
	SetLocked(ctx context.Context, roomID string, userID string, locked bool) error
}

// GiftService defines the interface for gift transactions
type GiftService interface {
	// SendGift executes one atomic gift transaction; isCombo marks a
	// repeat press that extends a live combo chain
	SendGift(ctx context.Context, senderID string, roomID string, giftID string, quantity int64, recipientIDs []string, isCombo bool) (*models.GiftResult, error)
}

// GameService defines the interface for the coin mini-games
type GameService interface {
	// Spin plays one round of the wheel or slots for the given bet
	Spin(ctx context.Context, userID string, game models.Game, bet int64) (*models.SpinResult, error)
}

// LuckyBagService defines the interface for pooled coin giveaways
type LuckyBagService interface {
	// Send creates a bag funded from the sender's balance
	Send(ctx context.Context, senderID string, roomID string, totalAmount int64, recipients int) (*models.LuckyBag, error)

	// Claim takes a random share for the claimer
	Claim(ctx context.Context, bagID string, userID string) (*models.LuckyBagClaim, error)

	// ExpireOverdue refunds the remainder of every bag past its window
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// AdminService defines the interface for catalog management and moderation
type AdminService interface {
	// ListGifts returns the full gift catalog
	ListGifts(ctx context.Context) ([]*models.Gift, error)

	// UpsertGift creates or updates a gift catalog entry; admin only
	UpsertGift(ctx context.Context, adminID string, gift *models.Gift) error

	// DeleteGift removes a gift catalog entry; admin only
	DeleteGift(ctx context.Context, adminID string, giftID string) error

	// ListStoreItems returns the full cosmetics catalog
	ListStoreItems(ctx context.Context) ([]*models.StoreItem, error)

	// UpsertStoreItem creates or updates a cosmetics entry; admin only
	UpsertStoreItem(ctx context.Context, adminID string, item *models.StoreItem) error

	// DeleteStoreItem removes a cosmetics entry; admin only
	DeleteStoreItem(ctx context.Context, adminID string, itemID string) error

	// SetBanned toggles another user's ban flag; admin only
	SetBanned(ctx context.Context, adminID string, userID string, banned bool) error

	// AdjustCoins credits or debits a balance by hand; admin only
	AdjustCoins(ctx context.Context, adminID string, userID string, delta int64, reason string) (*models.User, error)
}

// SettingsService defines the interface for reading and tuning game settings
type SettingsService interface {
	SettingsProvider

	// Update validates and persists new settings; admin only
	Update(ctx context.Context, adminID string, settings models.GameSettings) (*models.GameSettings, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	RoomRepository() RoomRepository
	CoinHistoryRepository() CoinHistoryRepository
	GiftRepository() GiftRepository
	StoreItemRepository() StoreItemRepository
	GameSettingsRepository() GameSettingsRepository
	LuckyBagRepository() LuckyBagRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
