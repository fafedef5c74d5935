package events

import (
	"context"
	"sync"

	"vivolive/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCoinChange   EventType = "coin_change"
	EventTypeUserCreated  EventType = "user_created"
	EventTypeGiftSent     EventType = "gift_sent"
	EventTypeRoomUpdated  EventType = "room_updated"
	EventTypeRoomDeleted  EventType = "room_deleted"
	EventTypeSeatTaken    EventType = "seat_taken"
	EventTypeAnnouncement EventType = "announcement"
	EventTypeLuckyBag     EventType = "lucky_bag"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CoinChangeEvent represents a coin balance change that occurred
type CoinChangeEvent struct {
	UserID          string
	OldCoins        int64
	NewCoins        int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e CoinChangeEvent) Type() EventType {
	return EventTypeCoinChange
}

// UserCreatedEvent represents a new account bootstrap
type UserCreatedEvent struct {
	UserID       string
	Name         string
	InitialCoins int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// GiftSentEvent represents a committed gift transaction; the room chat
// message and seat charm refresh are driven from it.
type GiftSentEvent struct {
	RoomID         string
	SenderID       string
	SenderName     string
	RecipientLabel string
	GiftID         string
	GiftName       string
	GiftIcon       string
	Quantity       int64
	TotalCost      int64
	IsLuckyWin     bool
	WinLabel       string
	TotalRefund    int64
}

func (e GiftSentEvent) Type() EventType {
	return EventTypeGiftSent
}

// RoomUpdatedEvent carries the full room snapshot after any room mutation.
// Subscribers receive current state, not a diff.
type RoomUpdatedEvent struct {
	Room *models.Room
}

func (e RoomUpdatedEvent) Type() EventType {
	return EventTypeRoomUpdated
}

// RoomDeletedEvent fires when the host leaves and the room cascades away.
type RoomDeletedEvent struct {
	RoomID string
}

func (e RoomDeletedEvent) Type() EventType {
	return EventTypeRoomDeleted
}

// SeatTakenEvent fires only on first-time seating, not on a reseat.
type SeatTakenEvent struct {
	RoomID    string
	UserID    string
	UserName  string
	SeatIndex int
}

func (e SeatTakenEvent) Type() EventType {
	return EventTypeSeatTaken
}

// AnnouncementEvent carries a global banner to every connected client.
type AnnouncementEvent struct {
	Announcement models.GlobalAnnouncement
}

func (e AnnouncementEvent) Type() EventType {
	return EventTypeAnnouncement
}

// LuckyBagEvent fires when a bag is created or claimed.
type LuckyBagEvent struct {
	BagID     string
	RoomID    string
	SenderID  string
	ClaimedBy string // empty on creation
	Amount    int64
	Remaining int64
}

func (e LuckyBagEvent) Type() EventType {
	return EventTypeLuckyBag
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the DB commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits the stashed events; called after a successful DB commit.
// Events are emitted on a background context so they outlive the
// transaction's deadline.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops the stashed events; called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
