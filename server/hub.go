package server

import (
	"context"
	"encoding/json"

	"vivolive/events"

	log "github.com/sirupsen/logrus"
)

const broadcastBuffer = 1024

// envelope is the wire frame for every websocket push.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// outbound is a marshaled frame addressed to one room, or to every
// connected client when RoomID is empty.
type outbound struct {
	RoomID string
	Data   []byte
}

// Hub fans event bus traffic out to websocket clients grouped by room.
// All map access happens on the Run goroutine; handlers and clients talk
// to it over channels.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan outbound

	rooms map[string]map[*client]struct{}
}

// NewHub creates a new hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, broadcastBuffer),
		rooms:      make(map[string]map[*client]struct{}),
	}
}

// Subscribe wires the hub to the event bus. Room-scoped events go to the
// room's clients; announcements go to everyone.
func (h *Hub) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRoomUpdated, func(ctx context.Context, e events.Event) {
		ev := e.(events.RoomUpdatedEvent)
		h.push(ev.Room.ID, "room_updated", map[string]any{"room": ev.Room})
	})

	bus.Subscribe(events.EventTypeRoomDeleted, func(ctx context.Context, e events.Event) {
		ev := e.(events.RoomDeletedEvent)
		h.push(ev.RoomID, "room_deleted", map[string]any{"roomId": ev.RoomID})
	})

	bus.Subscribe(events.EventTypeSeatTaken, func(ctx context.Context, e events.Event) {
		ev := e.(events.SeatTakenEvent)
		h.push(ev.RoomID, "seat_taken", map[string]any{
			"roomId":    ev.RoomID,
			"userId":    ev.UserID,
			"userName":  ev.UserName,
			"seatIndex": ev.SeatIndex,
		})
	})

	bus.Subscribe(events.EventTypeGiftSent, func(ctx context.Context, e events.Event) {
		ev := e.(events.GiftSentEvent)
		h.push(ev.RoomID, "gift_sent", map[string]any{
			"roomId":         ev.RoomID,
			"senderId":       ev.SenderID,
			"senderName":     ev.SenderName,
			"recipientLabel": ev.RecipientLabel,
			"giftId":         ev.GiftID,
			"giftName":       ev.GiftName,
			"giftIcon":       ev.GiftIcon,
			"quantity":       ev.Quantity,
			"totalCost":      ev.TotalCost,
			"isLuckyWin":     ev.IsLuckyWin,
			"winLabel":       ev.WinLabel,
			"totalRefund":    ev.TotalRefund,
		})
	})

	bus.Subscribe(events.EventTypeLuckyBag, func(ctx context.Context, e events.Event) {
		ev := e.(events.LuckyBagEvent)
		h.push(ev.RoomID, "lucky_bag", map[string]any{
			"bagId":     ev.BagID,
			"roomId":    ev.RoomID,
			"senderId":  ev.SenderID,
			"claimedBy": ev.ClaimedBy,
			"amount":    ev.Amount,
			"remaining": ev.Remaining,
		})
	})

	bus.Subscribe(events.EventTypeAnnouncement, func(ctx context.Context, e events.Event) {
		ev := e.(events.AnnouncementEvent)
		h.push("", "announcement", ev.Announcement)
	})
}

// push marshals a frame and queues it for delivery. Frames are dropped when
// the broadcast channel is full rather than blocking an event handler.
func (h *Hub) push(roomID string, frameType string, payload any) {
	data, err := json.Marshal(envelope{Type: frameType, Payload: payload})
	if err != nil {
		log.WithError(err).WithField("frameType", frameType).Error("Failed to marshal websocket frame")
		return
	}

	select {
	case h.broadcast <- outbound{RoomID: roomID, Data: data}:
	default:
		log.WithFields(log.Fields{
			"frameType": frameType,
			"roomId":    roomID,
		}).Warn("Hub broadcast channel full, dropping frame")
	}
}

// Run is the hub's event loop. It exits when the context is canceled,
// closing every client send queue.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			clients, ok := h.rooms[c.roomID]
			if !ok {
				clients = make(map[*client]struct{})
				h.rooms[c.roomID] = clients
			}
			clients[c] = struct{}{}

			log.WithFields(log.Fields{
				"userId":  c.userID,
				"roomId":  c.roomID,
				"clients": len(clients),
			}).Debug("Websocket client registered")

		case c := <-h.unregister:
			if clients, ok := h.rooms[c.roomID]; ok {
				if _, present := clients[c]; present {
					delete(clients, c)
					close(c.send)
				}
				if len(clients) == 0 {
					delete(h.rooms, c.roomID)
				}
			}

		case frame := <-h.broadcast:
			if frame.RoomID == "" {
				for _, clients := range h.rooms {
					h.deliver(clients, frame.Data)
				}
				continue
			}
			if clients, ok := h.rooms[frame.RoomID]; ok {
				h.deliver(clients, frame.Data)
			}

		case <-ctx.Done():
			for roomID, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, roomID)
			}
			return
		}
	}
}

// deliver queues a frame on every client, disconnecting clients whose send
// queue is full.
func (h *Hub) deliver(clients map[*client]struct{}, data []byte) {
	for c := range clients {
		select {
		case c.send <- data:
		default:
			log.WithFields(log.Fields{
				"userId": c.userID,
				"roomId": c.roomID,
			}).Warn("Client send queue full, disconnecting")
			delete(clients, c)
			close(c.send)
		}
	}
}
