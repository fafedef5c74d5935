package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(roomID, userID string) *client {
	return &client{
		send:   make(chan []byte, sendBuffer),
		roomID: roomID,
		userID: userID,
	}
}

func receiveFrame(t *testing.T, c *client) envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var frame envelope
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return envelope{}
	}
}

func assertNoFrame(t *testing.T, c *client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomScopedDelivery(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	inRoom := newTestClient("r1", "u1")
	elsewhere := newTestClient("r2", "u2")
	hub.register <- inRoom
	hub.register <- elsewhere

	hub.push("r1", "room_updated", map[string]any{"roomId": "r1"})

	frame := receiveFrame(t, inRoom)
	assert.Equal(t, "room_updated", frame.Type)
	assertNoFrame(t, elsewhere)
}

func TestHub_AnnouncementReachesEveryRoom(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := newTestClient("r1", "u1")
	second := newTestClient("r2", "u2")
	hub.register <- first
	hub.register <- second

	hub.push("", "announcement", map[string]any{"giftName": "Dragon"})

	assert.Equal(t, "announcement", receiveFrame(t, first).Type)
	assert.Equal(t, "announcement", receiveFrame(t, second).Type)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient("r1", "u1")
	hub.register <- c
	hub.unregister <- c

	// The send queue closes on unregister
	select {
	case _, open := <-c.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send queue was not closed")
	}
}

func TestHub_BusSubscription(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	bus := events.NewBus()
	hub.Subscribe(bus)

	c := newTestClient("r1", "u1")
	hub.register <- c

	bus.Emit(context.Background(), events.RoomUpdatedEvent{
		Room: &models.Room{ID: "r1", Title: "Karaoke Night"},
	})

	frame := receiveFrame(t, c)
	assert.Equal(t, "room_updated", frame.Type)

	bus.Emit(context.Background(), events.GiftSentEvent{
		RoomID:     "r1",
		SenderName: "Alice",
		GiftName:   "Rose",
		Quantity:   3,
	})

	frame = receiveFrame(t, c)
	assert.Equal(t, "gift_sent", frame.Type)
}
