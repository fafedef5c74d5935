package service

import (
	"context"
	"testing"

	"vivolive/events"
	"vivolive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func roomTestSettings() SettingsProvider {
	return &staticSettings{models.DefaultGameSettings()}
}

func TestRoomService_JoinSeat(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{ID: "alice", Name: "Alice", Charm: 500}

	t.Run("claiming an empty seat", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", Speakers: []models.Speaker{}}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "alice").Return(alice, nil)
		uow.rooms.On("UpsertSpeaker", mock.Anything, "room-1", mock.Anything).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		change, err := svc.JoinSeat(ctx, "room-1", "alice", 3)
		require.NoError(t, err)

		assert.Nil(t, change.Occupant)
		assert.True(t, change.FirstSeat)

		// The seat snapshot carries the user's live charm
		uow.rooms.AssertCalled(t, "UpsertSpeaker", mock.Anything, "room-1", mock.MatchedBy(func(sp models.Speaker) bool {
			return sp.UserID == "alice" && sp.SeatIndex == 3 && sp.Charm == 500 && !sp.IsMuted
		}))

		// First-time seating fires the one-time notice
		assert.Len(t, uow.bus.eventsOfType(events.EventTypeSeatTaken), 1)
	})

	t.Run("clicking an occupied seat opens the profile and mutates nothing", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", Speakers: []models.Speaker{
			{UserID: "bob", Name: "Bob", SeatIndex: 3},
		}}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		change, err := svc.JoinSeat(ctx, "room-1", "alice", 3)
		require.NoError(t, err)

		require.NotNil(t, change.Occupant)
		assert.Equal(t, "bob", change.Occupant.UserID)
		uow.rooms.AssertNotCalled(t, "UpsertSpeaker", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, uow.bus.published)
	})

	t.Run("reseat carries mute state and is not a first seat", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", Speakers: []models.Speaker{
			{UserID: "alice", Name: "Alice", SeatIndex: 1, IsMuted: true, Charm: 900},
		}}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "alice").Return(alice, nil)
		uow.rooms.On("UpsertSpeaker", mock.Anything, "room-1", mock.Anything).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		change, err := svc.JoinSeat(ctx, "room-1", "alice", 5)
		require.NoError(t, err)

		assert.False(t, change.FirstSeat)
		uow.rooms.AssertCalled(t, "UpsertSpeaker", mock.Anything, "room-1", mock.MatchedBy(func(sp models.Speaker) bool {
			return sp.SeatIndex == 5 && sp.IsMuted && sp.Charm == 900
		}))
		assert.Empty(t, uow.bus.eventsOfType(events.EventTypeSeatTaken))
	})

	t.Run("seat index bounds", func(t *testing.T) {
		svc := NewRoomService(&mockUowFactory{newMockUnitOfWork()}, roomTestSettings())

		_, err := svc.JoinSeat(ctx, "room-1", "alice", -1)
		assert.ErrorIs(t, err, ErrInvalidSeat)

		_, err = svc.JoinSeat(ctx, "room-1", "alice", models.SeatCount)
		assert.ErrorIs(t, err, ErrInvalidSeat)
	})

	t.Run("banned user cannot take a seat", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host"}
		banned := &models.User{ID: "alice", IsBanned: true}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "alice").Return(banned, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		_, err := svc.JoinSeat(ctx, "room-1", "alice", 0)
		assert.ErrorIs(t, err, ErrUserBanned)
	})

	t.Run("locked room keeps non-hosts off empty seats", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", IsLocked: true, Speakers: []models.Speaker{}}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "alice").Return(alice, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		_, err := svc.JoinSeat(ctx, "room-1", "alice", 2)
		assert.ErrorIs(t, err, ErrRoomLocked)
		uow.rooms.AssertNotCalled(t, "UpsertSpeaker", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("host and admins sit in locked rooms", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", IsLocked: true, Speakers: []models.Speaker{}}
		host := &models.User{ID: "host", Name: "Host"}
		mod := &models.User{ID: "mod", Name: "Mod", IsAdmin: true}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "host").Return(host, nil)
		uow.users.On("GetByID", mock.Anything, "mod").Return(mod, nil)
		uow.rooms.On("UpsertSpeaker", mock.Anything, "room-1", mock.Anything).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		_, err := svc.JoinSeat(ctx, "room-1", "host", 0)
		require.NoError(t, err)
		_, err = svc.JoinSeat(ctx, "room-1", "mod", 1)
		require.NoError(t, err)
	})
}

func TestRoomService_EnterRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("locked room blocks ordinary listeners", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", IsLocked: true}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "alice").Return(&models.User{ID: "alice"}, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		_, err := svc.EnterRoom(ctx, "room-1", "alice")
		assert.ErrorIs(t, err, ErrRoomLocked)
	})

	t.Run("host and admins enter a locked room", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", IsLocked: true}
		host := &models.User{ID: "host", Name: "Host"}
		mod := &models.User{ID: "mod", Name: "Mod", IsAdmin: true}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("GetByID", mock.Anything, "host").Return(host, nil)
		uow.users.On("GetByID", mock.Anything, "mod").Return(mod, nil)
		uow.rooms.On("AddListeners", mock.Anything, "room-1", 1).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		got, err := svc.EnterRoom(ctx, "room-1", "host")
		require.NoError(t, err)
		assert.Equal(t, "room-1", got.ID)

		_, err = svc.EnterRoom(ctx, "room-1", "mod")
		require.NoError(t, err)
	})

	t.Run("missing room", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(nil, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		_, err := svc.EnterRoom(ctx, "room-1", "alice")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestRoomService_LeaveRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("host leaving deletes the room", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host"}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.rooms.On("Delete", mock.Anything, "room-1").Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		require.NoError(t, svc.LeaveRoom(ctx, "room-1", "host"))

		uow.rooms.AssertCalled(t, "Delete", mock.Anything, "room-1")
		assert.Len(t, uow.bus.eventsOfType(events.EventTypeRoomDeleted), 1)
	})

	t.Run("seated listener leaving frees the seat and drops the count", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host", Speakers: []models.Speaker{
			{UserID: "alice", SeatIndex: 2},
		}}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.rooms.On("RemoveSpeaker", mock.Anything, "room-1", "alice").Return(nil)
		uow.rooms.On("AddListeners", mock.Anything, "room-1", -1).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		require.NoError(t, svc.LeaveRoom(ctx, "room-1", "alice"))

		uow.rooms.AssertCalled(t, "RemoveSpeaker", mock.Anything, "room-1", "alice")
		uow.rooms.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestRoomService_SetLocked(t *testing.T) {
	ctx := context.Background()
	room := &models.Room{ID: "room-1", HostID: "host"}

	t.Run("host locks the room", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.rooms.On("Update", mock.Anything, mock.MatchedBy(func(r *models.Room) bool {
			return r.IsLocked
		})).Return(nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		require.NoError(t, svc.SetLocked(ctx, "room-1", "host", true))
	})

	t.Run("non-host cannot lock", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		err := svc.SetLocked(ctx, "room-1", "alice", true)
		assert.ErrorIs(t, err, ErrNotHost)
	})
}

func TestRoomService_SetEmoji(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown emoji is rejected when a whitelist exists", func(t *testing.T) {
		settings := models.DefaultGameSettings()
		settings.AvailableEmojis = []string{"😂", "🎉"}

		svc := NewRoomService(&mockUowFactory{newMockUnitOfWork()}, &staticSettings{settings})
		err := svc.SetEmoji(ctx, "room-1", "alice", "💀")
		assert.Error(t, err)
	})

	t.Run("unseated user cannot play an emoji", func(t *testing.T) {
		room := &models.Room{ID: "room-1", HostID: "host"}

		uow := newMockUnitOfWork()
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)

		svc := NewRoomService(&mockUowFactory{uow}, roomTestSettings())
		err := svc.SetEmoji(ctx, "room-1", "alice", "😂")
		assert.ErrorIs(t, err, ErrNotSeated)
	})
}
