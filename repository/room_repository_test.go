package repository

import (
	"context"
	"testing"

	"vivolive/models"
	"vivolive/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRoomRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "host-1", "Host", 0)
	require.NoError(t, err)

	room := testutil.CreateTestRoom("host-1", "Chill Lounge")
	require.NoError(t, repo.Create(ctx, room))
	assert.NotZero(t, room.CreatedAt)

	t.Run("missing room returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Chill Lounge", got.Title)
		assert.Equal(t, "host-1", got.HostID)
		assert.False(t, got.IsLocked)
		assert.Empty(t, got.Speakers)
	})
}

func TestRoomRepository_Speakers(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRoomRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "host-1", "Host", 0)
	require.NoError(t, err)
	_, err = users.Create(ctx, "user-1", "Alice", 0)
	require.NoError(t, err)
	_, err = users.Create(ctx, "user-2", "Bob", 0)
	require.NoError(t, err)

	room := testutil.CreateTestRoom("host-1", "Room")
	require.NoError(t, repo.Create(ctx, room))

	t.Run("seat a user", func(t *testing.T) {
		err := repo.UpsertSpeaker(ctx, room.ID, testutil.CreateTestSpeaker("user-1", "Alice", 2))
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, got.Speakers, 1)
		assert.Equal(t, 2, got.Speakers[0].SeatIndex)

		seats := got.Seats()
		require.NotNil(t, seats[2])
		assert.Equal(t, "user-1", seats[2].UserID)
	})

	t.Run("reseat moves the same user", func(t *testing.T) {
		err := repo.UpsertSpeaker(ctx, room.ID, testutil.CreateTestSpeaker("user-1", "Alice", 5))
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, got.Speakers, 1)
		assert.Equal(t, 5, got.Speakers[0].SeatIndex)
	})

	t.Run("occupied seat rejects a second user", func(t *testing.T) {
		err := repo.UpsertSpeaker(ctx, room.ID, testutil.CreateTestSpeaker("user-2", "Bob", 5))
		assert.Error(t, err)
	})

	t.Run("out of range seat is rejected by the schema", func(t *testing.T) {
		err := repo.UpsertSpeaker(ctx, room.ID, testutil.CreateTestSpeaker("user-2", "Bob", 8))
		assert.Error(t, err)
	})

	t.Run("charm, mute and emoji snapshots", func(t *testing.T) {
		require.NoError(t, repo.AddSpeakerCharm(ctx, room.ID, "user-1", 150))
		require.NoError(t, repo.SetSpeakerMuted(ctx, room.ID, "user-1", true))
		require.NoError(t, repo.SetSpeakerEmoji(ctx, room.ID, "user-1", "🎉"))

		got, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		sp := got.SpeakerByUser("user-1")
		require.NotNil(t, sp)
		assert.Equal(t, int64(150), sp.Charm)
		assert.True(t, sp.IsMuted)
		assert.Equal(t, "🎉", sp.ActiveEmoji)
	})

	t.Run("charm bump on unseated user is a no-op", func(t *testing.T) {
		require.NoError(t, repo.AddSpeakerCharm(ctx, room.ID, "user-2", 100))
	})

	t.Run("mute on unseated user fails", func(t *testing.T) {
		assert.Error(t, repo.SetSpeakerMuted(ctx, room.ID, "user-2", true))
	})

	t.Run("remove speaker", func(t *testing.T) {
		require.NoError(t, repo.RemoveSpeaker(ctx, room.ID, "user-1"))

		got, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Speakers)
	})
}

func TestRoomRepository_UpdateSpeakerProfiles(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRoomRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "host-1", "Host", 0)
	require.NoError(t, err)
	_, err = users.Create(ctx, "user-1", "Alice", 0)
	require.NoError(t, err)

	roomA := testutil.CreateTestRoom("host-1", "Room A")
	roomB := testutil.CreateTestRoom("host-1", "Room B")
	require.NoError(t, repo.Create(ctx, roomA))
	require.NoError(t, repo.Create(ctx, roomB))

	require.NoError(t, repo.UpsertSpeaker(ctx, roomA.ID, testutil.CreateTestSpeaker("user-1", "Alice", 0)))
	require.NoError(t, repo.UpsertSpeaker(ctx, roomB.ID, testutil.CreateTestSpeaker("user-1", "Alice", 3)))

	newName := "Alicia"
	newFrame := "gold"
	require.NoError(t, repo.UpdateSpeakerProfiles(ctx, "user-1", models.ProfilePatch{
		Name:  &newName,
		Frame: &newFrame,
	}))

	for _, roomID := range []string{roomA.ID, roomB.ID} {
		got, err := repo.GetByID(ctx, roomID)
		require.NoError(t, err)
		sp := got.SpeakerByUser("user-1")
		require.NotNil(t, sp)
		assert.Equal(t, "Alicia", sp.Name)
		assert.Equal(t, "gold", sp.Frame)
	}

	roomIDs, err := repo.RoomIDsWithSpeaker(ctx, "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{roomA.ID, roomB.ID}, roomIDs)
}

func TestRoomRepository_ListenersAndDelete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewRoomRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "host-1", "Host", 0)
	require.NoError(t, err)

	room := testutil.CreateTestRoom("host-1", "Room")
	require.NoError(t, repo.Create(ctx, room))

	require.NoError(t, repo.AddListeners(ctx, room.ID, 3))
	require.NoError(t, repo.AddListeners(ctx, room.ID, -1))

	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Listeners)

	// Counter never goes below zero
	require.NoError(t, repo.AddListeners(ctx, room.ID, -10))
	got, err = repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Listeners)

	t.Run("delete cascades speakers", func(t *testing.T) {
		require.NoError(t, repo.UpsertSpeaker(ctx, room.ID, testutil.CreateTestSpeaker("host-1", "Host", 0)))
		require.NoError(t, repo.Delete(ctx, room.ID))

		gone, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		roomIDs, err := repo.RoomIDsWithSpeaker(ctx, "host-1")
		require.NoError(t, err)
		assert.Empty(t, roomIDs)
	})
}
