package repository

import (
	"context"
	"testing"
	"time"

	"vivolive/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuckyBagRepository_Claims(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewLuckyBagRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "sender-1", "Sender", 0)
	require.NoError(t, err)

	bag := testutil.CreateTestLuckyBag("sender-1", "room-1", 1000, 3)
	require.NoError(t, repo.Create(ctx, bag))

	t.Run("missing bag returns nil", func(t *testing.T) {
		got, err := repo.GetForUpdate(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("claim deducts and records the claimer", func(t *testing.T) {
		require.NoError(t, repo.RecordClaim(ctx, bag.ID, "claimer-1", 400))

		got, err := repo.GetForUpdate(ctx, bag.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(600), got.RemainingAmount)
		assert.True(t, got.HasClaimed("claimer-1"))
		assert.Equal(t, 2, got.RemainingClaims())
	})

	t.Run("double claim by the same user fails", func(t *testing.T) {
		err := repo.RecordClaim(ctx, bag.ID, "claimer-1", 100)
		assert.Error(t, err)
	})

	t.Run("claim beyond the pool fails", func(t *testing.T) {
		err := repo.RecordClaim(ctx, bag.ID, "claimer-2", 5000)
		assert.Error(t, err)
	})
}

func TestLuckyBagRepository_Expiry(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewLuckyBagRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, "sender-1", "Sender", 0)
	require.NoError(t, err)

	fresh := testutil.CreateTestLuckyBag("sender-1", "room-1", 500, 2)
	require.NoError(t, repo.Create(ctx, fresh))

	stale := testutil.CreateTestLuckyBag("sender-1", "room-1", 800, 2)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, stale))

	expired, err := repo.GetExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	t.Run("refunded bags drop out of the sweep", func(t *testing.T) {
		require.NoError(t, repo.MarkRefunded(ctx, stale.ID))

		expired, err := repo.GetExpired(ctx, time.Now())
		require.NoError(t, err)
		assert.Empty(t, expired)

		// Second refund is rejected
		assert.Error(t, repo.MarkRefunded(ctx, stale.ID))
	})
}
