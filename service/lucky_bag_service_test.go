package service

import (
	"context"
	"testing"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLuckyBagService_Send(t *testing.T) {
	ctx := context.Background()
	sender := &models.User{ID: "sender", Name: "Alice", Coins: 5000}
	room := &models.Room{ID: "room-1", Title: "Lounge"}

	t.Run("funds the bag from the sender", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.users.On("GetByID", mock.Anything, "sender").Return(sender, nil)
		uow.rooms.On("GetByID", mock.Anything, "room-1").Return(room, nil)
		uow.users.On("DeductCoins", mock.Anything, "sender", int64(1000)).Return(nil)
		uow.users.On("AddWealth", mock.Anything, "sender", int64(1000)).Return(nil)
		uow.luckyBags.On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.coinHistory.On("Record", mock.Anything, mock.Anything).Return(nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		bag, err := svc.Send(ctx, "sender", "room-1", 1000, 5)
		require.NoError(t, err)

		assert.Equal(t, int64(1000), bag.TotalAmount)
		assert.Equal(t, int64(1000), bag.RemainingAmount)
		assert.Equal(t, 5, bag.RecipientsLimit)
		assert.WithinDuration(t, time.Now().Add(models.LuckyBagExpiry), bag.ExpiresAt, 2*time.Second)
		assert.True(t, uow.committed)

		// The drop counts toward wealth like any gift spend
		uow.users.AssertCalled(t, "AddWealth", mock.Anything, "sender", int64(1000))

		// Every bag announces itself globally
		banners := uow.bus.eventsOfType(events.EventTypeAnnouncement)
		require.Len(t, banners, 1)
		announcement := banners[0].(events.AnnouncementEvent).Announcement
		assert.Equal(t, models.AnnouncementTypeLuckyBag, announcement.Type)
		assert.Equal(t, int64(1000), announcement.Amount)
		assert.Equal(t, "Alice", announcement.SenderName)
		assert.Equal(t, "Lounge", announcement.RoomTitle)
	})

	t.Run("rejects more recipients than coins", func(t *testing.T) {
		svc := newLuckyBagServiceWithRoll(&mockUowFactory{newMockUnitOfWork()}, fixedRoll(0.5))
		_, err := svc.Send(ctx, "sender", "room-1", 3, 5)
		assert.Error(t, err)
	})

	t.Run("rejects an unaffordable bag", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.users.On("GetByID", mock.Anything, "sender").Return(sender, nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		_, err := svc.Send(ctx, "sender", "room-1", 100000, 5)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestLuckyBagService_Claim(t *testing.T) {
	ctx := context.Background()
	claimer := &models.User{ID: "claimer", Name: "Bob", Coins: 100}

	freshBag := func() *models.LuckyBag {
		return &models.LuckyBag{
			ID:              "bag-1",
			SenderID:        "sender",
			RoomID:          "room-1",
			TotalAmount:     1000,
			RemainingAmount: 1000,
			RecipientsLimit: 4,
			ClaimedBy:       []string{},
			ExpiresAt:       time.Now().Add(time.Minute),
		}
	}

	t.Run("claims a random share", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(freshBag(), nil)
		uow.users.On("GetByID", mock.Anything, "claimer").Return(claimer, nil)
		uow.luckyBags.On("RecordClaim", mock.Anything, "bag-1", "claimer", mock.Anything).Return(nil)
		uow.users.On("AddCoins", mock.Anything, "claimer", mock.Anything).Return(nil)
		uow.coinHistory.On("Record", mock.Anything, mock.Anything).Return(nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		claim, err := svc.Claim(ctx, "bag-1", "claimer")
		require.NoError(t, err)

		// Double-average draw at roll 0.5: 1 + 0.5 * (2*1000/4) = 251
		assert.Equal(t, int64(251), claim.Amount)
		assert.Equal(t, int64(100+251), claim.NewCoins)
	})

	t.Run("last claim sweeps the remainder", func(t *testing.T) {
		bag := freshBag()
		bag.RemainingAmount = 137
		bag.ClaimedBy = []string{"a", "b", "c"}

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(bag, nil)
		uow.users.On("GetByID", mock.Anything, "claimer").Return(claimer, nil)
		uow.luckyBags.On("RecordClaim", mock.Anything, "bag-1", "claimer", int64(137)).Return(nil)
		uow.users.On("AddCoins", mock.Anything, "claimer", int64(137)).Return(nil)
		uow.coinHistory.On("Record", mock.Anything, mock.Anything).Return(nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.99))
		claim, err := svc.Claim(ctx, "bag-1", "claimer")
		require.NoError(t, err)
		assert.Equal(t, int64(137), claim.Amount)
	})

	t.Run("expired bag refuses claims", func(t *testing.T) {
		bag := freshBag()
		bag.ExpiresAt = time.Now().Add(-time.Second)

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(bag, nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		_, err := svc.Claim(ctx, "bag-1", "claimer")
		assert.ErrorIs(t, err, ErrBagExpired)
	})

	t.Run("double claims are refused", func(t *testing.T) {
		bag := freshBag()
		bag.ClaimedBy = []string{"claimer"}

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(bag, nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		_, err := svc.Claim(ctx, "bag-1", "claimer")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("exhausted bag refuses claims", func(t *testing.T) {
		bag := freshBag()
		bag.RemainingAmount = 0

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(bag, nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		_, err := svc.Claim(ctx, "bag-1", "claimer")
		assert.ErrorIs(t, err, ErrBagExhausted)
	})

	t.Run("missing bag", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(nil, nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		_, err := svc.Claim(ctx, "bag-1", "claimer")
		assert.ErrorIs(t, err, ErrBagNotFound)
	})
}

func TestLuckyBagService_ExpireOverdue(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("refunds the remainder to the sender", func(t *testing.T) {
		bag := &models.LuckyBag{
			ID:              "bag-1",
			SenderID:        "sender",
			RemainingAmount: 400,
			ClaimedBy:       []string{"a"},
			ExpiresAt:       now.Add(-time.Minute),
		}
		sender := &models.User{ID: "sender", Coins: 100}

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetExpired", mock.Anything, now).Return([]*models.LuckyBag{bag}, nil)
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-1").Return(bag, nil)
		uow.luckyBags.On("MarkRefunded", mock.Anything, "bag-1").Return(nil)
		uow.users.On("GetByID", mock.Anything, "sender").Return(sender, nil)
		uow.users.On("AddCoins", mock.Anything, "sender", int64(400)).Return(nil)
		uow.coinHistory.On("Record", mock.Anything, mock.Anything).Return(nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		refunded, err := svc.ExpireOverdue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, refunded)

		uow.users.AssertCalled(t, "AddCoins", mock.Anything, "sender", int64(400))
	})

	t.Run("empty bags are marked without a credit", func(t *testing.T) {
		bag := &models.LuckyBag{
			ID:              "bag-2",
			SenderID:        "sender",
			RemainingAmount: 0,
			ExpiresAt:       now.Add(-time.Minute),
		}

		uow := newMockUnitOfWork()
		uow.luckyBags.On("GetExpired", mock.Anything, now).Return([]*models.LuckyBag{bag}, nil)
		uow.luckyBags.On("GetForUpdate", mock.Anything, "bag-2").Return(bag, nil)
		uow.luckyBags.On("MarkRefunded", mock.Anything, "bag-2").Return(nil)

		svc := newLuckyBagServiceWithRoll(&mockUowFactory{uow}, fixedRoll(0.5))
		refunded, err := svc.ExpireOverdue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, refunded)

		uow.users.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	})
}
