package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func giftTestSettings() models.GameSettings {
	settings := models.DefaultGameSettings()
	settings.LuckyGiftWinRate = 0
	return settings
}

func setupGiftMocks(uow *mockUnitOfWork, sender *models.User, gift *models.Gift, room *models.Room, recipients []*models.User) {
	uow.users.On("GetByID", mock.Anything, sender.ID).Return(sender, nil)
	uow.gifts.On("GetByID", mock.Anything, gift.ID).Return(gift, nil)
	uow.rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	uow.users.On("GetByIDs", mock.Anything, mock.Anything).Return(recipients, nil)
	uow.users.On("DeductCoins", mock.Anything, sender.ID, mock.Anything).Return(nil)
	uow.users.On("AddCoins", mock.Anything, sender.ID, mock.Anything).Return(nil)
	uow.users.On("AddWealth", mock.Anything, sender.ID, mock.Anything).Return(nil)
	for _, r := range recipients {
		uow.users.On("AddCharm", mock.Anything, r.ID, mock.Anything).Return(nil)
		uow.rooms.On("AddSpeakerCharm", mock.Anything, room.ID, r.ID, mock.Anything).Return(nil)
	}
	uow.coinHistory.On("Record", mock.Anything, mock.Anything).Return(nil)
}

func TestGiftService_SendGift(t *testing.T) {
	ctx := context.Background()
	sender := &models.User{ID: "sender", Name: "Alice", Coins: 10000}
	room := &models.Room{ID: "room-1", Title: "Lounge"}
	bob := &models.User{ID: "bob", Name: "Bob"}

	t.Run("plain gift below the threshold stays quiet", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "rose", Name: "Rose", Cost: 500, Icon: "🌹"}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		result, err := svc.SendGift(ctx, "sender", "room-1", "rose", 3, []string{"bob"}, false)
		require.NoError(t, err)

		assert.Equal(t, int64(1500), result.TotalCost)
		assert.Equal(t, int64(0), result.TotalRefund)
		assert.False(t, result.IsLuckyWin)
		assert.Nil(t, result.Announcement)
		assert.Equal(t, int64(8500), result.NewCoins)
		assert.True(t, uow.committed)

		// No banner below the threshold
		assert.Empty(t, uow.bus.eventsOfType(events.EventTypeAnnouncement))
		assert.Len(t, uow.bus.eventsOfType(events.EventTypeGiftSent), 1)

		uow.users.AssertCalled(t, "DeductCoins", mock.Anything, "sender", int64(1500))
		uow.users.AssertCalled(t, "AddWealth", mock.Anything, "sender", int64(1500))
		uow.users.AssertCalled(t, "AddCharm", mock.Anything, "bob", int64(1500))
		uow.users.AssertNotCalled(t, "AddCoins", mock.Anything, "sender", mock.Anything)
	})

	t.Run("threshold spend earns a banner", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "crown", Name: "Crown", Cost: 2000}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		result, err := svc.SendGift(ctx, "sender", "room-1", "crown", 1, []string{"bob"}, false)
		require.NoError(t, err)

		require.NotNil(t, result.Announcement)
		assert.Equal(t, models.AnnouncementTypeGift, result.Announcement.Type)
		assert.Equal(t, int64(2000), result.Announcement.Amount)
		assert.Len(t, uow.bus.eventsOfType(events.EventTypeAnnouncement), 1)
	})

	t.Run("forced lucky win refunds per the multiplier table", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "clover", Name: "Clover", Cost: 50, IsLucky: true, Category: models.GiftCategoryLucky}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		settings := giftTestSettings()
		settings.LuckyGiftWinRate = 100
		settings.LuckyMultipliers = []models.LuckyMultiplier{{Label: "X10", Value: 10, Chance: 100}}

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{settings}, nil, fixedRoll(0.5))
		result, err := svc.SendGift(ctx, "sender", "room-1", "clover", 1, []string{"bob"}, false)
		require.NoError(t, err)

		assert.Equal(t, int64(50), result.TotalCost)
		assert.Equal(t, int64(500), result.TotalRefund)
		assert.True(t, result.IsLuckyWin)
		assert.Equal(t, "X10", result.WinLabel)
		assert.Equal(t, int64(10000-50+500), result.NewCoins)

		// A lucky win announces regardless of cost, advertising the refund
		require.NotNil(t, result.Announcement)
		assert.Equal(t, models.AnnouncementTypeLuckyWin, result.Announcement.Type)
		assert.Equal(t, int64(500), result.Announcement.Amount)

		uow.users.AssertCalled(t, "AddCoins", mock.Anything, "sender", int64(500))
		// Wealth still counts the gross spend
		uow.users.AssertCalled(t, "AddWealth", mock.Anything, "sender", int64(50))
	})

	t.Run("zero win rate never refunds", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "clover", Name: "Clover", Cost: 50, IsLucky: true}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.0))
		result, err := svc.SendGift(ctx, "sender", "room-1", "clover", 10, []string{"bob"}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.TotalRefund)
		assert.False(t, result.IsLuckyWin)
	})

	t.Run("fan-out multiplies cost and charms each recipient", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "rose", Name: "Rose", Cost: 100}
		carol := &models.User{ID: "carol", Name: "Carol"}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob, carol})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		result, err := svc.SendGift(ctx, "sender", "room-1", "rose", 2, []string{"bob", "carol"}, false)
		require.NoError(t, err)

		assert.Equal(t, int64(400), result.TotalCost)
		assert.Equal(t, 2, result.Recipients)
		uow.users.AssertCalled(t, "AddCharm", mock.Anything, "bob", int64(200))
		uow.users.AssertCalled(t, "AddCharm", mock.Anything, "carol", int64(200))
	})

	t.Run("insufficient funds rolls back", func(t *testing.T) {
		uow := newMockUnitOfWork()
		broke := &models.User{ID: "sender", Name: "Alice", Coins: 100}
		gift := &models.Gift{ID: "crown", Name: "Crown", Cost: 2000}
		setupGiftMocks(uow, broke, gift, room, []*models.User{bob})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		_, err := svc.SendGift(ctx, "sender", "room-1", "crown", 1, []string{"bob"}, false)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, uow.rolledBack)
		assert.Empty(t, uow.bus.published)
	})

	t.Run("input validation", func(t *testing.T) {
		svc := newGiftServiceWithRoll(&mockUowFactory{newMockUnitOfWork()}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))

		_, err := svc.SendGift(ctx, "sender", "room-1", "rose", 0, []string{"bob"}, false)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.SendGift(ctx, "sender", "room-1", "rose", 1, nil, false)
		assert.ErrorIs(t, err, ErrNoRecipients)

		// Blank and duplicate recipients collapse to nothing
		_, err = svc.SendGift(ctx, "sender", "room-1", "rose", 1, []string{"", ""}, false)
		assert.ErrorIs(t, err, ErrNoRecipients)
	})

	t.Run("banned sender is rejected", func(t *testing.T) {
		uow := newMockUnitOfWork()
		banned := &models.User{ID: "sender", Name: "Alice", Coins: 10000, IsBanned: true}
		uow.users.On("GetByID", mock.Anything, "sender").Return(banned, nil)

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		_, err := svc.SendGift(ctx, "sender", "room-1", "rose", 1, []string{"bob"}, false)
		assert.ErrorIs(t, err, ErrUserBanned)
	})

	t.Run("combo chain counts quantities across repeats", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "rose", Name: "Rose", Cost: 100}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		tracker := NewComboTracker()
		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, tracker, fixedRoll(0.5))

		result, err := svc.SendGift(ctx, "sender", "room-1", "rose", 5, []string{"bob"}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(5), result.ComboCount)
		assert.False(t, result.ComboExpiresAt.IsZero())

		result, err = svc.SendGift(ctx, "sender", "room-1", "rose", 3, []string{"bob"}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(8), result.ComboCount)
	})

	t.Run("repeat to different recipients starts nothing", func(t *testing.T) {
		uow := newMockUnitOfWork()
		gift := &models.Gift{ID: "rose", Name: "Rose", Cost: 100}
		carol := &models.User{ID: "carol", Name: "Carol"}
		setupGiftMocks(uow, sender, gift, room, []*models.User{carol})

		tracker := NewComboTracker()
		tracker.Hit("sender", "room-1", "rose", []string{"bob"}, 4, false, time.Minute)

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, tracker, fixedRoll(0.5))
		result, err := svc.SendGift(ctx, "sender", "room-1", "rose", 1, []string{"carol"}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.ComboCount)
	})

	t.Run("unfunded combo repeat ends the chain", func(t *testing.T) {
		uow := newMockUnitOfWork()
		broke := &models.User{ID: "sender", Name: "Alice", Coins: 100}
		gift := &models.Gift{ID: "crown", Name: "Crown", Cost: 2000}
		setupGiftMocks(uow, broke, gift, room, []*models.User{bob})

		tracker := NewComboTracker()
		tracker.Hit("sender", "room-1", "crown", []string{"bob"}, 1, false, time.Minute)

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, tracker, fixedRoll(0.5))
		_, err := svc.SendGift(ctx, "sender", "room-1", "crown", 1, []string{"bob"}, true)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		hit := tracker.Hit("sender", "room-1", "crown", []string{"bob"}, 1, true, time.Minute)
		assert.Equal(t, ComboHit{}, hit)
	})

	t.Run("commit failure surfaces as a transaction error", func(t *testing.T) {
		uow := newMockUnitOfWork()
		uow.commitErr = errors.New("connection reset")
		gift := &models.Gift{ID: "rose", Name: "Rose", Cost: 100}
		setupGiftMocks(uow, sender, gift, room, []*models.User{bob})

		svc := newGiftServiceWithRoll(&mockUowFactory{uow}, &staticSettings{giftTestSettings()}, nil, fixedRoll(0.5))
		_, err := svc.SendGift(ctx, "sender", "room-1", "rose", 1, []string{"bob"}, false)
		assert.ErrorIs(t, err, ErrTransactionFailed)
		assert.True(t, uow.rolledBack)
	})

	t.Run("recipient dedupe leaves the caller's slice alone", func(t *testing.T) {
		ids := []string{"bob", "bob", "carol"}
		out := dedupe(ids)

		assert.Equal(t, []string{"bob", "carol"}, out)
		assert.Equal(t, []string{"bob", "bob", "carol"}, ids)
	})
}
