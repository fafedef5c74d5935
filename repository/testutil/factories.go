package testutil

import (
	"time"

	"vivolive/models"

	"github.com/google/uuid"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(id string, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:         id,
		Name:       name,
		Coins:      10000,
		OwnedItems: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CreateTestUserWithCoins creates a test user with a specific balance
func CreateTestUserWithCoins(id string, name string, coins int64) *models.User {
	user := CreateTestUser(id, name)
	user.Coins = coins
	return user
}

// CreateTestRoom creates a test room hosted by the given user
func CreateTestRoom(hostID string, title string) *models.Room {
	return &models.Room{
		ID:        uuid.NewString(),
		Title:     title,
		HostID:    hostID,
		Speakers:  []models.Speaker{},
		CreatedAt: time.Now(),
	}
}

// CreateTestSpeaker creates a seat snapshot for a user
func CreateTestSpeaker(userID string, name string, seatIndex int) models.Speaker {
	return models.Speaker{
		UserID:    userID,
		Name:      name,
		SeatIndex: seatIndex,
	}
}

// CreateTestGift creates a gift catalog entry
func CreateTestGift(id string, cost int64, lucky bool) *models.Gift {
	gift := &models.Gift{
		ID:            id,
		Name:          "Test Gift " + id,
		Cost:          cost,
		Category:      models.GiftCategoryPopular,
		AnimationType: "pop",
	}
	if lucky {
		gift.Category = models.GiftCategoryLucky
	}
	gift.Normalize()
	return gift
}

// CreateTestStoreItem creates a cosmetics catalog entry
func CreateTestStoreItem(id string, itemType models.ItemType, price int64) *models.StoreItem {
	return &models.StoreItem{
		ID:    id,
		Name:  "Test Item " + id,
		Type:  itemType,
		URL:   "https://cdn.example.com/" + id + ".png",
		Price: price,
	}
}

// CreateTestCoinHistory creates a consistent ledger entry
func CreateTestCoinHistory(userID string, transactionType models.TransactionType) *models.CoinHistory {
	return &models.CoinHistory{
		UserID:          userID,
		CoinsBefore:     10000,
		CoinsAfter:      9000,
		ChangeAmount:    -1000,
		TransactionType: transactionType,
		Metadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestLuckyBag creates a claimable bag for the given sender and room
func CreateTestLuckyBag(senderID string, roomID string, amount int64, recipients int) *models.LuckyBag {
	now := time.Now()
	return &models.LuckyBag{
		ID:              uuid.NewString(),
		SenderID:        senderID,
		SenderName:      "Test Sender",
		RoomID:          roomID,
		RoomTitle:       "Test Room",
		TotalAmount:     amount,
		RemainingAmount: amount,
		RecipientsLimit: recipients,
		ClaimedBy:       []string{},
		CreatedAt:       now,
		ExpiresAt:       now.Add(models.LuckyBagExpiry),
	}
}
