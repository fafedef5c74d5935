package service

import (
	"testing"

	"vivolive/models"

	"github.com/stretchr/testify/assert"
)

func TestShouldAnnounce(t *testing.T) {
	tests := []struct {
		name       string
		totalCost  int64
		isLuckyWin bool
		want       bool
	}{
		{"small send stays quiet", 1500, false, false},
		{"threshold send announces", 2000, false, true},
		{"big send announces", 50000, false, true},
		{"lucky win announces regardless of cost", 10, true, true},
		{"just under threshold stays quiet", 1999, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAnnounce(tt.totalCost, tt.isLuckyWin))
		})
	}
}

func TestBuildGiftAnnouncement(t *testing.T) {
	sender := &models.User{ID: "u1", Name: "Alice"}
	room := &models.Room{ID: "r1", Title: "Lounge"}
	gift := &models.Gift{ID: "g1", Name: "Rose", Icon: "🌹"}

	t.Run("plain big send advertises the spend", func(t *testing.T) {
		a := buildGiftAnnouncement(sender, room, gift, []string{"Bob"}, 5000, 0, false)
		assert.Equal(t, models.AnnouncementTypeGift, a.Type)
		assert.Equal(t, int64(5000), a.Amount)
		assert.Equal(t, "Bob", a.RecipientLabel)
		assert.Equal(t, 1, a.RecipientCount)
		assert.NotEmpty(t, a.ID)
	})

	t.Run("lucky win advertises the refund", func(t *testing.T) {
		a := buildGiftAnnouncement(sender, room, gift, []string{"Bob", "Carol"}, 100, 2500, true)
		assert.Equal(t, models.AnnouncementTypeLuckyWin, a.Type)
		assert.Equal(t, int64(2500), a.Amount)
		assert.Equal(t, "2 users", a.RecipientLabel)
	})
}
