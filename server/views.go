package server

import (
	"vivolive/models"
)

// userView is the wire shape of an account. The level is derived, not
// stored, so it is computed at render time.
type userView struct {
	ID           string   `json:"id"`
	CustomID     int64    `json:"customId"`
	Name         string   `json:"name"`
	Avatar       string   `json:"avatar"`
	Coins        int64    `json:"coins"`
	Wealth       int64    `json:"wealth"`
	Charm        int64    `json:"charm"`
	Level        int      `json:"level"`
	Frame        string   `json:"frame"`
	ActiveBubble string   `json:"activeBubble"`
	NameStyle    string   `json:"nameStyle"`
	OwnedItems   []string `json:"ownedItems"`
	IsAdmin      bool     `json:"isAdmin"`
}

func newUserView(u *models.User) userView {
	items := u.OwnedItems
	if items == nil {
		items = []string{}
	}
	return userView{
		ID:           u.ID,
		CustomID:     u.CustomID,
		Name:         u.Name,
		Avatar:       u.Avatar,
		Coins:        u.Coins,
		Wealth:       u.Wealth,
		Charm:        u.Charm,
		Level:        u.Level(),
		Frame:        u.Frame,
		ActiveBubble: u.ActiveBubble,
		NameStyle:    u.NameStyle,
		OwnedItems:   items,
		IsAdmin:      u.IsAdmin,
	}
}

func newUserViews(users []*models.User) []userView {
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return views
}

type giftView struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Cost          int64               `json:"cost"`
	Icon          string              `json:"icon"`
	Category      models.GiftCategory `json:"category"`
	IsLucky       bool                `json:"isLucky"`
	AnimationType string              `json:"animationType"`
}

func newGiftView(g *models.Gift) giftView {
	return giftView{
		ID:            g.ID,
		Name:          g.Name,
		Cost:          g.Cost,
		Icon:          g.Icon,
		Category:      g.Category,
		IsLucky:       g.IsLucky,
		AnimationType: g.AnimationType,
	}
}

type giftResultView struct {
	GiftID       string                     `json:"giftId"`
	Quantity     int64                      `json:"quantity"`
	Recipients   int                        `json:"recipients"`
	TotalCost    int64                      `json:"totalCost"`
	TotalRefund  int64                      `json:"totalRefund"`
	IsLuckyWin   bool                       `json:"isLuckyWin"`
	WinLabel     string                     `json:"winLabel,omitempty"`
	NewCoins     int64                      `json:"newCoins"`
	ComboCount   int64                      `json:"comboCount,omitempty"`
	ComboEndsAt  int64                      `json:"comboEndsAt,omitempty"`
	Announcement *models.GlobalAnnouncement `json:"announcement,omitempty"`
}

func newGiftResultView(r *models.GiftResult) giftResultView {
	view := giftResultView{
		GiftID:       r.GiftID,
		Quantity:     r.Quantity,
		Recipients:   r.Recipients,
		TotalCost:    r.TotalCost,
		TotalRefund:  r.TotalRefund,
		IsLuckyWin:   r.IsLuckyWin,
		WinLabel:     r.WinLabel,
		NewCoins:     r.NewCoins,
		ComboCount:   r.ComboCount,
		Announcement: r.Announcement,
	}
	if !r.ComboExpiresAt.IsZero() {
		view.ComboEndsAt = r.ComboExpiresAt.Unix()
	}
	return view
}

type spinResultView struct {
	Game       models.Game `json:"game"`
	Bet        int64       `json:"bet"`
	Won        bool        `json:"won"`
	Multiplier float64     `json:"multiplier"`
	WinLabel   string      `json:"winLabel,omitempty"`
	Payout     int64       `json:"payout"`
	NewCoins   int64       `json:"newCoins"`
}

func newSpinResultView(r *models.SpinResult) spinResultView {
	return spinResultView{
		Game:       r.Game,
		Bet:        r.Bet,
		Won:        r.Won,
		Multiplier: r.Multiplier,
		WinLabel:   r.WinLabel,
		Payout:     r.Payout,
		NewCoins:   r.NewCoins,
	}
}

type luckyBagView struct {
	ID              string `json:"id"`
	SenderID        string `json:"senderId"`
	SenderName      string `json:"senderName"`
	RoomID          string `json:"roomId"`
	TotalAmount     int64  `json:"totalAmount"`
	RemainingAmount int64  `json:"remainingAmount"`
	RecipientsLimit int    `json:"recipientsLimit"`
	ClaimedCount    int    `json:"claimedCount"`
	ExpiresAt       int64  `json:"expiresAt"`
}

func newLuckyBagView(b *models.LuckyBag) luckyBagView {
	return luckyBagView{
		ID:              b.ID,
		SenderID:        b.SenderID,
		SenderName:      b.SenderName,
		RoomID:          b.RoomID,
		TotalAmount:     b.TotalAmount,
		RemainingAmount: b.RemainingAmount,
		RecipientsLimit: b.RecipientsLimit,
		ClaimedCount:    len(b.ClaimedBy),
		ExpiresAt:       b.ExpiresAt.Unix(),
	}
}

type claimView struct {
	BagID    string `json:"bagId"`
	Amount   int64  `json:"amount"`
	NewCoins int64  `json:"newCoins"`
}

type historyView struct {
	ID              int64                  `json:"id"`
	ChangeAmount    int64                  `json:"changeAmount"`
	CoinsBefore     int64                  `json:"coinsBefore"`
	CoinsAfter      int64                  `json:"coinsAfter"`
	TransactionType models.TransactionType `json:"transactionType"`
	Metadata        map[string]any         `json:"metadata,omitempty"`
	CreatedAt       int64                  `json:"createdAt"`
}

func newHistoryViews(entries []*models.CoinHistory) []historyView {
	views := make([]historyView, 0, len(entries))
	for _, h := range entries {
		views = append(views, historyView{
			ID:              h.ID,
			ChangeAmount:    h.ChangeAmount,
			CoinsBefore:     h.CoinsBefore,
			CoinsAfter:      h.CoinsAfter,
			TransactionType: h.TransactionType,
			Metadata:        h.Metadata,
			CreatedAt:       h.CreatedAt.Unix(),
		})
	}
	return views
}
