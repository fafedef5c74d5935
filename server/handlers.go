package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vivolive/models"
	"vivolive/service"

	"github.com/go-chi/chi/v5"
)

// Handlers holds the service dependencies behind the HTTP surface.
type Handlers struct {
	Users    service.UserService
	Rooms    service.RoomService
	Gifts    service.GiftService
	Games    service.GameService
	Bags     service.LuckyBagService
	Settings service.SettingsService
	Admin    service.AdminService
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ---- users ----

func (h *Handlers) bootstrapUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.Users.GetOrCreateUser(r.Context(), callerID(r), input.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name      *string `json:"name"`
		Avatar    *string `json:"avatar"`
		Frame     *string `json:"frame"`
		NameStyle *string `json:"nameStyle"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	patch := models.ProfilePatch{
		Name:      input.Name,
		Avatar:    input.Avatar,
		Frame:     input.Frame,
		NameStyle: input.NameStyle,
	}
	if err := h.Users.UpdateProfile(r.Context(), callerID(r), patch); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) purchaseItem(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(r, &input); err != nil || input.ItemID == "" {
		respondBadRequest(w, "itemId is required")
		return
	}

	user, err := h.Users.PurchaseItem(r.Context(), callerID(r), input.ItemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handlers) getRankings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	wealth, charm, err := h.Users.GetRankings(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"wealth": newUserViews(wealth),
		"charm":  newUserViews(charm),
	})
}

func (h *Handlers) getCoinHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.Users.GetCoinHistory(r.Context(), callerID(r), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newHistoryViews(entries))
}

// ---- rooms ----

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title      string `json:"title"`
		Background string `json:"background"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Title == "" {
		respondBadRequest(w, "title is required")
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), callerID(r), input.Title, input.Background)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.ListRooms(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

func (h *Handlers) enterRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.EnterRoom(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

func (h *Handlers) exitRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.Rooms.LeaveRoom(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) joinSeat(w http.ResponseWriter, r *http.Request) {
	seatIndex, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		respondBadRequest(w, "invalid seat index")
		return
	}

	change, err := h.Rooms.JoinSeat(r.Context(), chi.URLParam(r, "id"), callerID(r), seatIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// An occupied seat is not an error: the client opens the occupant's
	// profile card instead.
	respondJSON(w, http.StatusOK, map[string]any{
		"room":      change.Room,
		"occupant":  change.Occupant,
		"firstSeat": change.FirstSeat,
	})
}

func (h *Handlers) leaveSeat(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.LeaveSeat(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

func (h *Handlers) setMuted(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Muted bool `json:"muted"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := h.Rooms.SetMuted(r.Context(), chi.URLParam(r, "id"), callerID(r), input.Muted); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) setEmoji(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Emoji string `json:"emoji"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Emoji == "" {
		respondBadRequest(w, "emoji is required")
		return
	}

	if err := h.Rooms.SetEmoji(r.Context(), chi.URLParam(r, "id"), callerID(r), input.Emoji); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) setLocked(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Locked bool `json:"locked"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := h.Rooms.SetLocked(r.Context(), chi.URLParam(r, "id"), callerID(r), input.Locked); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ---- gifts and games ----

func (h *Handlers) listGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.Admin.ListGifts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]giftView, 0, len(gifts))
	for _, g := range gifts {
		views = append(views, newGiftView(g))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) sendGift(w http.ResponseWriter, r *http.Request) {
	var input struct {
		GiftID       string   `json:"giftId"`
		Quantity     int64    `json:"quantity"`
		RecipientIDs []string `json:"recipientIds"`
		IsCombo      bool     `json:"isCombo"`
	}
	if err := decodeJSON(r, &input); err != nil || input.GiftID == "" {
		respondBadRequest(w, "giftId is required")
		return
	}

	result, err := h.Gifts.SendGift(r.Context(), callerID(r), chi.URLParam(r, "id"), input.GiftID, input.Quantity, input.RecipientIDs, input.IsCombo)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newGiftResultView(result))
}

func (h *Handlers) spin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Game string `json:"game"`
		Bet  int64  `json:"bet"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	game, err := models.ParseGame(input.Game)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	result, err := h.Games.Spin(r.Context(), callerID(r), game, input.Bet)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpinResultView(result))
}

// ---- lucky bags ----

func (h *Handlers) sendLuckyBag(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TotalAmount int64 `json:"totalAmount"`
		Recipients  int   `json:"recipients"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	bag, err := h.Bags.Send(r.Context(), callerID(r), chi.URLParam(r, "id"), input.TotalAmount, input.Recipients)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newLuckyBagView(bag))
}

func (h *Handlers) claimLuckyBag(w http.ResponseWriter, r *http.Request) {
	claim, err := h.Bags.Claim(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, claimView{
		BagID:    claim.BagID,
		Amount:   claim.Amount,
		NewCoins: claim.NewCoins,
	})
}

// ---- store ----

func (h *Handlers) listStoreItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Admin.ListStoreItems(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// ---- admin ----

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.Current(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.GameSettings
	if err := decodeJSON(r, &settings); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	saved, err := h.Settings.Update(r.Context(), callerID(r), settings)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handlers) upsertGift(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name          string              `json:"name"`
		Cost          int64               `json:"cost"`
		Icon          string              `json:"icon"`
		Category      models.GiftCategory `json:"category"`
		AnimationType string              `json:"animationType"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	gift := &models.Gift{
		ID:            chi.URLParam(r, "id"),
		Name:          input.Name,
		Cost:          input.Cost,
		Icon:          input.Icon,
		Category:      input.Category,
		AnimationType: input.AnimationType,
	}
	if err := h.Admin.UpsertGift(r.Context(), callerID(r), gift); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newGiftView(gift))
}

func (h *Handlers) deleteGift(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteGift(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) upsertStoreItem(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name  string          `json:"name"`
		Type  models.ItemType `json:"type"`
		URL   string          `json:"url"`
		Price int64           `json:"price"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	item := &models.StoreItem{
		ID:    chi.URLParam(r, "id"),
		Name:  input.Name,
		Type:  input.Type,
		URL:   input.URL,
		Price: input.Price,
	}
	if err := h.Admin.UpsertStoreItem(r.Context(), callerID(r), item); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handlers) deleteStoreItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteStoreItem(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) setBanned(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Banned bool `json:"banned"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := h.Admin.SetBanned(r.Context(), callerID(r), chi.URLParam(r, "id"), input.Banned); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) adjustCoins(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.Admin.AdjustCoins(r.Context(), callerID(r), chi.URLParam(r, "id"), input.Delta, input.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}
