package server

import (
	"net/http"

	"vivolive/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	log "github.com/sirupsen/logrus"
)

const giftRateBurst = 3

// NewRouter builds the HTTP routing table: the REST API under /api and the
// per-room websocket stream under /ws.
func NewRouter(cfg *config.Config, h *Handlers, hub *Hub) http.Handler {
	giftLimiter := newUserRateLimiter(rate.Limit(cfg.GiftRateLimit), giftRateBurst)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// The gateway enforces origins in production
			return true
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(withIdentity)

		api.Post("/users", h.bootstrapUser)
		api.Get("/users/{id}", h.getUser)
		api.Patch("/users/me", h.updateProfile)
		api.Get("/users/me/history", h.getCoinHistory)
		api.Post("/users/me/purchases", h.purchaseItem)
		api.Get("/rankings", h.getRankings)

		api.Get("/rooms", h.listRooms)
		api.Post("/rooms", h.createRoom)
		api.Route("/rooms/{id}", func(room chi.Router) {
			room.Get("/", h.getRoom)
			room.Post("/enter", h.enterRoom)
			room.Post("/exit", h.exitRoom)
			room.Post("/seats/{idx}", h.joinSeat)
			room.Delete("/seat", h.leaveSeat)
			room.Post("/mute", h.setMuted)
			room.Post("/emoji", h.setEmoji)
			room.Post("/lock", h.setLocked)
			room.With(giftLimiter.Middleware).Post("/gifts", h.sendGift)
			room.Post("/lucky-bags", h.sendLuckyBag)
		})

		api.Post("/lucky-bags/{id}/claim", h.claimLuckyBag)
		api.Post("/games/spin", h.spin)

		api.Get("/gifts", h.listGifts)
		api.Get("/store/items", h.listStoreItems)

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/settings", h.getSettings)
			admin.Put("/settings", h.updateSettings)
			admin.Put("/gifts/{id}", h.upsertGift)
			admin.Delete("/gifts/{id}", h.deleteGift)
			admin.Put("/store/items/{id}", h.upsertStoreItem)
			admin.Delete("/store/items/{id}", h.deleteStoreItem)
			admin.Post("/users/{id}/ban", h.setBanned)
			admin.Post("/users/{id}/coins", h.adjustCoins)
		})
	})

	// Browsers cannot set headers on websocket dials, so identity rides the
	// query string here.
	r.Get("/ws/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "id")
		userID := r.Header.Get(identityHeader)
		if userID == "" {
			userID = r.URL.Query().Get("user")
		}
		if userID == "" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "missing identity",
			})
			return
		}

		log.WithFields(log.Fields{
			"userId": userID,
			"roomId": roomID,
		}).Debug("Websocket connection request")

		serveWS(hub, upgrader, roomID, userID, w, r)
	})

	return r
}
