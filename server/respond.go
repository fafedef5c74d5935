package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"vivolive/service"

	log "github.com/sirupsen/logrus"
)

// errorStatus maps service sentinel errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrGiftNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrBagNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserBanned),
		errors.Is(err, service.ErrRoomLocked),
		errors.Is(err, service.ErrNotHost),
		errors.Is(err, service.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrAlreadyOwned),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrBagExhausted),
		errors.Is(err, service.ErrBagExpired),
		errors.Is(err, service.ErrNotSeated):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidSeat),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNoRecipients):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Request failed")
	}

	respondJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{
		"error": message,
	})
}
