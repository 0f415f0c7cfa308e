package session

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	sessionmodel "github.com/d1ced/insurance-bot/internal/model/session"
	"github.com/d1ced/insurance-bot/pkg/utils"
)

// Handler exposes read-only session state for operators.
type Handler struct {
	store sessionmodel.Store
}

// New creates the session inspection handler.
func New(store sessionmodel.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{chatID}", h.handleGetSession)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	sess, ok := h.store.Get(chatID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"chatId":             sess.ChatID,
		"state":              sess.State.String(),
		"givenNames":         sess.GivenNames,
		"surname":            sess.Surname,
		"documentNumber":     sess.DocumentNumber,
		"vehicleDescription": sess.VehicleDescription,
		"licensePlate":       sess.LicensePlate,
	})
}
