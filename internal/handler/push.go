package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lovechedule/lovechedule/internal/notify"
	"github.com/lovechedule/lovechedule/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	userStore *store.UserStore
	transport *notify.WebPushTransport
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, us *store.UserStore, transport *notify.WebPushTransport, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, userStore: us, transport: transport, logger: logger}
}

type subscribeRequest struct {
	UserID   int64  `json:"user_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	user, err := h.userStore.GetByID(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check user")
		return
	}
	if user == nil {
		writeError(w, http.StatusBadRequest, "user not found")
		return
	}

	sub, err := h.pushStore.Subscribe(req.UserID, req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe handles POST /api/push/unsubscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.pushStore.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VAPIDPublicKey handles GET /api/push/vapid-public-key
func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.transport.VAPIDPublicKey()})
}
