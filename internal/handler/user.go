package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lovechedule/lovechedule/internal/store"
)

type UserHandler struct {
	userStore      *store.UserStore
	workspaceStore *store.WorkspaceStore
	logger         *slog.Logger
}

func NewUserHandler(us *store.UserStore, ws *store.WorkspaceStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, workspaceStore: ws, logger: logger}
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	user, err := h.userStore.Create(req.Name, req.Email)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Workspaces handles GET /api/users/{id}/workspaces
func (h *UserHandler) Workspaces(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	workspaces, err := h.workspaceStore.WorkspacesForUser(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

type updatePrefsRequest struct {
	PushEnabled      *bool `json:"push_enabled"`
	AnniversaryAlert *bool `json:"anniversary_alert"`
}

// UpdatePrefs handles PUT /api/users/{id}/notifications
func (h *UserHandler) UpdatePrefs(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req updatePrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	pushEnabled := user.PushEnabled
	if req.PushEnabled != nil {
		pushEnabled = *req.PushEnabled
	}
	anniversaryAlert := user.AnniversaryAlert
	if req.AnniversaryAlert != nil {
		anniversaryAlert = *req.AnniversaryAlert
	}

	updated, err := h.userStore.UpdateNotificationPrefs(id, pushEnabled, anniversaryAlert)
	if err != nil {
		h.logger.Error("update notification prefs", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
