package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lovechedule/lovechedule/internal/store"
)

type WorkspaceHandler struct {
	workspaceStore *store.WorkspaceStore
	userStore      *store.UserStore
	logger         *slog.Logger
}

func NewWorkspaceHandler(ws *store.WorkspaceStore, us *store.UserStore, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceStore: ws, userStore: us, logger: logger}
}

type createWorkspaceRequest struct {
	Name     string `json:"name"`
	MasterID int64  `json:"master_id"`
}

// Create handles POST /api/workspaces
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	master, err := h.userStore.GetByID(req.MasterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check master user")
		return
	}
	if master == nil {
		writeError(w, http.StatusBadRequest, "master user not found")
		return
	}

	workspace, err := h.workspaceStore.Create(req.Name, req.MasterID)
	if err != nil {
		h.logger.Error("create workspace", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create workspace")
		return
	}
	writeJSON(w, http.StatusCreated, workspace)
}

// Get handles GET /api/workspaces/{id}
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	workspace, err := h.workspaceStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get workspace")
		return
	}
	if workspace == nil {
		writeError(w, http.StatusNotFound, "workspace not found")
		return
	}
	writeJSON(w, http.StatusOK, workspace)
}

// Members handles GET /api/workspaces/{id}/members
func (h *WorkspaceHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	workspace, err := h.workspaceStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get workspace")
		return
	}
	if workspace == nil {
		writeError(w, http.StatusNotFound, "workspace not found")
		return
	}

	members, err := h.workspaceStore.Members(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type joinWorkspaceRequest struct {
	InviteCode string `json:"invite_code"`
	UserID     int64  `json:"user_id"`
}

// Join handles POST /api/workspaces/join
func (h *WorkspaceHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "invite_code is required")
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

	workspace, err := h.workspaceStore.Join(req.InviteCode, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrWorkspaceFull):
			writeError(w, http.StatusConflict, "workspace is full")
		case errors.Is(err, store.ErrAlreadyMember):
			writeError(w, http.StatusConflict, "already a member")
		default:
			h.logger.Error("join workspace", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to join workspace")
		}
		return
	}
	if workspace == nil {
		writeError(w, http.StatusNotFound, "invite code not found")
		return
	}
	writeJSON(w, http.StatusOK, workspace)
}
