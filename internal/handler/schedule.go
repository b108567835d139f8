package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lovechedule/lovechedule/internal/lunar"
	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/recurrence"
	"github.com/lovechedule/lovechedule/internal/schedule"
	"github.com/lovechedule/lovechedule/internal/store"
	"github.com/lovechedule/lovechedule/internal/websocket"
)

type ScheduleHandler struct {
	scheduleStore *store.ScheduleStore
	service       *schedule.Service
	hub           *websocket.Hub
	loc           *time.Location
	logger        *slog.Logger
}

func NewScheduleHandler(ss *store.ScheduleStore, svc *schedule.Service, hub *websocket.Hub, loc *time.Location, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleStore: ss, service: svc, hub: hub, loc: loc, logger: logger}
}

type scheduleRequest struct {
	Title         string  `json:"title"`
	Memo          string  `json:"memo"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Calendar      string  `json:"calendar"`
	Repeat        string  `json:"repeat"`
	Participants  []int64 `json:"participants"`
	IsAnniversary bool    `json:"is_anniversary"`
}

func (h *ScheduleHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*scheduleRequest, bool) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}

	if req.Calendar == "" {
		req.Calendar = string(model.CalendarSolar)
	}
	if req.Calendar != string(model.CalendarSolar) && req.Calendar != string(model.CalendarLunar) {
		writeError(w, http.StatusBadRequest, "calendar must be solar or lunar")
		return nil, false
	}

	if !h.validAnchor(req.StartDate, req.Calendar) {
		writeError(w, http.StatusBadRequest, "start_date must be a valid YYYY-MM-DD HH:mm date")
		return nil, false
	}
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}
	if !h.validAnchor(req.EndDate, req.Calendar) {
		writeError(w, http.StatusBadRequest, "end_date must be a valid YYYY-MM-DD HH:mm date")
		return nil, false
	}
	// The layout is fixed-width, so the strings order chronologically.
	if req.EndDate < req.StartDate {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return nil, false
	}

	if req.Repeat == "" {
		req.Repeat = string(model.RepeatNone)
	}
	switch req.Repeat {
	case string(model.RepeatNone), string(model.RepeatMonthly), string(model.RepeatYearly):
	default:
		writeError(w, http.StatusBadRequest, "repeat must be none, monthly or yearly")
		return nil, false
	}

	return &req, true
}

// validAnchor checks a wall-clock anchor against the calendar it lives
// on. Lunar anchors go through the lunar table, since days like 2월
// 30일 exist there but fail solar parsing.
func (h *ScheduleHandler) validAnchor(value, calendar string) bool {
	if calendar == string(model.CalendarLunar) {
		return validLunarAnchor(value)
	}
	_, err := time.ParseInLocation(model.WallClockLayout, value, h.loc)
	return err == nil
}

func validLunarAnchor(value string) bool {
	if len(value) != len(model.WallClockLayout) {
		return false
	}
	if value[4] != '-' || value[7] != '-' || value[10] != ' ' || value[13] != ':' {
		return false
	}
	year, err1 := strconv.Atoi(value[0:4])
	month, err2 := strconv.Atoi(value[5:7])
	day, err3 := strconv.Atoi(value[8:10])
	hour, err4 := strconv.Atoi(value[11:13])
	minute, err5 := strconv.Atoi(value[14:16])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return false
	}
	_, _, _, err := lunar.ToSolar(year, month, day, false)
	return err == nil
}

// Create handles POST /api/workspaces/{id}/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	req, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	sc, err := h.scheduleStore.Create(workspaceID, req.Title, req.Memo, req.StartDate, req.EndDate,
		model.CalendarType(req.Calendar), model.RepeatType(req.Repeat), req.Participants, req.IsAnniversary)
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}

	h.hub.Broadcast(workspaceID, websocket.NewMessage("schedule", "created", sc.ID, nil))
	writeJSON(w, http.StatusCreated, sc)
}

// Resolve handles GET /api/workspaces/{id}/schedules. Query parameters
// year/month/week/day narrow the window; with none, the raw templates
// are listed.
func (h *ScheduleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Resolve(workspaceID, window)
	if err != nil {
		h.logger.Error("resolve schedules", "workspace_id", workspaceID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve schedules")
		return
	}
	if res.Entries == nil {
		res.Entries = []schedule.Entry{}
	}
	writeJSON(w, http.StatusOK, res)
}

// Count handles GET /api/workspaces/{id}/schedules/count
func (h *ScheduleHandler) Count(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	counts, err := h.service.Count(workspaceID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		h.logger.Error("count schedules", "workspace_id", workspaceID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count schedules")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Get handles GET /api/schedules/{id}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sc, err := h.scheduleStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}
	if sc == nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// Update handles PUT /api/schedules/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.scheduleStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}

	req, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	sc, err := h.scheduleStore.Update(id, req.Title, req.Memo, req.StartDate, req.EndDate,
		model.CalendarType(req.Calendar), model.RepeatType(req.Repeat), req.Participants, req.IsAnniversary)
	if err != nil {
		h.logger.Error("update schedule", "schedule_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update schedule")
		return
	}

	h.hub.Broadcast(sc.WorkspaceID, websocket.NewMessage("schedule", "updated", sc.ID, nil))
	writeJSON(w, http.StatusOK, sc)
}

// Delete handles DELETE /api/schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.scheduleStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}

	if err := h.scheduleStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}

	h.hub.Broadcast(existing.WorkspaceID, websocket.NewMessage("schedule", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func parseWindow(r *http.Request) (recurrence.Window, error) {
	var w recurrence.Window
	q := r.URL.Query()

	parse := func(key string, dst *int) error {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return errors.New(key + " must be a positive integer")
		}
		*dst = v
		return nil
	}

	if err := parse("year", &w.Year); err != nil {
		return w, err
	}
	if err := parse("month", &w.Month); err != nil {
		return w, err
	}
	if err := parse("week", &w.Week); err != nil {
		return w, err
	}
	if err := parse("day", &w.Day); err != nil {
		return w, err
	}

	// The narrower fields only make sense inside the wider ones.
	if (w.Day > 0 || w.Week > 0) && w.Month == 0 {
		return w, errors.New("day and week require month")
	}
	if w.Month > 0 && w.Year == 0 {
		return w, errors.New("month requires year")
	}
	if w.Day > 0 && w.Week > 0 {
		return w, errors.New("day and week are mutually exclusive")
	}
	if w.Month > 12 {
		return w, errors.New("month must be 1-12")
	}
	if w.Day > 31 {
		return w, errors.New("day must be 1-31")
	}
	if w.Week > 6 {
		return w, errors.New("week must be 1-6")
	}
	return w, nil
}
