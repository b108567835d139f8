package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lovechedule/lovechedule/internal/handler"
	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/middleware"
	"github.com/lovechedule/lovechedule/internal/notify"
	"github.com/lovechedule/lovechedule/internal/schedule"
	"github.com/lovechedule/lovechedule/internal/store"
	"github.com/lovechedule/lovechedule/internal/weather"
	ws "github.com/lovechedule/lovechedule/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	scheduleH  *handler.ScheduleHandler
	workspaceH *handler.WorkspaceHandler
	userH      *handler.UserHandler
	pushH      *handler.PushHandler
	weatherH   *handler.WeatherHandler

	scheduleStore  *store.ScheduleStore
	workspaceStore *store.WorkspaceStore
	userStore      *store.UserStore
	pushStore      *store.PushStore

	logger *slog.Logger
}

// Config carries the pieces the server wires together but does not own.
type Config struct {
	Location      *time.Location
	HolidayCache  *holiday.Cache
	WeatherSvc    *weather.Service
	PushTransport *notify.WebPushTransport
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	scheduleStore := store.NewScheduleStore(db)
	workspaceStore := store.NewWorkspaceStore(db)
	userStore := store.NewUserStore(db)
	pushStore := store.NewPushStore(db)

	scheduleSvc := schedule.NewService(scheduleStore, workspaceStore, cfg.HolidayCache, cfg.Location, logger.With("component", "schedule"))

	var pushH *handler.PushHandler
	if cfg.PushTransport != nil {
		pushH = handler.NewPushHandler(pushStore, userStore, cfg.PushTransport, logger.With("component", "push_handler"))
	}

	return &Server{
		db:             db,
		hub:            hub,
		scheduleH:      handler.NewScheduleHandler(scheduleStore, scheduleSvc, hub, cfg.Location, logger.With("component", "schedule_handler")),
		workspaceH:     handler.NewWorkspaceHandler(workspaceStore, userStore, logger.With("component", "workspace_handler")),
		userH:          handler.NewUserHandler(userStore, workspaceStore, logger.With("component", "user_handler")),
		pushH:          pushH,
		weatherH:       handler.NewWeatherHandler(cfg.WeatherSvc),
		scheduleStore:  scheduleStore,
		workspaceStore: workspaceStore,
		userStore:      userStore,
		pushStore:      pushStore,
		logger:         logger,
	}
}

// Store accessors for wiring the background jobs against the same
// stores the handlers use.

func (s *Server) ScheduleStore() *store.ScheduleStore   { return s.scheduleStore }
func (s *Server) WorkspaceStore() *store.WorkspaceStore { return s.workspaceStore }
func (s *Server) UserStore() *store.UserStore           { return s.userStore }
func (s *Server) PushStore() *store.PushStore           { return s.pushStore }
func (s *Server) Hub() *ws.Hub                          { return s.hub }

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Users
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("GET /api/users/{id}/workspaces", s.userH.Workspaces)
	mux.HandleFunc("PUT /api/users/{id}/notifications", s.userH.UpdatePrefs)

	// Workspaces
	mux.HandleFunc("POST /api/workspaces", s.workspaceH.Create)
	mux.HandleFunc("POST /api/workspaces/join", s.workspaceH.Join)
	mux.HandleFunc("GET /api/workspaces/{id}", s.workspaceH.Get)
	mux.HandleFunc("GET /api/workspaces/{id}/members", s.workspaceH.Members)

	// Schedules
	mux.HandleFunc("POST /api/workspaces/{id}/schedules", s.scheduleH.Create)
	mux.HandleFunc("GET /api/workspaces/{id}/schedules", s.scheduleH.Resolve)
	mux.HandleFunc("GET /api/workspaces/{id}/schedules/count", s.scheduleH.Count)
	mux.HandleFunc("GET /api/schedules/{id}", s.scheduleH.Get)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleH.Update)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Delete)

	// Push subscriptions
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-public-key", s.pushH.VAPIDPublicKey)
	}

	// Weather
	mux.HandleFunc("GET /api/weather", s.weatherH.Get)

	// Real-time sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
