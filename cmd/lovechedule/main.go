package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lovechedule/lovechedule/internal/config"
	"github.com/lovechedule/lovechedule/internal/database"
	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/jobs"
	"github.com/lovechedule/lovechedule/internal/logging"
	"github.com/lovechedule/lovechedule/internal/notify"
	"github.com/lovechedule/lovechedule/internal/server"
	"github.com/lovechedule/lovechedule/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("failed to load timezone %q: %v", cfg.Timezone, err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	holidayCache := holiday.NewCache(
		holiday.NewClient(cfg.Holiday.ServiceKey),
		logger.With("component", "holiday"),
	)

	weatherSvc := weather.NewService(weather.Config{
		Latitude:        cfg.Weather.Latitude,
		Longitude:       cfg.Weather.Longitude,
		TemperatureUnit: cfg.Weather.TemperatureUnit,
	}, logger.With("component", "weather"))

	var pushTransport *notify.WebPushTransport
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushTransport = notify.NewWebPushTransport(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	} else {
		logger.Warn("VAPID keys not configured, push notifications disabled")
	}

	srv := server.New(db, server.Config{
		Location:      loc,
		HolidayCache:  holidayCache,
		WeatherSvc:    weatherSvc,
		PushTransport: pushTransport,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var trigger *notify.Trigger
	if pushTransport != nil {
		trigger = notify.NewTrigger(
			srv.ScheduleStore(), srv.WorkspaceStore(), srv.UserStore(), srv.PushStore(),
			pushTransport, loc, logger.With("component", "notify"),
		)
	}

	runner := jobs.NewRunner(loc, holidayCache, weatherSvc, trigger, logger.With("component", "jobs"))
	if err := runner.Start(ctx, jobs.Schedules{
		HolidayRefresh: cfg.Holiday.RefreshCron,
		WeatherRefresh: cfg.Weather.RefreshCron,
		DailyNotify:    cfg.Notify.Cron,
	}); err != nil {
		log.Fatalf("failed to start background jobs: %v", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("lovechedule listening", "port", cfg.Port, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	runner.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
