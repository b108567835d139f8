// Package jobs drives the recurring background work: holiday cache
// refreshes, weather refreshes, and the daily notification trigger.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/notify"
	"github.com/lovechedule/lovechedule/internal/weather"
)

// Schedules holds the cron expressions for each job, in the runner's
// timezone.
type Schedules struct {
	HolidayRefresh string
	WeatherRefresh string
	DailyNotify    string
}

// Runner owns the cron scheduler and the jobs it fires.
type Runner struct {
	cron     *cron.Cron
	loc      *time.Location
	logger   *slog.Logger
	holidays *holiday.Cache
	weather  *weather.Service
	trigger  *notify.Trigger
}

func NewRunner(loc *time.Location, holidays *holiday.Cache, weatherSvc *weather.Service, trigger *notify.Trigger, logger *slog.Logger) *Runner {
	return &Runner{
		cron:     cron.New(cron.WithLocation(loc)),
		loc:      loc,
		logger:   logger,
		holidays: holidays,
		weather:  weatherSvc,
		trigger:  trigger,
	}
}

// Start registers the jobs and starts the scheduler. The holiday and
// weather caches are also primed immediately so the first requests
// don't see empty data.
func (r *Runner) Start(ctx context.Context, schedules Schedules) error {
	if _, err := r.cron.AddFunc(schedules.HolidayRefresh, func() {
		r.holidays.Refresh(ctx, time.Now().In(r.loc))
	}); err != nil {
		return fmt.Errorf("schedule holiday refresh: %w", err)
	}

	if _, err := r.cron.AddFunc(schedules.WeatherRefresh, func() {
		r.weather.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("schedule weather refresh: %w", err)
	}

	// No trigger means push is not configured; the refresh jobs still run.
	if r.trigger != nil {
		if _, err := r.cron.AddFunc(schedules.DailyNotify, func() {
			now := time.Now().In(r.loc)
			today := now.Format("2006-01-02")
			tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
			if err := r.trigger.Run(ctx, today, tomorrow); err != nil {
				r.logger.Error("daily notify run failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule daily notify: %w", err)
		}
	}

	go func() {
		r.holidays.Refresh(ctx, time.Now().In(r.loc))
		r.weather.Refresh(ctx)
	}()

	r.cron.Start()
	r.logger.Info("background jobs started",
		"holiday_refresh", schedules.HolidayRefresh,
		"weather_refresh", schedules.WeatherRefresh,
		"daily_notify", schedules.DailyNotify,
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}
