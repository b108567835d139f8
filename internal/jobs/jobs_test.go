package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lovechedule/lovechedule/internal/database"
	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/notify"
	"github.com/lovechedule/lovechedule/internal/store"
	"github.com/lovechedule/lovechedule/internal/weather"
)

type noopFetcher struct{}

func (noopFetcher) FetchYear(context.Context, int) ([]holiday.Entry, error) { return nil, nil }

type noopTransport struct{}

func (noopTransport) Send(context.Context, *model.PushSubscription, string, string, map[string]string) error {
	return nil
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	ss := store.NewScheduleStore(db)
	ws := store.NewWorkspaceStore(db)
	us := store.NewUserStore(db)
	ps := store.NewPushStore(db)

	cache := holiday.NewCache(noopFetcher{}, logger)
	weatherSvc := weather.NewService(weather.Config{}, logger)
	trigger := notify.NewTrigger(ss, ws, us, ps, noopTransport{}, loc, logger)
	return NewRunner(loc, cache, weatherSvc, trigger, logger)
}

func TestStartRejectsBadCron(t *testing.T) {
	r := newTestRunner(t)
	err := r.Start(context.Background(), Schedules{
		HolidayRefresh: "not a cron expression",
		WeatherRefresh: "*/30 * * * *",
		DailyNotify:    "0 9 * * *",
	})
	if err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestStartAndStop(t *testing.T) {
	r := newTestRunner(t)
	err := r.Start(context.Background(), Schedules{
		HolidayRefresh: "0 3 1 * *",
		WeatherRefresh: "*/30 * * * *",
		DailyNotify:    "0 9 * * *",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Stop()
}
