package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lovechedule/lovechedule/internal/database"
	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/recurrence"
	"github.com/lovechedule/lovechedule/internal/store"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
	return loc
}()

type staticFetcher struct {
	entries map[int][]holiday.Entry
}

func (f staticFetcher) FetchYear(_ context.Context, year int) ([]holiday.Entry, error) {
	return f.entries[year], nil
}

type fixture struct {
	svc        *Service
	schedules  *store.ScheduleStore
	workspaces *store.WorkspaceStore
	users      *store.UserStore
}

func setupService(t *testing.T, holidays map[int][]holiday.Entry) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := holiday.NewCache(staticFetcher{entries: holidays}, logger)
	cache.Refresh(context.Background(), time.Date(2025, time.June, 1, 0, 0, 0, 0, seoul))

	ss := store.NewScheduleStore(db)
	ws := store.NewWorkspaceStore(db)
	us := store.NewUserStore(db)
	return &fixture{
		svc:        NewService(ss, ws, cache, seoul, logger),
		schedules:  ss,
		workspaces: ws,
		users:      us,
	}
}

func (f *fixture) couple(t *testing.T) (*model.Workspace, *model.User, *model.User) {
	t.Helper()
	master, err := f.users.Create("지민", "jimin@example.com")
	if err != nil {
		t.Fatalf("create master: %v", err)
	}
	guest, err := f.users.Create("하준", "hajun@example.com")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	w, err := f.workspaces.Create("우리", master.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if _, err := f.workspaces.Join(w.InviteCode, guest.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	return w, master, guest
}

func TestResolveMonthWindow(t *testing.T) {
	f := setupService(t, nil)
	w, master, _ := f.couple(t)

	mk := func(title, start, end string, cal model.CalendarType, repeat model.RepeatType) {
		t.Helper()
		if _, err := f.schedules.Create(w.ID, title, "", start, end, cal, repeat, []int64{master.ID}, false); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	mk("영화", "2025-05-10 19:00", "2025-05-10 21:00", model.CalendarSolar, model.RepeatNone)
	mk("월급날", "2024-01-25 00:00", "2024-01-25 00:00", model.CalendarSolar, model.RepeatMonthly)
	mk("지난 달", "2025-04-01 10:00", "2025-04-01 11:00", model.CalendarSolar, model.RepeatNone)

	res, err := f.svc.Resolve(w.ID, recurrence.Window{Year: 2025, Month: 5})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2: %+v", len(res.Entries), res.Entries)
	}
	// Ascending by resolved start.
	if res.Entries[0].Title != "영화" || res.Entries[1].Title != "월급날" {
		t.Errorf("order = %q, %q", res.Entries[0].Title, res.Entries[1].Title)
	}
	if res.Entries[1].StartDate != "2025-05-25 00:00" {
		t.Errorf("monthly projected to %q", res.Entries[1].StartDate)
	}
}

func TestResolveLunarYearly(t *testing.T) {
	f := setupService(t, nil)
	w, master, _ := f.couple(t)

	// Lunar 4/8 (Buddha's birthday); anchor stored as a lunar wall-clock.
	if _, err := f.schedules.Create(w.ID, "부처님 오신 날", "", "2024-04-08 00:00", "2024-04-08 00:00",
		model.CalendarLunar, model.RepeatYearly, []int64{master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Resolve(w.ID, recurrence.Window{Year: 2025, Month: 5})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	if res.Entries[0].StartDate != "2025-05-05 00:00" {
		t.Errorf("lunar 4/8 of 2025 resolved to %q, want 2025-05-05 00:00", res.Entries[0].StartDate)
	}
}

func TestResolveSkipsCorruptTemplate(t *testing.T) {
	f := setupService(t, nil)
	w, master, _ := f.couple(t)

	if _, err := f.schedules.Create(w.ID, "정상", "", "2025-05-10 09:00", "2025-05-10 10:00",
		model.CalendarSolar, model.RepeatNone, []int64{master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.schedules.Create(w.ID, "깨진 일정", "", "not-a-date", "also-bad",
		model.CalendarSolar, model.RepeatMonthly, []int64{master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Resolve(w.ID, recurrence.Window{Year: 2025, Month: 5})
	if err != nil {
		t.Fatalf("resolve should not fail on one corrupt row: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Title != "정상" {
		t.Fatalf("entries = %+v", res.Entries)
	}
}

func TestResolveMergesHolidays(t *testing.T) {
	f := setupService(t, map[int][]holiday.Entry{
		2025: {
			{Locdate: 20250505, DateName: "어린이날", IsHoliday: "Y"},
			{Locdate: 20250815, DateName: "광복절", IsHoliday: "Y"},
		},
	})
	w, master, _ := f.couple(t)

	if _, err := f.schedules.Create(w.ID, "영화", "", "2025-05-10 19:00", "2025-05-10 21:00",
		model.CalendarSolar, model.RepeatNone, []int64{master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Resolve(w.ID, recurrence.Window{Year: 2025, Month: 5})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// One list, date-sorted: the May 5 holiday comes before the May 10 movie.
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	h := res.Entries[0]
	if !h.IsHoliday || h.Title != "어린이날" {
		t.Fatalf("first entry = %+v, want the holiday", h)
	}
	if h.Description != "Public Holiday" {
		t.Errorf("description = %q", h.Description)
	}
	if h.StartDate != "2025-05-05 00:00" {
		t.Errorf("holiday start = %q", h.StartDate)
	}
	if len(h.Participants) != 0 {
		t.Errorf("holiday participants = %v, want none", h.Participants)
	}
	if res.Entries[1].Title != "영화" || res.Entries[1].IsHoliday {
		t.Errorf("second entry = %+v, want the schedule", res.Entries[1])
	}
}

func TestResolveSortIsStable(t *testing.T) {
	f := setupService(t, nil)
	w, master, _ := f.couple(t)

	// Two schedules resolving to the identical start keep their insert order.
	for _, title := range []string{"첫째", "둘째"} {
		if _, err := f.schedules.Create(w.ID, title, "", "2025-05-10 09:00", "2025-05-10 10:00",
			model.CalendarSolar, model.RepeatNone, []int64{master.ID}, false); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	res, err := f.svc.Resolve(w.ID, recurrence.Window{Year: 2025, Month: 5})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	if res.Entries[0].Title != "첫째" || res.Entries[1].Title != "둘째" {
		t.Errorf("tied entries reordered: %q, %q", res.Entries[0].Title, res.Entries[1].Title)
	}
}

func TestResolveListingMode(t *testing.T) {
	f := setupService(t, map[int][]holiday.Entry{
		2025: {{Locdate: 20250505, DateName: "어린이날", IsHoliday: "Y"}},
	})
	w, master, _ := f.couple(t)

	if _, err := f.schedules.Create(w.ID, "반복", "", "2024-01-31 09:00", "2024-01-31 10:00",
		model.CalendarSolar, model.RepeatMonthly, []int64{master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Resolve(w.ID, recurrence.Window{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	// Raw template, unprojected, no holiday rows.
	if res.Entries[0].StartDate != "2024-01-31 09:00" {
		t.Errorf("listing mode should keep the anchor, got %q", res.Entries[0].StartDate)
	}
	if res.Entries[0].IsHoliday {
		t.Errorf("listing mode should not merge holidays: %+v", res.Entries[0])
	}
}

func TestCountClassification(t *testing.T) {
	f := setupService(t, nil)
	w, master, guest := f.couple(t)

	mk := func(title string, participants []int64, ann bool) {
		t.Helper()
		if _, err := f.schedules.Create(w.ID, title, "", "2025-05-10 09:00", "2025-05-10 10:00",
			model.CalendarSolar, model.RepeatNone, participants, ann); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	mk("마스터만", []int64{master.ID}, false)
	mk("게스트만", []int64{guest.ID}, false)
	mk("함께", []int64{master.ID, guest.ID}, false)
	mk("함께2", []int64{master.ID, guest.ID}, false)
	mk("기념일", []int64{master.ID, guest.ID}, true)

	counts, err := f.svc.Count(w.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	want := Counts{Master: 1, Guest: 1, Together: 2, Anniversary: 1}
	if *counts != want {
		t.Errorf("counts = %+v, want %+v", *counts, want)
	}
}

func TestCountNotFound(t *testing.T) {
	f := setupService(t, nil)

	if _, err := f.svc.Count(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing workspace err = %v, want ErrNotFound", err)
	}

	// Workspace with only the master enrolled is not countable yet.
	master, _ := f.users.Create("지민", "jimin@example.com")
	w, err := f.workspaces.Create("혼자", master.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if _, err := f.svc.Count(w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("single-member workspace err = %v, want ErrNotFound", err)
	}
}
