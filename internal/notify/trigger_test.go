package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lovechedule/lovechedule/internal/database"
	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/store"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
	return loc
}()

type sentPush struct {
	UserID int64
	Title  string
	Body   string
	Data   map[string]string
}

type fakeTransport struct {
	sent     []sentPush
	failWith error
}

func (f *fakeTransport) Send(_ context.Context, sub *model.PushSubscription, title, body string, data map[string]string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, sentPush{UserID: sub.UserID, Title: title, Body: body, Data: data})
	return nil
}

type triggerFixture struct {
	trigger   *Trigger
	transport *fakeTransport
	schedules *store.ScheduleStore
	users     *store.UserStore
	pushes    *store.PushStore
	workspace *model.Workspace
	master    *model.User
	guest     *model.User
}

func setupTrigger(t *testing.T) *triggerFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ss := store.NewScheduleStore(db)
	ws := store.NewWorkspaceStore(db)
	us := store.NewUserStore(db)
	ps := store.NewPushStore(db)

	master, err := us.Create("지민", "jimin@example.com")
	if err != nil {
		t.Fatalf("create master: %v", err)
	}
	guest, err := us.Create("하준", "hajun@example.com")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	w, err := ws.Create("우리", master.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if _, err := ws.Join(w.InviteCode, guest.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, u := range []*model.User{master, guest} {
		if _, err := ps.Subscribe(u.ID, "https://push.example.com/"+u.Email, "p256dh", "auth"); err != nil {
			t.Fatalf("subscribe %s: %v", u.Email, err)
		}
	}

	tr := &fakeTransport{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &triggerFixture{
		trigger:   NewTrigger(ss, ws, us, ps, tr, seoul, logger),
		transport: tr,
		schedules: ss,
		users:     us,
		pushes:    ps,
		workspace: w,
		master:    master,
		guest:     guest,
	}
}

func (f *triggerFixture) run(t *testing.T, today, tomorrow string) {
	t.Helper()
	if err := f.trigger.Run(context.Background(), today, tomorrow); err != nil {
		t.Fatalf("run trigger: %v", err)
	}
}

func TestAnniversaryTodayNotifiesBothMembers(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.schedules.Create(f.workspace.ID, "100일", "", "2025-01-24 00:00", "2025-01-24 00:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.master.ID}, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-01-24", "2025-01-25")

	if len(f.transport.sent) != 2 {
		t.Fatalf("sent = %d pushes, want both members: %+v", len(f.transport.sent), f.transport.sent)
	}
	for _, push := range f.transport.sent {
		if push.Title != "오늘은 기념일입니다!" {
			t.Errorf("title = %q", push.Title)
		}
		if push.Body != "100일" {
			t.Errorf("body = %q", push.Body)
		}
		if push.Data["is_today"] != "true" {
			t.Errorf("is_today = %q, want string true", push.Data["is_today"])
		}
		if push.Data["type"] != "ANNIVERSARY_REMINDER" {
			t.Errorf("type = %q", push.Data["type"])
		}
	}
}

func TestAnniversaryTomorrow(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.schedules.Create(f.workspace.ID, "사귄 날", "", "2023-06-15 00:00", "2023-06-15 00:00",
		model.CalendarSolar, model.RepeatYearly, []int64{f.master.ID}, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-06-14", "2025-06-15")

	if len(f.transport.sent) != 2 {
		t.Fatalf("sent = %+v", f.transport.sent)
	}
	if f.transport.sent[0].Title != "내일은 기념일입니다!" {
		t.Errorf("title = %q", f.transport.sent[0].Title)
	}
	if f.transport.sent[0].Data["is_today"] != "false" {
		t.Errorf("is_today = %q, want string false", f.transport.sent[0].Data["is_today"])
	}
}

func TestAnniversaryWithoutRepeatFiresOnceOnly(t *testing.T) {
	f := setupTrigger(t)

	// A one-off anniversary anchored in a past year stays silent on later
	// same month-day dates; the suffix shortcut is for yearly repeats only.
	if _, err := f.schedules.Create(f.workspace.ID, "프로포즈", "", "2023-06-15 00:00", "2023-06-15 00:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.master.ID}, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-06-15", "2025-06-16")

	if len(f.transport.sent) != 0 {
		t.Fatalf("one-off anniversary re-fired: %+v", f.transport.sent)
	}
}

func TestAnniversaryRespectsAlertToggle(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.users.UpdateNotificationPrefs(f.guest.ID, true, false); err != nil {
		t.Fatalf("update prefs: %v", err)
	}
	if _, err := f.schedules.Create(f.workspace.ID, "결혼기념일", "", "2024-03-01 00:00", "2024-03-01 00:00",
		model.CalendarSolar, model.RepeatYearly, []int64{f.master.ID, f.guest.ID}, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-03-01", "2025-03-02")

	if len(f.transport.sent) != 1 || f.transport.sent[0].UserID != f.master.ID {
		t.Fatalf("only the master should be notified: %+v", f.transport.sent)
	}
}

func TestRegularPassNotifiesParticipantsOnly(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.schedules.Create(f.workspace.ID, "필라테스", "", "2025-05-12 19:00", "2025-05-12 20:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.guest.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-05-12", "2025-05-13")

	if len(f.transport.sent) != 1 {
		t.Fatalf("sent = %+v", f.transport.sent)
	}
	got := f.transport.sent[0]
	if got.UserID != f.guest.ID {
		t.Errorf("recipient = %d, want guest %d", got.UserID, f.guest.ID)
	}
	if got.Title != "오늘 일정이 있습니다!" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Body != "필라테스 (19:00)" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestRegularPassSkipsOtherDays(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.schedules.Create(f.workspace.ID, "내일 일정", "", "2025-05-13 10:00", "2025-05-13 11:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-05-12", "2025-05-13")

	if len(f.transport.sent) != 0 {
		t.Fatalf("regular pass must not look at tomorrow: %+v", f.transport.sent)
	}
}

func TestRegularPassRespectsPushToggle(t *testing.T) {
	f := setupTrigger(t)

	if _, err := f.users.UpdateNotificationPrefs(f.master.ID, false, true); err != nil {
		t.Fatalf("update prefs: %v", err)
	}
	if _, err := f.schedules.Create(f.workspace.ID, "운동", "", "2025-05-12 07:00", "2025-05-12 08:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-05-12", "2025-05-13")

	if len(f.transport.sent) != 0 {
		t.Fatalf("push-disabled user must not be notified: %+v", f.transport.sent)
	}
}

func TestExpiredSubscriptionIsPruned(t *testing.T) {
	f := setupTrigger(t)
	f.transport.failWith = ErrExpired

	if _, err := f.schedules.Create(f.workspace.ID, "운동", "", "2025-05-12 07:00", "2025-05-12 08:00",
		model.CalendarSolar, model.RepeatNone, []int64{f.master.ID}, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-05-12", "2025-05-13")

	subs, err := f.pushes.ListByUser(f.master.ID)
	if err != nil {
		t.Fatalf("list subs: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expired subscription should be removed: %+v", subs)
	}
}

func TestLunarAnniversary(t *testing.T) {
	f := setupTrigger(t)

	// Lunar 8/15 (Chuseok-style anniversary); 2025 falls on October 6.
	if _, err := f.schedules.Create(f.workspace.ID, "음력 기념일", "", "2024-08-15 00:00", "2024-08-15 00:00",
		model.CalendarLunar, model.RepeatYearly, []int64{f.master.ID}, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t, "2025-10-06", "2025-10-07")

	if len(f.transport.sent) != 2 {
		t.Fatalf("sent = %+v", f.transport.sent)
	}
	if f.transport.sent[0].Title != "오늘은 기념일입니다!" {
		t.Errorf("title = %q", f.transport.sent[0].Title)
	}
}
