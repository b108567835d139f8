// Package notify implements the daily push trigger: it scans every
// workspace's templates each morning and tells the couple about today's
// schedules and upcoming anniversaries.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/recurrence"
	"github.com/lovechedule/lovechedule/internal/store"
)

const dayLayout = "2006-01-02"

const (
	titleAnniversaryToday    = "오늘은 기념일입니다!"
	titleAnniversaryTomorrow = "내일은 기념일입니다!"
	titleScheduleToday       = "오늘 일정이 있습니다!"
)

// Trigger runs the daily notification passes. It is invoked once per
// day by the cron runner; a duplicate invocation re-sends, dedup is the
// scheduler's job.
type Trigger struct {
	schedules  *store.ScheduleStore
	workspaces *store.WorkspaceStore
	users      *store.UserStore
	pushes     *store.PushStore
	transport  Transport
	loc        *time.Location
	logger     *slog.Logger
}

func NewTrigger(schedules *store.ScheduleStore, workspaces *store.WorkspaceStore, users *store.UserStore, pushes *store.PushStore, transport Transport, loc *time.Location, logger *slog.Logger) *Trigger {
	return &Trigger{
		schedules:  schedules,
		workspaces: workspaces,
		users:      users,
		pushes:     pushes,
		transport:  transport,
		loc:        loc,
		logger:     logger,
	}
}

// Run executes the anniversary pass (today and tomorrow) and the
// regular-schedule pass (today only). Dates are "2006-01-02" strings in
// the trigger's timezone.
func (t *Trigger) Run(ctx context.Context, today, tomorrow string) error {
	todayDate, err := time.ParseInLocation(dayLayout, today, t.loc)
	if err != nil {
		return fmt.Errorf("parse today %q: %w", today, err)
	}
	tomorrowDate, err := time.ParseInLocation(dayLayout, tomorrow, t.loc)
	if err != nil {
		return fmt.Errorf("parse tomorrow %q: %w", tomorrow, err)
	}

	t.anniversaryPass(ctx, todayDate, tomorrowDate)
	t.regularPass(ctx, todayDate)
	return nil
}

func (t *Trigger) anniversaryPass(ctx context.Context, today, tomorrow time.Time) {
	templates, err := t.schedules.ListByAnniversary(true)
	if err != nil {
		t.logger.Error("anniversary pass: list templates", "error", err)
		return
	}

	for i := range templates {
		tpl := &templates[i]

		var title string
		var isToday bool
		switch {
		case t.anniversaryMatches(tpl, today):
			title, isToday = titleAnniversaryToday, true
		case t.anniversaryMatches(tpl, tomorrow):
			title, isToday = titleAnniversaryTomorrow, false
		default:
			continue
		}

		members, err := t.workspaces.Members(tpl.WorkspaceID)
		if err != nil {
			t.logger.Error("anniversary pass: load members", "workspace_id", tpl.WorkspaceID, "error", err)
			continue
		}

		data := map[string]string{
			"type":        "ANNIVERSARY_REMINDER",
			"schedule_id": strconv.FormatInt(tpl.ID, 10),
			"is_today":    strconv.FormatBool(isToday),
		}
		for _, member := range members {
			if !member.PushEnabled || !member.AnniversaryAlert {
				continue
			}
			t.sendToUser(ctx, member.ID, title, tpl.Title, data)
		}
	}
}

func (t *Trigger) regularPass(ctx context.Context, today time.Time) {
	templates, err := t.schedules.ListByAnniversary(false)
	if err != nil {
		t.logger.Error("regular pass: list templates", "error", err)
		return
	}

	for i := range templates {
		tpl := &templates[i]
		if !t.regularMatches(tpl, today) {
			continue
		}

		data := map[string]string{
			"type":        "SCHEDULE_REMINDER",
			"schedule_id": strconv.FormatInt(tpl.ID, 10),
			"is_today":    strconv.FormatBool(true),
		}
		for _, userID := range tpl.Participants {
			user, err := t.users.GetByID(userID)
			if err != nil {
				t.logger.Error("regular pass: load participant", "user_id", userID, "error", err)
				continue
			}
			if user == nil || !user.PushEnabled {
				continue
			}
			t.sendToUser(ctx, user.ID, titleScheduleToday, body(tpl), data)
		}
	}
}

// anniversaryMatches checks the projector predicate first, then falls
// back to a plain month-day comparison for yearly solar anniversaries,
// where a clamped projection could miss the literal anchor date.
func (t *Trigger) anniversaryMatches(tpl *model.Schedule, day time.Time) bool {
	if recurrence.OccursOn(tpl, day, t.loc) {
		return true
	}
	if tpl.Repeat != model.RepeatYearly || tpl.Calendar != model.CalendarSolar {
		return false
	}
	anchorDay, ok := anchorDate(tpl)
	if !ok {
		return false
	}
	return strings.HasSuffix(anchorDay, day.Format("-01-02"))
}

// regularMatches fires on a direct date hit or, for templates stored
// without a repeat policy but meant monthly, a day-of-month hit.
func (t *Trigger) regularMatches(tpl *model.Schedule, day time.Time) bool {
	if recurrence.OccursOn(tpl, day, t.loc) {
		return true
	}
	if tpl.Repeat != model.RepeatMonthly || tpl.Calendar != model.CalendarSolar {
		return false
	}
	anchorDay, ok := anchorDate(tpl)
	if !ok {
		return false
	}
	return strings.HasSuffix(anchorDay, day.Format("-02"))
}

func (t *Trigger) sendToUser(ctx context.Context, userID int64, title, body string, data map[string]string) {
	subs, err := t.pushes.ListByUser(userID)
	if err != nil {
		t.logger.Error("list subscriptions", "user_id", userID, "error", err)
		return
	}
	for i := range subs {
		sub := &subs[i]
		err := t.transport.Send(ctx, sub, title, body, data)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrExpired) {
			if derr := t.pushes.DeleteByEndpoint(sub.Endpoint); derr != nil {
				t.logger.Error("prune expired subscription", "endpoint", sub.Endpoint, "error", derr)
			}
			continue
		}
		t.logger.Warn("push delivery failed", "user_id", userID, "error", err)
	}
}

// body renders "<title> (<HH:mm>)" from the template's anchor clock.
func body(tpl *model.Schedule) string {
	if len(tpl.StartDate) == len(model.WallClockLayout) {
		return fmt.Sprintf("%s (%s)", tpl.Title, tpl.StartDate[len(dayLayout)+1:])
	}
	return tpl.Title
}

func anchorDate(tpl *model.Schedule) (string, bool) {
	if len(tpl.StartDate) < len(dayLayout) {
		return "", false
	}
	return tpl.StartDate[:len(dayLayout)], true
}
