// Package schedule resolves a workspace's stored templates into the
// concrete calendar view a client asks for, merging public holidays and
// classifying templates for the couple's summary counts.
package schedule

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/lovechedule/lovechedule/internal/holiday"
	"github.com/lovechedule/lovechedule/internal/model"
	"github.com/lovechedule/lovechedule/internal/recurrence"
	"github.com/lovechedule/lovechedule/internal/store"
)

// ErrNotFound is returned by Count when the workspace does not exist or
// does not yet have both members.
var ErrNotFound = errors.New("workspace not found")

// Entry is one resolved calendar item: either a template's fields plus
// the concrete occurrence dates for the requested window, or a synthetic
// holiday row with IsHoliday set and no participants.
type Entry struct {
	ScheduleID    int64              `json:"schedule_id,omitempty"`
	Title         string             `json:"title"`
	Memo          string             `json:"memo,omitempty"`
	Description   string             `json:"description,omitempty"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	AltDate       string             `json:"alt_date,omitempty"`
	Calendar      model.CalendarType `json:"calendar"`
	Repeat        model.RepeatType   `json:"repeat"`
	Participants  []int64            `json:"participants"`
	IsAnniversary bool               `json:"is_anniversary"`
	IsHoliday     bool               `json:"is_holiday"`
}

// Resolution is the full answer to a window request: occurrences and
// holidays interleaved into one date-sorted list.
type Resolution struct {
	Entries []Entry `json:"schedules"`
}

// Counts partitions a workspace's raw templates. Anniversaries are
// counted apart; the remaining three buckets split by who participates.
type Counts struct {
	Master      int `json:"master"`
	Guest       int `json:"guest"`
	Together    int `json:"together"`
	Anniversary int `json:"anniversary"`
}

type Service struct {
	schedules  *store.ScheduleStore
	workspaces *store.WorkspaceStore
	holidays   *holiday.Cache
	loc        *time.Location
	logger     *slog.Logger
}

func NewService(schedules *store.ScheduleStore, workspaces *store.WorkspaceStore, holidays *holiday.Cache, loc *time.Location, logger *slog.Logger) *Service {
	return &Service{
		schedules:  schedules,
		workspaces: workspaces,
		holidays:   holidays,
		loc:        loc,
		logger:     logger,
	}
}

// Resolve computes the workspace's calendar view for a window. A zero
// window lists the raw templates without projection or holidays. A
// template that fails to project (corrupt anchor) is logged and skipped
// so one bad row never takes down the whole calendar.
func (s *Service) Resolve(workspaceID int64, w recurrence.Window) (*Resolution, error) {
	if w.IsZero() {
		templates, err := s.schedules.ListByWorkspace(workspaceID)
		if err != nil {
			return nil, err
		}
		res := &Resolution{}
		for i := range templates {
			res.Entries = append(res.Entries, templateEntry(&templates[i]))
		}
		return res, nil
	}

	rangeStart, rangeEnd := w.Range(s.loc)
	candidates, err := s.schedules.FindCandidates(
		workspaceID,
		rangeStart.Format(model.WallClockLayout),
		rangeEnd.Format(model.WallClockLayout),
	)
	if err != nil {
		return nil, err
	}

	res := &Resolution{}
	for i := range candidates {
		tpl := &candidates[i]
		occs, err := recurrence.Project(tpl, w, s.loc)
		if err != nil {
			s.logger.Warn("skipping unprojectable schedule", "schedule_id", tpl.ID, "error", err)
			continue
		}
		for _, occ := range occs {
			res.Entries = append(res.Entries, occurrenceEntry(tpl, occ))
		}
	}

	for _, h := range holiday.Merge(s.holidays.Get(w.Year), w, s.loc) {
		res.Entries = append(res.Entries, holidayEntry(h))
	}

	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].StartDate < res.Entries[j].StartDate
	})
	return res, nil
}

// Count classifies the workspace's raw templates against its master and
// guest members.
func (s *Service) Count(workspaceID int64) (*Counts, error) {
	w, err := s.workspaces.GetByID(workspaceID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNotFound
	}
	members, err := s.workspaces.Members(workspaceID)
	if err != nil {
		return nil, err
	}
	if len(members) < model.MaxWorkspaceMembers {
		return nil, ErrNotFound
	}

	masterID := w.MasterID
	var guestID int64
	for _, m := range members {
		if m.ID != masterID {
			guestID = m.ID
			break
		}
	}

	templates, err := s.schedules.ListByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	counts := &Counts{}
	for i := range templates {
		tpl := &templates[i]
		switch {
		case tpl.IsAnniversary:
			counts.Anniversary++
		case tpl.HasParticipant(masterID) && tpl.HasParticipant(guestID):
			counts.Together++
		case tpl.HasParticipant(masterID):
			counts.Master++
		case tpl.HasParticipant(guestID):
			counts.Guest++
		}
	}
	return counts, nil
}

func templateEntry(tpl *model.Schedule) Entry {
	return Entry{
		ScheduleID:    tpl.ID,
		Title:         tpl.Title,
		Memo:          tpl.Memo,
		StartDate:     tpl.StartDate,
		EndDate:       tpl.EndDate,
		Calendar:      tpl.Calendar,
		Repeat:        tpl.Repeat,
		Participants:  tpl.Participants,
		IsAnniversary: tpl.IsAnniversary,
	}
}

func occurrenceEntry(tpl *model.Schedule, occ recurrence.Occurrence) Entry {
	e := templateEntry(tpl)
	e.StartDate = occ.Start.Format(model.WallClockLayout)
	e.EndDate = occ.End.Format(model.WallClockLayout)
	e.AltDate = occ.AltDate
	return e
}

func holidayEntry(h holiday.Resolved) Entry {
	day := h.Date.Format(model.WallClockLayout)
	return Entry{
		Title:        h.Name,
		Description:  h.Description,
		StartDate:    day,
		EndDate:      day,
		Calendar:     model.CalendarSolar,
		Repeat:       model.RepeatNone,
		Participants: []int64{},
		IsHoliday:    true,
	}
}
