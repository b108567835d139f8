// Package recurrence projects stored schedule templates onto concrete solar
// dates inside a requested window, handling monthly/yearly repetition and
// lunar-anchored templates.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/lovechedule/lovechedule/internal/lunar"
	"github.com/lovechedule/lovechedule/internal/model"
)

// Occurrence is one concrete, dated materialization of a template for a
// specific request window. AltDate carries the counterpart calendar's
// rendering of the resolved start, for display only.
type Occurrence struct {
	Start   time.Time
	End     time.Time
	AltDate string
}

// Project computes the occurrences of a template that fall inside the
// window. A recurring template that has no valid date in the window (a lunar
// day the target month doesn't reach, a missing intercalary month) simply
// yields nothing; that is not an error. Short solar months clamp to their
// last day.
func Project(s *model.Schedule, w Window, loc *time.Location) ([]Occurrence, error) {
	anchorStart, err := time.ParseInLocation(model.WallClockLayout, s.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("parse start anchor %q: %w", s.StartDate, err)
	}
	anchorEnd, err := time.ParseInLocation(model.WallClockLayout, s.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("parse end anchor %q: %w", s.EndDate, err)
	}
	if anchorEnd.Before(anchorStart) {
		return nil, fmt.Errorf("end anchor %q precedes start anchor %q", s.EndDate, s.StartDate)
	}

	rangeStart, rangeEnd := w.Range(loc)
	spanDays := daysBetween(anchorStart, anchorEnd)

	var occs []Occurrence
	keep := func(start, end time.Time) {
		if !w.IsZero() && (!start.Before(rangeEnd) || end.Before(rangeStart)) {
			return
		}
		occs = append(occs, Occurrence{Start: start, End: end, AltDate: altDisplay(s.Calendar, start)})
	}
	// emit derives the end by preserving the anchor's day offset and the end
	// anchor's clock.
	emit := func(start time.Time) {
		endDay := start.AddDate(0, 0, spanDays)
		end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), anchorEnd.Hour(), anchorEnd.Minute(), 0, 0, loc)
		keep(start, end)
	}

	switch s.Repeat {
	case model.RepeatNone:
		start, end := anchorStart, anchorEnd
		if s.Calendar == model.CalendarLunar {
			if start, err = solarize(anchorStart, loc); err != nil {
				return nil, err
			}
			if end, err = solarize(anchorEnd, loc); err != nil {
				return nil, err
			}
		}
		keep(start, end)

	case model.RepeatMonthly:
		if w.IsZero() {
			return nil, nil
		}
		if s.Calendar == model.CalendarLunar {
			// Lunar months run behind their solar number, so resolving the
			// window's own month number would land outside the window. Walk
			// the lunar months that actually overlap the window's solar span
			// instead and let the containment filter keep the hits.
			for _, lm := range lunarMonthsIn(rangeStart, rangeEnd) {
				start, err := lunarStart(lm.year, lm.month, anchorStart.Day(), lm.leap, anchorStart, loc)
				if err != nil {
					if isNoMatch(err) || errors.Is(err, lunar.ErrOutOfRange) {
						continue
					}
					return nil, err
				}
				emit(start)
			}
			break
		}
		for _, m := range w.months() {
			day := clampDay(anchorStart.Day(), w.Year, time.Month(m))
			emit(time.Date(w.Year, time.Month(m), day, anchorStart.Hour(), anchorStart.Minute(), 0, 0, loc))
		}

	case model.RepeatYearly:
		if w.IsZero() {
			return nil, nil
		}
		if s.Calendar == model.CalendarLunar {
			// A solar window overlaps two lunar years (lunar 12월 dates fall
			// in the next solar January). Resolve against both candidates and
			// keep the one inside the window.
			for _, ly := range []int{w.Year - 1, w.Year} {
				start, err := lunarStart(ly, int(anchorStart.Month()), anchorStart.Day(), false, anchorStart, loc)
				if err != nil {
					if isNoMatch(err) || errors.Is(err, lunar.ErrOutOfRange) {
						continue
					}
					return nil, err
				}
				emit(start)
			}
			break
		}
		day := clampDay(anchorStart.Day(), w.Year, anchorStart.Month())
		emit(time.Date(w.Year, anchorStart.Month(), day, anchorStart.Hour(), anchorStart.Minute(), 0, 0, loc))

	default:
		return nil, fmt.Errorf("unknown repeat policy %q", s.Repeat)
	}

	return occs, nil
}

// OccursOn reports whether the template materializes on the given calendar
// day. This is the single-day predicate the notification trigger reuses.
func OccursOn(s *model.Schedule, day time.Time, loc *time.Location) bool {
	occs, err := Project(s, Window{Year: day.Year(), Month: int(day.Month()), Day: day.Day()}, loc)
	return err == nil && len(occs) > 0
}

// solarize converts a lunar-calendar anchor to the solar wall clock time it
// falls on, keeping the anchor's clock.
func solarize(t time.Time, loc *time.Location) (time.Time, error) {
	y, m, d, err := lunar.ToSolar(t.Year(), int(t.Month()), t.Day(), false)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}

func lunarStart(year, month, day int, leap bool, anchor time.Time, loc *time.Location) (time.Time, error) {
	sy, sm, sd, err := lunar.ToSolar(year, month, day, leap)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(sy, sm, sd, anchor.Hour(), anchor.Minute(), 0, 0, loc), nil
}

type lunarMonth struct {
	year, month int
	leap        bool
}

func (m lunarMonth) next() lunarMonth {
	if !m.leap && lunar.LeapMonth(m.year) == m.month {
		return lunarMonth{m.year, m.month, true}
	}
	if m.month == 12 {
		return lunarMonth{m.year + 1, 1, false}
	}
	return lunarMonth{m.year, m.month + 1, false}
}

// lunarMonthsIn walks the lunar months overlapping the solar span
// [start, end), intercalary months included.
func lunarMonthsIn(start, end time.Time) []lunarMonth {
	first, err := lunar.FromSolar(start.Date())
	if err != nil {
		return nil
	}
	last, err := lunar.FromSolar(end.AddDate(0, 0, -1).Date())
	if err != nil {
		last = first
	}
	cur := lunarMonth{first.Year, first.Month, first.LeapMonth}
	stop := lunarMonth{last.Year, last.Month, last.LeapMonth}
	months := []lunarMonth{cur}
	for cur != stop && cur.year <= stop.year {
		cur = cur.next()
		months = append(months, cur)
	}
	return months
}

// isNoMatch separates "this window has no such date" from real conversion
// failures; only the former is swallowed for recurring templates.
func isNoMatch(err error) bool {
	return errors.Is(err, lunar.ErrNoSuchDay) || errors.Is(err, lunar.ErrNoLeapMonth)
}

// clampDay clamps an anchor day-of-month to the target month's last day, so
// "monthly on the 31st" lands on Apr 30 and a Feb 29 yearly anchor lands on
// Feb 28 in non-leap years.
func clampDay(day, year int, month time.Month) int {
	if last := daysInMonth(year, month); day > last {
		return last
	}
	return day
}

func altDisplay(cal model.CalendarType, start time.Time) string {
	if cal == model.CalendarLunar {
		return start.Format("2006-01-02")
	}
	ld, err := lunar.FromSolar(start.Date())
	if err != nil {
		return ""
	}
	return ld.String()
}

func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
