package recurrence

import "time"

// Window is the span a resolution request asks for. Zero fields are absent;
// the valid shapes are {year}, {year, month}, {year, month, week} and
// {year, month, day}. A fully zero window means "no date filter" (raw
// listing mode).
type Window struct {
	Year  int
	Month int
	Week  int
	Day   int
}

// IsZero reports listing mode (no year requested).
func (w Window) IsZero() bool { return w.Year == 0 }

// Range returns the solar [start, end) span the window implies. Week windows
// are anchored at startOfMonth + (week-1)*7 days, floored to that week's
// Monday, spanning 7 days.
func (w Window) Range(loc *time.Location) (time.Time, time.Time) {
	switch {
	case w.Day > 0:
		start := time.Date(w.Year, time.Month(w.Month), w.Day, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1)
	case w.Week > 0:
		anchor := time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, loc).AddDate(0, 0, (w.Week-1)*7)
		start := weekStart(anchor)
		return start, start.AddDate(0, 0, 7)
	case w.Month > 0:
		start := time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	default:
		start := time.Date(w.Year, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	}
}

// months returns the candidate months a monthly template is projected onto.
func (w Window) months() []int {
	if w.Month > 0 {
		return []int{w.Month}
	}
	ms := make([]int, 12)
	for i := range ms {
		ms[i] = i + 1
	}
	return ms
}

func weekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	monday := t.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
