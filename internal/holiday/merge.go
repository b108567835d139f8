package holiday

import (
	"time"

	"github.com/lovechedule/lovechedule/internal/recurrence"
)

// Resolved is a holiday placed on the calendar, ready to interleave
// with resolved schedule occurrences.
type Resolved struct {
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Merge filters entries down to the window span and attaches the
// display description. Entries with isHoliday "Y" are public holidays;
// the feed also carries designated workdays, which are kept but labeled.
func Merge(entries []Entry, w recurrence.Window, loc *time.Location) []Resolved {
	if w.IsZero() {
		return nil
	}
	rangeStart, rangeEnd := w.Range(loc)

	var resolved []Resolved
	for _, e := range entries {
		year, month, day := e.Date()
		date := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if date.Before(rangeStart) || !date.Before(rangeEnd) {
			continue
		}

		description := "Workday"
		if e.IsHoliday == "Y" {
			description = "Public Holiday"
		}
		resolved = append(resolved, Resolved{
			Date:        date,
			Name:        e.DateName,
			Description: description,
		})
	}
	return resolved
}
