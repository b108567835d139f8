package model

import "time"

// WallClockLayout is how schedule anchors are stored: calendar-naive wall
// clock strings, not UTC instants. The format sorts lexicographically, which
// the store's range queries rely on.
const WallClockLayout = "2006-01-02 15:04"

type CalendarType string

const (
	CalendarSolar CalendarType = "solar"
	CalendarLunar CalendarType = "lunar"
)

type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// Schedule is a stored, possibly-recurring schedule template. StartDate and
// EndDate are the anchor (first/reference) occurrence; for Calendar == lunar
// their year/month/day are lunar values.
type Schedule struct {
	ID            int64        `json:"id"`
	WorkspaceID   int64        `json:"workspace_id"`
	Title         string       `json:"title"`
	Memo          string       `json:"memo"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	Calendar      CalendarType `json:"calendar"`
	Repeat        RepeatType   `json:"repeat"`
	Participants  []int64      `json:"participants"`
	IsAnniversary bool         `json:"is_anniversary"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// HasParticipant reports whether the user is in the participant set.
func (s *Schedule) HasParticipant(userID int64) bool {
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
