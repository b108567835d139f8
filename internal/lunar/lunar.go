// Package lunar converts between the Korean lunar calendar and the
// Gregorian (solar) calendar. The underlying table covers lunar years
// 1900-2050; dates outside that span fail with ErrOutOfRange.
package lunar

import (
	"errors"
	"fmt"
	"time"
)

const (
	minYear = 1900
	maxYear = 2050
)

// Solar date of lunar 1900-01-01, the first day the table covers.
var epoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, time.UTC)

var (
	ErrOutOfRange  = errors.New("lunar: date out of supported range")
	ErrNoLeapMonth = errors.New("lunar: year has no such leap month")
	ErrNoSuchDay   = errors.New("lunar: day does not exist in that month")
)

// Date is a Korean lunar calendar date. Month is 1-12, Day is 1-30.
// LeapMonth marks a date inside an intercalary (윤) month.
type Date struct {
	Year      int
	Month     int
	Day       int
	LeapMonth bool
}

// String renders the date in display form, e.g. "음력 4월 8일" or
// "음력 윤6월 1일" for intercalary months.
func (d Date) String() string {
	if d.LeapMonth {
		return fmt.Sprintf("음력 윤%d월 %d일", d.Month, d.Day)
	}
	return fmt.Sprintf("음력 %d월 %d일", d.Month, d.Day)
}

// LeapMonth returns the intercalary month number of a lunar year, or 0 if
// the year has none.
func LeapMonth(year int) int {
	return int(yearTable[year-minYear] & 0xf)
}

// MonthDays returns the length (29 or 30) of a regular lunar month.
func MonthDays(year, month int) int {
	if yearTable[year-minYear]&(0x8000>>uint(month-1)) != 0 {
		return 30
	}
	return 29
}

func leapMonthDays(year int) int {
	if LeapMonth(year) == 0 {
		return 0
	}
	if yearTable[year-minYear]&0x10000 != 0 {
		return 30
	}
	return 29
}

func yearDays(year int) int {
	days := leapMonthDays(year)
	for m := 1; m <= 12; m++ {
		days += MonthDays(year, m)
	}
	return days
}

// totalDays is the number of solar days the table spans, computed once.
var totalDays = func() int {
	n := 0
	for y := minYear; y <= maxYear; y++ {
		n += yearDays(y)
	}
	return n
}()

// ToSolar converts a lunar date to the solar year/month/day it falls on.
func ToSolar(year, month, day int, leapMonth bool) (int, time.Month, int, error) {
	if year < minYear || year > maxYear || month < 1 || month > 12 {
		return 0, 0, 0, ErrOutOfRange
	}
	if leapMonth && LeapMonth(year) != month {
		return 0, 0, 0, ErrNoLeapMonth
	}

	days := MonthDays(year, month)
	if leapMonth {
		days = leapMonthDays(year)
	}
	if day < 1 || day > days {
		return 0, 0, 0, ErrNoSuchDay
	}

	offset := 0
	for y := minYear; y < year; y++ {
		offset += yearDays(y)
	}
	leap := LeapMonth(year)
	for m := 1; m < month; m++ {
		offset += MonthDays(year, m)
		if m == leap {
			offset += leapMonthDays(year)
		}
	}
	if leapMonth {
		// The intercalary month follows its regular counterpart.
		offset += MonthDays(year, month)
	}
	offset += day - 1

	sy, sm, sd := epoch.AddDate(0, 0, offset).Date()
	return sy, sm, sd, nil
}

// FromSolar converts a solar date to its lunar representation.
func FromSolar(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if ty, tm, td := t.Date(); ty != year || tm != month || td != day {
		// time.Date normalized an invalid input like Feb 30.
		return Date{}, ErrNoSuchDay
	}

	offset := int(t.Sub(epoch).Hours() / 24)
	if offset < 0 || offset >= totalDays {
		return Date{}, ErrOutOfRange
	}

	ly := minYear
	for {
		n := yearDays(ly)
		if offset < n {
			break
		}
		offset -= n
		ly++
	}

	leap := LeapMonth(ly)
	lm, isLeap := 1, false
	for {
		n := MonthDays(ly, lm)
		if isLeap {
			n = leapMonthDays(ly)
		}
		if offset < n {
			break
		}
		offset -= n
		if lm == leap && !isLeap {
			isLeap = true
		} else {
			isLeap = false
			lm++
		}
	}

	return Date{Year: ly, Month: lm, Day: offset + 1, LeapMonth: isLeap}, nil
}
