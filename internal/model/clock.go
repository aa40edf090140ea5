package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var ErrInvalidClock = errors.New("model: invalid HH:MM time")

// FormatTime24 renders a zero-padded 24-hour "HH:MM".
func FormatTime24(hours, minutes int) string {
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// Clock is the wall-clock "HH:MM" of t in t's location.
func Clock(t time.Time) string {
	return FormatTime24(t.Hour(), t.Minute())
}

// DateString is the calendar date "YYYY-MM-DD" of t in t's location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate returns local midnight of a "YYYY-MM-DD" date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// DateWeekday is the weekday of a calendar date regardless of zone.
func DateWeekday(s string) (time.Weekday, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, err
	}
	return d.Weekday(), nil
}

// ParseClock splits a strict "HH:MM" into hours and minutes.
func ParseClock(s string) (int, int, error) {
	if len(s) != 5 || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || !InRange(h, 0, 23) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || !InRange(m, 0, 59) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h, m, nil
}

// AtClock combines the calendar date of day with a wall-clock time.
func AtClock(day time.Time, hours, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hours, minutes, 0, 0, day.Location())
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func InRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

func ValidWeekday(d int) bool {
	return InRange(d, 0, 6)
}

// FormatTime12 renders "HH:MM" as "3:04 PM". Unparsable input is returned
// unchanged.
func FormatTime12(s string) string {
	h, m, err := ParseClock(s)
	if err != nil {
		return s
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, period)
}

// DayName returns the English weekday name for 0..6.
func DayName(d int) string {
	if !ValidWeekday(d) {
		return strconv.Itoa(d)
	}
	return time.Weekday(d).String()
}
