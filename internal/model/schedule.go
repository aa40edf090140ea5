package model

import (
	"slices"
	"time"
)

type Mode string

const (
	ModeSpecificDates Mode = "specific-dates"
	ModeDaysOfWeek    Mode = "days-of-week"
)

// ScheduleType is the legacy recurrence flag used by day-of-week records.
type ScheduleType string

const (
	TypeRecurring ScheduleType = "recurring"
	TypeOneTime   ScheduleType = "one-time"
)

type Schedule struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Time          string   `json:"time"`
	Enabled       bool     `json:"enabled"`
	GroupID       *string  `json:"groupId"`
	Mode          Mode     `json:"mode,omitempty"`
	SpecificDates []string `json:"specificDates,omitempty"`
	DaysOfWeek    []int    `json:"daysOfWeek,omitempty"`

	// Written by earlier releases. Never set together with Mode.
	SpecificDate string       `json:"specificDate,omitempty"`
	Recurring    bool         `json:"recurring,omitempty"`
	DayOfWeek    *int         `json:"dayOfWeek,omitempty"`
	Type         ScheduleType `json:"type,omitempty"`

	LastTriggered *int64 `json:"lastTriggered"`
	CreatedAt     int64  `json:"createdAt"`
}

// Recurrence resolves the record's recurrence shape. The first matching
// shape wins; nil means the record is inert.
func (s Schedule) Recurrence() Recurrence {
	switch {
	case s.Mode == ModeSpecificDates && s.SpecificDates != nil:
		return SpecificDates{Dates: s.SpecificDates}
	case s.Mode == ModeDaysOfWeek && s.DaysOfWeek != nil:
		return DaysOfWeek{Days: s.DaysOfWeek}
	case s.SpecificDate != "":
		return LegacySingleDate{Date: s.SpecificDate, Recurring: s.Recurring}
	case s.DayOfWeek != nil:
		return LegacyDayOfWeek{Day: *s.DayOfWeek, OneTime: s.Type == TypeOneTime}
	default:
		return nil
	}
}

// Group returns the referenced group id or "".
func (s Schedule) Group() string {
	if s.GroupID == nil {
		return ""
	}
	return *s.GroupID
}

func (s *Schedule) SetGroup(id string) {
	if id == "" {
		s.GroupID = nil
		return
	}
	s.GroupID = &id
}

// Triggered reports when the schedule last fired.
func (s Schedule) Triggered() (time.Time, bool) {
	if s.LastTriggered == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.LastTriggered), true
}

func (s *Schedule) MarkTriggered(at time.Time) {
	ms := at.UnixMilli()
	s.LastTriggered = &ms
}

// ClearRecurrence drops every recurrence field, canonical and legacy.
func (s *Schedule) ClearRecurrence() {
	s.Mode = ""
	s.SpecificDates = nil
	s.DaysOfWeek = nil
	s.SpecificDate = ""
	s.Recurring = false
	s.DayOfWeek = nil
	s.Type = ""
}

// FindDuplicate returns another schedule with the same url, time and
// recurrence as s.
func FindDuplicate(schedules []Schedule, s Schedule) (Schedule, bool) {
	for _, other := range schedules {
		if other.ID == s.ID && s.ID != "" {
			continue
		}
		if other.URL == s.URL && other.Time == s.Time && sameRecurrence(other.Recurrence(), s.Recurrence()) {
			return other, true
		}
	}
	return Schedule{}, false
}

func sameRecurrence(a, b Recurrence) bool {
	switch x := a.(type) {
	case SpecificDates:
		y, ok := b.(SpecificDates)
		return ok && slices.Equal(sortedCopy(x.Dates), sortedCopy(y.Dates))
	case DaysOfWeek:
		y, ok := b.(DaysOfWeek)
		return ok && slices.Equal(sortedCopy(x.Days), sortedCopy(y.Days))
	case LegacySingleDate:
		y, ok := b.(LegacySingleDate)
		return ok && x == y
	case LegacyDayOfWeek:
		y, ok := b.(LegacyDayOfWeek)
		return ok && x == y
	default:
		return false
	}
}

func sortedCopy[T int | string](in []T) []T {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
