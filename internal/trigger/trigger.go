// Package trigger decides which schedules fire at a given minute and
// when each one fires next.
//
// Both functions are pure: "now" is passed in and its location is the
// local timezone for every wall-clock and calendar comparison.
package trigger

import (
	"slices"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
)

// DebounceWindow is the minimum gap between two fires of a recurring
// schedule. It covers a tick landing twice inside one matching minute.
const DebounceWindow = time.Minute

// ShouldTrigger reports whether s must fire at now.
func ShouldTrigger(s model.Schedule, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	clock := model.Clock(now)

	switch r := s.Recurrence().(type) {
	case model.SpecificDates:
		today := model.DateString(now)
		if s.Time != clock || !slices.Contains(r.Dates, today) {
			return false
		}
		// Compared by calendar date, not elapsed time.
		last, fired := s.Triggered()
		return !fired || model.DateString(last.In(now.Location())) != today

	case model.DaysOfWeek:
		return s.Time == clock &&
			slices.Contains(r.Days, int(now.Weekday())) &&
			debounced(s, now)

	case model.LegacySingleDate:
		if s.Time != clock {
			return false
		}
		if r.Recurring {
			wd, err := model.DateWeekday(r.Date)
			return err == nil && wd == now.Weekday() && debounced(s, now)
		}
		_, fired := s.Triggered()
		return r.Date == model.DateString(now) && !fired

	case model.LegacyDayOfWeek:
		if r.Day != int(now.Weekday()) || s.Time != clock {
			return false
		}
		if r.OneTime {
			_, fired := s.Triggered()
			return !fired
		}
		return debounced(s, now)

	default:
		return false
	}
}

func debounced(s model.Schedule, now time.Time) bool {
	last, fired := s.Triggered()
	return !fired || now.Sub(last) >= DebounceWindow
}
