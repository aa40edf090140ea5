package trigger

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
)

// NextOccurrence returns the soonest firing time of s at or after now.
// ok is false when the schedule will not fire again.
func NextOccurrence(s model.Schedule, now time.Time) (next time.Time, ok bool) {
	h, m, err := model.ParseClock(s.Time)
	if err != nil {
		return time.Time{}, false
	}

	switch r := s.Recurrence().(type) {
	case model.SpecificDates:
		dates := slices.Clone(r.Dates)
		slices.Sort(dates)
		for _, d := range dates {
			day, err := model.ParseDate(d, now.Location())
			if err != nil {
				continue
			}
			if candidate := model.AtClock(day, h, m); !candidate.Before(now) {
				return candidate, true
			}
		}
		return time.Time{}, false

	case model.DaysOfWeek:
		return nextWeekday(r.Days, h, m, now)

	case model.LegacySingleDate:
		if r.Recurring {
			wd, err := model.DateWeekday(r.Date)
			if err != nil {
				return time.Time{}, false
			}
			return nextWeekday([]int{int(wd)}, h, m, now)
		}
		if _, fired := s.Triggered(); fired {
			return time.Time{}, false
		}
		day, err := model.ParseDate(r.Date, now.Location())
		if err != nil {
			return time.Time{}, false
		}
		candidate := model.AtClock(day, h, m)
		if candidate.Before(now) {
			return time.Time{}, false
		}
		return candidate, true

	case model.LegacyDayOfWeek:
		if _, fired := s.Triggered(); fired && r.OneTime {
			return time.Time{}, false
		}
		return nextWeekday([]int{r.Day}, h, m, now)

	default:
		return time.Time{}, false
	}
}

// nextWeekday projects the earliest of days forward from now. Today only
// counts while the scheduled minute is still ahead.
func nextWeekday(days []int, h, m int, now time.Time) (time.Time, bool) {
	clock := model.FormatTime24(h, m)
	current := model.Clock(now)
	best := -1
	for _, d := range days {
		if !model.ValidWeekday(d) {
			continue
		}
		until := d - int(now.Weekday())
		if until < 0 {
			until += 7
		}
		if until == 0 && current >= clock {
			until = 7
		}
		if best < 0 || until < best {
			best = until
		}
	}
	if best < 0 {
		return time.Time{}, false
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d+best, h, m, 0, 0, now.Location()), true
}

type Occurrence struct {
	Schedule model.Schedule
	At       time.Time
}

// Upcoming lists enabled schedules by next occurrence, soonest first.
// Schedules that will not fire again are left out. limit <= 0 means all.
func Upcoming(schedules []model.Schedule, now time.Time, limit int) []Occurrence {
	out := make([]Occurrence, 0, len(schedules))
	for _, s := range schedules {
		if !s.Enabled {
			continue
		}
		if at, ok := NextOccurrence(s, now); ok {
			out = append(out, Occurrence{Schedule: s, At: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RelativeTime renders at relative to now, e.g. "In 5 minutes" or
// "Tomorrow at 9:00 AM". A zero time reads "Never".
func RelativeTime(at, now time.Time) string {
	if at.IsZero() {
		return "Never"
	}
	diff := at.Sub(now)
	if diff < 0 {
		return "Passed"
	}
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "In less than a minute"
	case minutes < 60:
		return fmt.Sprintf("In %d minute%s", minutes, plural(minutes))
	case hours < 24:
		return fmt.Sprintf("In %d hour%s", hours, plural(hours))
	case days == 1:
		return "Tomorrow at " + model.FormatTime12(model.Clock(at))
	default:
		return fmt.Sprintf("In %d days", days)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
