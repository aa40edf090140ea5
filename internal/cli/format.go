package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/store"
	"github.com/noahxzhu/autotab/internal/trigger"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// describe renders a schedule's recurrence for humans.
func describe(s model.Schedule) string {
	switch r := s.Recurrence().(type) {
	case model.SpecificDates:
		return "on " + strings.Join(r.Dates, ", ")
	case model.DaysOfWeek:
		names := make([]string, len(r.Days))
		for i, d := range r.Days {
			names[i] = model.DayName(d)
		}
		return "every " + strings.Join(names, ", ")
	case model.LegacySingleDate:
		if !r.Recurring {
			return "once on " + r.Date
		}
		wd, err := model.DateWeekday(r.Date)
		if err != nil {
			return "every week from " + r.Date
		}
		return fmt.Sprintf("every %s from %s", wd, r.Date)
	case model.LegacyDayOfWeek:
		if r.OneTime {
			return "once on " + model.DayName(r.Day)
		}
		return "every " + model.DayName(r.Day)
	default:
		return "never"
	}
}

func next(s model.Schedule, now time.Time) string {
	at, ok := trigger.NextOccurrence(s, now)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", at.Format("Mon 2006-01-02 15:04"), trigger.RelativeTime(at, now))
}

func enabled(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// parseDays accepts weekday names, three letter abbreviations or
// numbers 0-6 (0 = Sunday).
func parseDays(in []string) ([]int, error) {
	var days []int
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			d, err := parseDay(part)
			if err != nil {
				return nil, err
			}
			days = append(days, d)
		}
	}
	return days, nil
}

func parseDay(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if !model.ValidWeekday(n) {
			return 0, fmt.Errorf("%d is not a weekday (0-6)", n)
		}
		return n, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return int(d), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func splitList(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// resolveGroup maps a group name or id to its id. "" stays "".
func resolveGroup(ctx context.Context, st *store.Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	groups, err := st.Groups(ctx)
	if err != nil {
		return "", err
	}
	if g, ok := model.FindGroupByName(groups, ref, ""); ok {
		return g.ID, nil
	}
	for _, g := range groups {
		if g.ID == ref {
			return g.ID, nil
		}
	}
	return "", &model.ValidationError{Field: "group", Reason: fmt.Sprintf("no group named %q", ref)}
}

func groupNames(groups []model.Group) map[string]string {
	names := make(map[string]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names
}
