package model

// Recurrence is one of SpecificDates, DaysOfWeek, LegacySingleDate or
// LegacyDayOfWeek.
type Recurrence interface {
	Kind() string
}

// SpecificDates fires once on each listed YYYY-MM-DD date.
type SpecificDates struct {
	Dates []string
}

// DaysOfWeek fires every week on the listed weekdays (0 = Sunday).
type DaysOfWeek struct {
	Days []int
}

// LegacySingleDate is the second-generation format: a picked date that
// either fires once or repeats on that date's weekday.
type LegacySingleDate struct {
	Date      string
	Recurring bool
}

// LegacyDayOfWeek is the first-generation format: one weekday plus a
// recurring/one-time flag.
type LegacyDayOfWeek struct {
	Day     int
	OneTime bool
}

func (SpecificDates) Kind() string    { return string(ModeSpecificDates) }
func (DaysOfWeek) Kind() string       { return string(ModeDaysOfWeek) }
func (LegacySingleDate) Kind() string { return "legacy-single-date" }
func (LegacyDayOfWeek) Kind() string  { return "legacy-day-of-week" }

// KindOf names r for display; "unknown" for an inert record.
func KindOf(r Recurrence) string {
	if r == nil {
		return "unknown"
	}
	return r.Kind()
}
