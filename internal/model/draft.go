package model

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// FormatURL trims the input and adds https:// when no http(s) scheme is
// present.
func FormatURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !schemePrefix.MatchString(trimmed) {
		return "https://" + trimmed
	}
	return trimmed
}

// ValidURL accepts absolute http and https URLs with a host.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Draft is a schedule as submitted by a user action.
type Draft struct {
	URL           string   `json:"url"`
	Time          string   `json:"time"`
	Enabled       *bool    `json:"enabled,omitempty"`
	GroupID       string   `json:"groupId,omitempty"`
	Mode          Mode     `json:"mode"`
	SpecificDates []string `json:"specificDates,omitempty"`
	DaysOfWeek    []int    `json:"daysOfWeek,omitempty"`
}

// Normalize formats the URL, validates every field and returns a draft
// with sorted, de-duplicated dates or days.
func (d Draft) Normalize() (Draft, error) {
	d.URL = FormatURL(d.URL)
	if !ValidURL(d.URL) {
		return d, &ValidationError{Field: "url", Reason: "please enter a valid URL (http:// or https://)"}
	}
	d.Time = strings.TrimSpace(d.Time)
	if d.Time == "" {
		return d, &ValidationError{Field: "time", Reason: "please select a time"}
	}
	if _, _, err := ParseClock(d.Time); err != nil {
		return d, &ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not a HH:MM time", d.Time)}
	}
	d.GroupID = strings.TrimSpace(d.GroupID)

	switch d.Mode {
	case ModeSpecificDates:
		if len(d.SpecificDates) == 0 {
			return d, &ValidationError{Field: "specificDates", Reason: "please select at least one date"}
		}
		for _, s := range d.SpecificDates {
			if _, err := DateWeekday(s); err != nil {
				return d, &ValidationError{Field: "specificDates", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
			}
		}
		d.SpecificDates = slices.Compact(sortedCopy(d.SpecificDates))
		d.DaysOfWeek = nil
	case ModeDaysOfWeek:
		if len(d.DaysOfWeek) == 0 {
			return d, &ValidationError{Field: "daysOfWeek", Reason: "please select at least one day"}
		}
		for _, day := range d.DaysOfWeek {
			if !ValidWeekday(day) {
				return d, &ValidationError{Field: "daysOfWeek", Reason: fmt.Sprintf("%d is not a weekday (0-6)", day)}
			}
		}
		d.DaysOfWeek = slices.Compact(sortedCopy(d.DaysOfWeek))
		d.SpecificDates = nil
	default:
		return d, &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", d.Mode)}
	}
	return d, nil
}

// ApplyTo writes a normalized draft onto s. Legacy recurrence fields are
// dropped so the record carries exactly one shape.
func (d Draft) ApplyTo(s *Schedule) {
	s.URL = d.URL
	s.Time = d.Time
	if d.Enabled != nil {
		s.Enabled = *d.Enabled
	}
	s.SetGroup(d.GroupID)
	s.ClearRecurrence()
	s.Mode = d.Mode
	switch d.Mode {
	case ModeSpecificDates:
		s.SpecificDates = slices.Clone(d.SpecificDates)
	case ModeDaysOfWeek:
		s.DaysOfWeek = slices.Clone(d.DaysOfWeek)
	}
}
