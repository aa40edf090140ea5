package transfer

import (
	"context"
	"fmt"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type Target interface {
	Groups(ctx context.Context) ([]model.Group, error)
	AddGroup(ctx context.Context, name string, color model.Color) (model.Group, error)
	AddSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error)
}

type Result struct {
	Groups       int `json:"groups"`
	ReusedGroups int `json:"reusedGroups"`
	Schedules    int `json:"schedules"`
	Skipped      int `json:"skipped"`
}

func (r Result) String() string {
	if r.Groups > 0 {
		return fmt.Sprintf("Imported %d schedule(s) and %d group(s)", r.Schedules, r.Groups)
	}
	return fmt.Sprintf("Imported %d schedule(s)", r.Schedules)
}

// Import adds the groups and schedules found in data to dst. Groups are
// created first; one whose name already exists is reused. Schedules get
// fresh ids and their group references are remapped. Records that match
// no known recurrence shape are skipped.
func Import(ctx context.Context, dst Target, data []byte) (Result, error) {
	var res Result
	if !gjson.ValidBytes(data) {
		return res, &model.MalformedImportError{Reason: "file is not valid JSON"}
	}
	doc := gjson.ParseBytes(data)
	schedules := doc.Get("schedules")
	if !schedules.IsArray() {
		return res, &model.MalformedImportError{Reason: "missing schedules array"}
	}

	existing, err := dst.Groups(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load groups: %w", err)
	}

	mapping := map[string]string{}
	for _, g := range doc.Get("groups").Array() {
		name := g.Get("name").String()
		color := model.Color(g.Get("color").String())
		if name == "" || color == "" {
			continue
		}
		oldID := g.Get("id").String()

		if found, ok := model.FindGroupByName(existing, name, ""); ok {
			mapping[oldID] = found.ID
			res.ReusedGroups++
			continue
		}
		if !color.Valid() {
			color = model.ColorGrey
		}
		created, err := dst.AddGroup(ctx, name, color)
		if err != nil {
			if model.IsValidation(err) {
				log.Warn().Str("name", name).Err(err).Msg("Skipping imported group")
				continue
			}
			return res, err
		}
		existing = append(existing, created)
		mapping[oldID] = created.ID
		res.Groups++
	}

	for _, rec := range schedules.Array() {
		sched, ok := decodeRecord(rec)
		if !ok {
			res.Skipped++
			continue
		}
		if old := rec.Get("groupId").String(); old != "" {
			sched.SetGroup(mapping[old])
		}
		if _, err := dst.AddSchedule(ctx, sched); err != nil {
			if model.IsValidation(err) {
				log.Warn().Str("url", sched.URL).Err(err).Msg("Skipping imported schedule")
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Schedules++
	}
	return res, nil
}

// decodeRecord builds a schedule from an exported record when the record
// carries url, time and one of the recognized recurrence shapes. Only the
// fields of the matched shape are copied.
func decodeRecord(rec gjson.Result) (model.Schedule, bool) {
	url, clock := rec.Get("url"), rec.Get("time")
	if url.Type != gjson.String || url.Str == "" || clock.Type != gjson.String || clock.Str == "" {
		return model.Schedule{}, false
	}

	sched := model.Schedule{URL: url.Str, Time: clock.Str, Enabled: true}
	if enabled := rec.Get("enabled"); enabled.Exists() {
		sched.Enabled = enabled.Bool()
	}

	switch mode := rec.Get("mode").String(); {
	case mode == string(model.ModeSpecificDates) && nonEmptyArray(rec.Get("specificDates")):
		for _, d := range rec.Get("specificDates").Array() {
			if d.Type != gjson.String {
				return model.Schedule{}, false
			}
			if _, err := model.DateWeekday(d.Str); err != nil {
				return model.Schedule{}, false
			}
			sched.SpecificDates = append(sched.SpecificDates, d.Str)
		}
		sched.Mode = model.ModeSpecificDates
	case mode == string(model.ModeDaysOfWeek) && nonEmptyArray(rec.Get("daysOfWeek")):
		for _, d := range rec.Get("daysOfWeek").Array() {
			if d.Type != gjson.Number || !model.ValidWeekday(int(d.Int())) {
				return model.Schedule{}, false
			}
			sched.DaysOfWeek = append(sched.DaysOfWeek, int(d.Int()))
		}
		sched.Mode = model.ModeDaysOfWeek
	case rec.Get("specificDate").Type == gjson.String && rec.Get("specificDate").Str != "":
		sched.SpecificDate = rec.Get("specificDate").Str
		sched.Recurring = rec.Get("recurring").Bool()
	case rec.Get("dayOfWeek").Type == gjson.Number:
		// A record without type repeats weekly, as Recurrence reads it.
		day := int(rec.Get("dayOfWeek").Int())
		if !model.ValidWeekday(day) {
			return model.Schedule{}, false
		}
		sched.DayOfWeek = &day
		sched.Type = model.ScheduleType(rec.Get("type").String())
	default:
		return model.Schedule{}, false
	}
	return sched, true
}

func nonEmptyArray(r gjson.Result) bool {
	return r.IsArray() && len(r.Array()) > 0
}
