package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/storage"
	"github.com/noahxzhu/autotab/internal/store"
)

var now = time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.New(storage.NewMemory(), store.WithClock(func() time.Time { return now }))

	work, err := s.AddGroup(ctx, "Work", model.ColorBlue)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.CreateSchedule(ctx, model.Draft{
		URL: "https://mail.example", Time: "09:00", GroupID: work.ID,
		Mode: model.ModeDaysOfWeek, DaysOfWeek: []int{1, 2, 3, 4, 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.CreateSchedule(ctx, model.Draft{
		URL: "https://news.example", Time: "18:30",
		Mode: model.ModeSpecificDates, SpecificDates: []string{"2024-06-10"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExport(t *testing.T) {
	doc, err := Export(context.Background(), seeded(t), now)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Version != "1.1" {
		t.Errorf("expected version 1.1, got %s", doc.Version)
	}
	if doc.ExportDate != "2024-06-04T09:00:00.000Z" {
		t.Errorf("unexpected export date %s", doc.ExportDate)
	}
	if len(doc.Groups) != 1 || len(doc.Schedules) != 2 {
		t.Errorf("expected 1 group and 2 schedules, got %d and %d", len(doc.Groups), len(doc.Schedules))
	}
	if got := FileName(now); got != "autotab-schedules-2024-06-04.json" {
		t.Errorf("unexpected file name %s", got)
	}
}

func TestRoundTripReusesGroups(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)
	doc, err := Export(ctx, src, now)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatal(err)
	}

	// Import into a store that already has a "work" group.
	dst := store.New(storage.NewMemory())
	existing, _ := dst.AddGroup(ctx, "work", model.ColorRed)

	res, err := Import(ctx, dst, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if res.Schedules != 2 || res.Groups != 0 || res.ReusedGroups != 1 || res.Skipped != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	groups, _ := dst.Groups(ctx)
	if len(groups) != 1 {
		t.Fatalf("expected the existing group to be reused, got %d groups", len(groups))
	}
	imported, _ := dst.Schedules(ctx)
	if len(imported) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(imported))
	}
	for _, s := range imported {
		if s.LastTriggered != nil {
			t.Errorf("imported schedule should have no trigger history")
		}
		switch s.URL {
		case "https://mail.example":
			if s.Group() != existing.ID {
				t.Errorf("expected groupId remapped to %s, got %q", existing.ID, s.Group())
			}
			if r, ok := s.Recurrence().(model.DaysOfWeek); !ok || len(r.Days) != 5 {
				t.Errorf("unexpected recurrence %#v", s.Recurrence())
			}
		case "https://news.example":
			if s.GroupID != nil {
				t.Errorf("ungrouped schedule should stay ungrouped")
			}
			if r, ok := s.Recurrence().(model.SpecificDates); !ok || r.Dates[0] != "2024-06-10" {
				t.Errorf("unexpected recurrence %#v", s.Recurrence())
			}
		default:
			t.Errorf("unexpected url %s", s.URL)
		}
	}
}

func TestImportCreatesGroups(t *testing.T) {
	ctx := context.Background()
	data := []byte(`{
		"groups": [{"id":"g1","name":"Daily","color":"green"},{"id":"g2","name":"Odd","color":"chartreuse"},{"id":"g3","color":"red"}],
		"schedules": [
			{"url":"https://a.example","time":"07:00","groupId":"g1","mode":"days-of-week","daysOfWeek":[0]},
			{"url":"https://b.example","time":"07:00","groupId":"g2","dayOfWeek":0,"type":"one-time","enabled":false},
			{"url":"https://c.example","time":"07:00","groupId":"g3","specificDate":"2024-06-01","recurring":true}
		]
	}`)
	dst := store.New(storage.NewMemory())

	res, err := Import(ctx, dst, data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Groups != 2 || res.Schedules != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.String() != "Imported 3 schedule(s) and 2 group(s)" {
		t.Errorf("unexpected summary %q", res.String())
	}

	groups, _ := dst.Groups(ctx)
	byName := map[string]model.Group{}
	for _, g := range groups {
		byName[g.Name] = g
	}
	if byName["Odd"].Color != model.ColorGrey {
		t.Errorf("unknown color should fall back to grey, got %s", byName["Odd"].Color)
	}

	schedules, _ := dst.Schedules(ctx)
	for _, s := range schedules {
		switch s.URL {
		case "https://a.example":
			if s.Group() != byName["Daily"].ID {
				t.Errorf("expected Daily group, got %q", s.Group())
			}
		case "https://b.example":
			if s.Enabled {
				t.Errorf("enabled=false should be kept")
			}
			if r, ok := s.Recurrence().(model.LegacyDayOfWeek); !ok || r.Day != 0 || !r.OneTime {
				t.Errorf("unexpected recurrence %#v", s.Recurrence())
			}
		case "https://c.example":
			if s.GroupID != nil {
				t.Errorf("unmapped group should become null")
			}
			if _, ok := s.Recurrence().(model.LegacySingleDate); !ok {
				t.Errorf("unexpected recurrence %#v", s.Recurrence())
			}
		}
	}
}

func TestImportSkipsUnknownShapes(t *testing.T) {
	data := []byte(`{"schedules":[
		{"url":"https://a.example","time":"07:00"},
		{"url":"https://a.example","time":"07:00","mode":"days-of-week","daysOfWeek":[]},
		{"url":"https://a.example","time":"07:00","mode":"days-of-week","daysOfWeek":[9]},
		{"url":"https://a.example","time":"25:00","mode":"days-of-week","daysOfWeek":[1]},
		{"time":"07:00","mode":"days-of-week","daysOfWeek":[1]},
		{"url":"https://a.example","time":"07:00","dayOfWeek":9,"type":"recurring"},
		{"url":"https://ok.example","time":"07:00","mode":"specific-dates","specificDates":["2024-01-01"]}
	]}`)
	dst := store.New(storage.NewMemory())
	res, err := Import(context.Background(), dst, data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Schedules != 1 || res.Skipped != 6 {
		t.Errorf("expected 1 imported and 6 skipped, got %+v", res)
	}
}

func TestImportLegacyDayWithoutType(t *testing.T) {
	ctx := context.Background()
	data := []byte(`{"schedules":[{"url":"https://a.example","time":"07:00","dayOfWeek":0}]}`)
	dst := store.New(storage.NewMemory())
	res, err := Import(ctx, dst, data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Schedules != 1 || res.Skipped != 0 {
		t.Fatalf("expected the record to be imported, got %+v", res)
	}
	list, _ := dst.Schedules(ctx)
	r, ok := list[0].Recurrence().(model.LegacyDayOfWeek)
	if !ok || r.Day != 0 || r.OneTime {
		t.Errorf("expected a weekly Sunday recurrence, got %#v", list[0].Recurrence())
	}
}

func TestImportMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"groups":[]}`,
		`{"schedules":{}}`,
		`[]`,
	}
	dst := store.New(storage.NewMemory())
	for _, c := range cases {
		_, err := Import(context.Background(), dst, []byte(c))
		if !model.IsMalformedImport(err) {
			t.Errorf("%s: expected malformed import error, got %v", c, err)
		}
	}
	all, _ := dst.Schedules(context.Background())
	if len(all) != 0 {
		t.Errorf("malformed import must not write")
	}
}

func TestWriteIsIndented(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{Version: Version, Groups: []model.Group{}, Schedules: []model.Schedule{}}
	if err := Write(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"version\": \"1.1\"")) {
		t.Errorf("expected indented output, got %s", buf.String())
	}
	var back Document
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
}
