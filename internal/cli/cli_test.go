package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/storage"
	"github.com/noahxzhu/autotab/internal/store"
)

type env struct {
	cfg  string
	data string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "data.json")
	cfg := filepath.Join(dir, "autotab.yaml")
	yaml := "storage:\n  driver: file\n  path: " + data + "\nlog:\n  level: error\nbrowser:\n  enabled: false\n"
	if err := os.WriteFile(cfg, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return env{cfg: cfg, data: data}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.cfg}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func (e env) store(t *testing.T) *store.Store {
	t.Helper()
	kv, err := storage.Open(storage.Config{Driver: "file", Path: e.data})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return store.New(kv)
}

func TestSchedulesLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.mustRun(t, "groups", "add", "--name", "Work", "--color", "green")
	out := e.mustRun(t, "schedules", "add", "--url", "example.com", "--time", "09:00", "--days", "mon,Wed,5", "--group", "work")
	if !strings.Contains(out, "every Monday, Wednesday, Friday") {
		t.Errorf("unexpected add output %q", out)
	}

	list, err := e.store(t).Schedules(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(list))
	}
	s := list[0]
	if s.URL != "https://example.com" || s.Group() == "" || !s.Enabled {
		t.Errorf("unexpected schedule %+v", s)
	}

	out = e.mustRun(t, "schedules", "add", "--url", "https://example.com", "--time", "09:00", "--days", "1,3,5")
	if !strings.Contains(out, "Warning: schedule "+s.ID) {
		t.Errorf("expected duplicate warning, got %q", out)
	}

	out = e.mustRun(t, "schedules", "list", "--group", "Work")
	if !strings.Contains(out, "https://example.com") || !strings.Contains(out, "9:00 AM") || strings.Count(out, "\n") != 2 {
		t.Errorf("unexpected list output %q", out)
	}

	e.mustRun(t, "schedules", "edit", s.ID, "--time", "10:15", "--dates", "2024-06-10,2024-06-01")
	got, err := e.store(t).Schedule(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Time != "10:15" || got.Mode != model.ModeSpecificDates || got.Group() != s.Group() {
		t.Errorf("unexpected edited schedule %+v", got)
	}
	if len(got.SpecificDates) != 2 || got.SpecificDates[0] != "2024-06-01" {
		t.Errorf("dates should be sorted, got %v", got.SpecificDates)
	}

	out = e.mustRun(t, "schedules", "toggle", s.ID)
	if !strings.Contains(out, "disabled") {
		t.Errorf("unexpected toggle output %q", out)
	}

	if _, err := e.run(t, "schedules", "clear"); err == nil {
		t.Errorf("clear without --yes should fail")
	}
	out = e.mustRun(t, "schedules", "clear", "--yes")
	if !strings.Contains(out, "Deleted 2 schedule(s)") {
		t.Errorf("unexpected clear output %q", out)
	}
}

func TestSchedulesAddValidation(t *testing.T) {
	e := newEnv(t)
	cases := [][]string{
		{"schedules", "add", "--url", "example.com", "--time", "09:00"},
		{"schedules", "add", "--url", "example.com", "--time", "9am", "--days", "mon"},
		{"schedules", "add", "--url", "example.com", "--time", "09:00", "--days", "someday"},
		{"schedules", "add", "--url", "example.com", "--time", "09:00", "--days", "7"},
		{"schedules", "add", "--url", "example.com", "--time", "09:00", "--days", "mon", "--group", "missing"},
		{"schedules", "add", "--url", "example.com", "--time", "09:00", "--days", "mon", "--dates", "2024-06-01"},
	}
	for _, c := range cases {
		if _, err := e.run(t, c...); err == nil {
			t.Errorf("%v: expected an error", c)
		}
	}
	list, _ := e.store(t).Schedules(context.Background())
	if len(list) != 0 {
		t.Errorf("rejected adds must not write, got %d schedules", len(list))
	}
}

func TestGroupsAndSettings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.mustRun(t, "groups", "add", "--name", "News", "--color", "red")
	e.mustRun(t, "schedules", "add", "--url", "news.example", "--time", "07:00", "--days", "sun", "--group", "News")
	if _, err := e.run(t, "groups", "add", "--name", "news"); err == nil {
		t.Errorf("duplicate group name should fail")
	}

	e.mustRun(t, "groups", "edit", "News", "--color", "purple")
	out := e.mustRun(t, "groups", "list")
	if !strings.Contains(out, "purple") || !strings.Contains(out, "News") {
		t.Errorf("unexpected groups output %q", out)
	}

	out = e.mustRun(t, "groups", "rm", "news")
	if !strings.Contains(out, "1 schedule(s) ungrouped") {
		t.Errorf("unexpected rm output %q", out)
	}
	list, _ := e.store(t).Schedules(ctx)
	if len(list) != 1 || list[0].GroupID != nil {
		t.Errorf("schedule should be ungrouped after group delete, got %+v", list)
	}

	out = e.mustRun(t, "settings", "show")
	if out != "notifications: yes\n" {
		t.Errorf("unexpected settings %q", out)
	}
	e.mustRun(t, "settings", "set", "--notifications=false")
	st, _ := e.store(t).Settings(ctx)
	if st.Notifications {
		t.Errorf("notifications should be off")
	}
}

func TestExportImport(t *testing.T) {
	src := newEnv(t)
	src.mustRun(t, "groups", "add", "--name", "Work", "--color", "blue")
	src.mustRun(t, "schedules", "add", "--url", "a.example", "--time", "08:00", "--days", "mon", "--group", "Work")
	src.mustRun(t, "schedules", "add", "--url", "b.example", "--time", "08:00", "--dates", "2024-06-10")

	exported := src.mustRun(t, "export", "-o", "-")
	if !strings.Contains(exported, `"version": "1.1"`) {
		t.Fatalf("unexpected export %s", exported)
	}
	file := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(file, []byte(exported), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := newEnv(t)
	out := dst.mustRun(t, "import", file)
	if out != "Imported 2 schedule(s) and 1 group(s)\n" {
		t.Errorf("unexpected import output %q", out)
	}
	if _, err := dst.run(t, "import", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte(`{"schedules":{}}`), 0o644)
	_, err := dst.run(t, "import", bad)
	if !model.IsMalformedImport(err) {
		t.Errorf("expected malformed import error, got %v", err)
	}
}

func TestUpcomingAndTick(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "upcoming")
	if out != "Nothing scheduled.\n" {
		t.Errorf("unexpected upcoming output %q", out)
	}

	e.mustRun(t, "schedules", "add", "--url", "a.example", "--time", "08:00", "--days", "0,1,2,3,4,5,6")
	out = e.mustRun(t, "upcoming", "--limit", "3")
	if !strings.Contains(out, "https://a.example") {
		t.Errorf("unexpected upcoming output %q", out)
	}

	out = e.mustRun(t, "tick")
	if !strings.HasPrefix(out, "Checked 1 schedule(s)") {
		t.Errorf("unexpected tick output %q", out)
	}
}

func TestParseDays(t *testing.T) {
	days, err := parseDays([]string{"sun,Monday", "tue", " 6 "})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2, 6}
	if len(days) != len(want) {
		t.Fatalf("expected %v, got %v", want, days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("expected %v, got %v", want, days)
		}
	}
	for _, bad := range []string{"mo", "-1", "funday"} {
		if _, err := parseDays([]string{bad}); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestDescribe(t *testing.T) {
	day := 2
	cases := []struct {
		s    model.Schedule
		want string
	}{
		{model.Schedule{Mode: model.ModeSpecificDates, SpecificDates: []string{"2024-06-10"}}, "on 2024-06-10"},
		{model.Schedule{Mode: model.ModeDaysOfWeek, DaysOfWeek: []int{0, 6}}, "every Sunday, Saturday"},
		{model.Schedule{SpecificDate: "2024-06-04", Recurring: true}, "every Tuesday from 2024-06-04"},
		{model.Schedule{SpecificDate: "2024-06-04"}, "once on 2024-06-04"},
		{model.Schedule{DayOfWeek: &day, Type: model.TypeOneTime}, "once on Tuesday"},
		{model.Schedule{DayOfWeek: &day}, "every Tuesday"},
		{model.Schedule{}, "never"},
	}
	for _, c := range cases {
		if got := describe(c.s); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}
