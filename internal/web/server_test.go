package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/storage"
	"github.com/noahxzhu/autotab/internal/store"
	"github.com/noahxzhu/autotab/internal/worker"
)

var now = time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC)

type fakeWorker struct {
	mu        sync.Mutex
	refreshes int
	checks    int
	alarm     *alarm.Alarm
}

func (f *fakeWorker) Check(context.Context) (worker.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return worker.Report{At: now, Checked: 3}, nil
}

func (f *fakeWorker) Alarm() (alarm.Alarm, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alarm == nil {
		return alarm.Alarm{}, false
	}
	return *f.alarm, true
}

func (f *fakeWorker) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeWorker) counts() (refreshes, checks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.checks
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*httptest.Server, *store.Store, *fakeWorker) {
	t.Helper()
	st := store.New(storage.NewMemory(), store.WithClock(func() time.Time { return now }))
	fw := &fakeWorker{}
	srv := NewServer(st, fw)
	srv.now = func() time.Time { return now }
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, st, fw
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func TestScheduleLifecycle(t *testing.T) {
	ts, _, fw := setup(t)

	status, env := call(t, ts, "POST", "/api/schedules",
		`{"url":"example.com","time":"09:00","mode":"days-of-week","daysOfWeek":[2]}`)
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("create: expected 201, got %d %+v", status, env)
	}
	var created createdSchedule
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	id := created.Schedule.ID
	if created.Schedule.URL != "https://example.com" || created.DuplicateOf != "" {
		t.Errorf("unexpected created schedule %+v", created)
	}
	if refreshes, _ := fw.counts(); refreshes != 1 {
		t.Errorf("expected a worker refresh after create, got %d", refreshes)
	}

	// Same url, time and days again is flagged.
	_, env = call(t, ts, "POST", "/api/schedules",
		`{"url":"https://example.com","time":"09:00","mode":"days-of-week","daysOfWeek":[2]}`)
	var dup createdSchedule
	_ = json.Unmarshal(env.Data, &dup)
	if dup.DuplicateOf != id {
		t.Errorf("expected duplicate of %s, got %q", id, dup.DuplicateOf)
	}

	status, env = call(t, ts, "PUT", "/api/schedules/"+id,
		`{"url":"https://example.org","time":"10:15","mode":"specific-dates","specificDates":["2024-06-05"]}`)
	if status != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d %+v", status, env)
	}

	status, env = call(t, ts, "POST", "/api/schedules/"+id+"/toggle", "")
	var toggled model.Schedule
	_ = json.Unmarshal(env.Data, &toggled)
	if status != http.StatusOK || toggled.Enabled {
		t.Errorf("toggle: expected disabled schedule, got %d %+v", status, toggled)
	}

	status, env = call(t, ts, "GET", "/api/stats", "")
	var stats store.Stats
	_ = json.Unmarshal(env.Data, &stats)
	if status != http.StatusOK || stats.Total != 2 || stats.Active != 1 || stats.BytesInUse == 0 {
		t.Errorf("stats: unexpected %d %+v", status, stats)
	}

	status, _ = call(t, ts, "DELETE", "/api/schedules/"+id, "")
	if status != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", status)
	}
	status, env = call(t, ts, "DELETE", "/api/schedules/"+id, "")
	if status != http.StatusNotFound || env.Success || env.Error == "" {
		t.Errorf("second delete: expected 404 with error, got %d %+v", status, env)
	}

	status, env = call(t, ts, "DELETE", "/api/schedules", `{"all":true}`)
	if status != http.StatusOK || string(env.Data) != `{"deleted":1}` {
		t.Errorf("clear: unexpected %d %s", status, env.Data)
	}
}

func TestValidationErrors(t *testing.T) {
	ts, _, _ := setup(t)
	cases := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/api/schedules", `{"url":"","time":"09:00","mode":"days-of-week","daysOfWeek":[1]}`, 400},
		{"POST", "/api/schedules", `{"url":"a.example","time":"09:00","mode":"days-of-week","daysOfWeek":[]}`, 400},
		{"POST", "/api/schedules", `not json`, 400},
		{"PUT", "/api/schedules/missing", `{"url":"a.example","time":"09:00","mode":"days-of-week","daysOfWeek":[1]}`, 404},
		{"POST", "/api/groups", `{"name":"  ","color":"blue"}`, 400},
		{"DELETE", "/api/groups/missing", ``, 404},
		{"DELETE", "/api/schedules", `{}`, 400},
		{"GET", "/api/upcoming?limit=abc", ``, 400},
		{"POST", "/api/import", `{"groups":[]}`, 400},
	}
	for _, tc := range cases {
		status, env := call(t, ts, tc.method, tc.path, tc.body)
		if status != tc.want || env.Success {
			t.Errorf("%s %s: expected %d, got %d %+v", tc.method, tc.path, tc.want, status, env)
		}
	}
}

func TestGroupsAndCascade(t *testing.T) {
	ts, st, _ := setup(t)
	ctx := context.Background()

	status, env := call(t, ts, "POST", "/api/groups", `{"name":"Work","color":"blue"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %+v", status, env)
	}
	var g model.Group
	_ = json.Unmarshal(env.Data, &g)

	status, _ = call(t, ts, "POST", "/api/groups", `{"name":"work","color":"red"}`)
	if status != http.StatusBadRequest {
		t.Errorf("duplicate group name: expected 400, got %d", status)
	}

	if _, err := st.CreateSchedule(ctx, model.Draft{URL: "a.example", Time: "09:00", GroupID: g.ID, Mode: model.ModeDaysOfWeek, DaysOfWeek: []int{1}}); err != nil {
		t.Fatal(err)
	}

	status, env = call(t, ts, "GET", "/api/schedules?group="+g.ID, "")
	var inGroup []model.Schedule
	_ = json.Unmarshal(env.Data, &inGroup)
	if status != http.StatusOK || len(inGroup) != 1 {
		t.Errorf("expected one schedule in group, got %d %d", status, len(inGroup))
	}

	status, env = call(t, ts, "PUT", "/api/groups/"+g.ID, `{"name":"Office","color":"green"}`)
	if status != http.StatusOK {
		t.Errorf("rename: expected 200, got %d %+v", status, env)
	}

	status, env = call(t, ts, "DELETE", "/api/groups/"+g.ID, "")
	if status != http.StatusOK || string(env.Data) != `{"ungrouped":1}` {
		t.Errorf("delete group: unexpected %d %s", status, env.Data)
	}
	_, env = call(t, ts, "GET", "/api/schedules?group=none", "")
	var ungrouped []model.Schedule
	_ = json.Unmarshal(env.Data, &ungrouped)
	if len(ungrouped) != 1 {
		t.Errorf("expected the schedule to be ungrouped, got %d", len(ungrouped))
	}
}

func TestSettings(t *testing.T) {
	ts, _, _ := setup(t)

	_, env := call(t, ts, "GET", "/api/settings", "")
	if string(env.Data) != `{"notifications":true}` {
		t.Errorf("expected default settings, got %s", env.Data)
	}
	status, env := call(t, ts, "PUT", "/api/settings", `{"notifications":false}`)
	if status != http.StatusOK || string(env.Data) != `{"notifications":false}` {
		t.Errorf("unexpected %d %s", status, env.Data)
	}
}

func TestUpcoming(t *testing.T) {
	ts, st, _ := setup(t)
	ctx := context.Background()
	for _, tm := range []string{"09:00", "08:30", "10:00"} {
		if _, err := st.CreateSchedule(ctx, model.Draft{URL: "a.example/" + tm, Time: tm, Mode: model.ModeDaysOfWeek, DaysOfWeek: []int{2}}); err != nil {
			t.Fatal(err)
		}
	}

	_, env := call(t, ts, "GET", "/api/upcoming?limit=2", "")
	var items []upcomingItem
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Schedule.Time != "08:30" || items[1].Schedule.Time != "09:00" {
		t.Fatalf("unexpected upcoming %+v", items)
	}
	if items[0].Relative != "In 30 minutes" {
		t.Errorf("unexpected relative time %q", items[0].Relative)
	}
}

func TestExportImport(t *testing.T) {
	ts, st, fw := setup(t)
	ctx := context.Background()
	if _, err := st.CreateSchedule(ctx, model.Draft{URL: "a.example", Time: "09:00", Mode: model.ModeDaysOfWeek, DaysOfWeek: []int{1}}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/export")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "autotab-schedules-2024-06-04.json") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	status, env := call(t, ts, "POST", "/api/import", string(body))
	if status != http.StatusOK {
		t.Fatalf("import: expected 200, got %d %+v", status, env)
	}
	if !strings.Contains(string(env.Data), "Imported 1 schedule(s)") {
		t.Errorf("unexpected import result %s", env.Data)
	}
	if refreshes, _ := fw.counts(); refreshes == 0 {
		t.Errorf("expected a worker refresh after import")
	}
	list, _ := st.Schedules(ctx)
	if len(list) != 2 {
		t.Errorf("expected 2 schedules after import, got %d", len(list))
	}
}

func TestCheckAndAlarm(t *testing.T) {
	ts, _, fw := setup(t)

	status, env := call(t, ts, "POST", "/api/check", "")
	if _, checks := fw.counts(); status != http.StatusOK || checks != 1 {
		t.Errorf("check: unexpected %d, %d checks", status, checks)
	}
	var report worker.Report
	_ = json.Unmarshal(env.Data, &report)
	if report.Checked != 3 {
		t.Errorf("unexpected report %+v", report)
	}

	_, env = call(t, ts, "GET", "/api/alarm", "")
	if string(env.Data) != `{"alarm":null}` {
		t.Errorf("expected null alarm, got %s", env.Data)
	}
	fw.mu.Lock()
	fw.alarm = &alarm.Alarm{Name: worker.AlarmName, PeriodMinutes: 1}
	fw.mu.Unlock()
	_, env = call(t, ts, "GET", "/api/alarm", "")
	if !strings.Contains(string(env.Data), `"name":"schedule-checker"`) {
		t.Errorf("unexpected alarm %s", env.Data)
	}
}
