package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/transfer"
	"github.com/noahxzhu/autotab/internal/trigger"
)

const defaultUpcomingLimit = 5

// Schedules

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var (
		list []model.Schedule
		err  error
	)
	switch group, filtered := r.URL.Query()["group"]; {
	case !filtered:
		list, err = s.store.Schedules(r.Context())
	case group[0] == "none":
		list, err = s.store.SchedulesByGroup(r.Context(), "")
	default:
		list, err = s.store.SchedulesByGroup(r.Context(), group[0])
	}
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, list)
}

type createdSchedule struct {
	Schedule    model.Schedule `json:"schedule"`
	DuplicateOf string         `json:"duplicateOf,omitempty"`
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := decode(r, &d); err != nil {
		fail(w, err)
		return
	}
	existing, err := s.store.Schedules(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	sched, err := s.store.CreateSchedule(r.Context(), d)
	if err != nil {
		fail(w, err)
		return
	}
	s.worker.Refresh() // Trigger worker update

	out := createdSchedule{Schedule: sched}
	if dup, found := model.FindDuplicate(existing, sched); found {
		out.DuplicateOf = dup.ID
	}
	ok(w, http.StatusCreated, out)
}

func (s *Server) handleEditSchedule(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := decode(r, &d); err != nil {
		fail(w, err)
		return
	}
	sched, err := s.store.EditSchedule(r.Context(), r.PathValue("id"), d)
	if err != nil {
		fail(w, err)
		return
	}
	s.worker.Refresh()
	ok(w, http.StatusOK, sched)
}

func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.store.ToggleSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	s.worker.Refresh()
	ok(w, http.StatusOK, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSchedule(r.Context(), r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, nil)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// handleDeleteSchedules deletes the listed ids, or everything with all=true.
func (s *Server) handleDeleteSchedules(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}

	var (
		n   int
		err error
	)
	switch {
	case req.All:
		n, err = s.store.ClearSchedules(r.Context())
	case len(req.IDs) > 0:
		n, err = s.store.DeleteSchedules(r.Context(), req.IDs)
	default:
		err = &model.ValidationError{Field: "ids", Reason: "no schedules selected"}
	}
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, map[string]int{"deleted": n})
}

type upcomingItem struct {
	Schedule model.Schedule `json:"schedule"`
	At       time.Time      `json:"at"`
	Relative string         `json:"relative"`
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := defaultUpcomingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(w, &model.ValidationError{Field: "limit", Reason: fmt.Sprintf("%q is not a non-negative number", raw)})
			return
		}
		limit = n
	}

	list, err := s.store.Schedules(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	now := s.now()
	items := []upcomingItem{}
	for _, o := range trigger.Upcoming(list, now, limit) {
		items = append(items, upcomingItem{Schedule: o.Schedule, At: o.At, Relative: trigger.RelativeTime(o.At, now)})
	}
	ok(w, http.StatusOK, items)
}

// Groups

type groupRequest struct {
	Name  string      `json:"name"`
	Color model.Color `json:"color"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.Groups(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, groups)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	g, err := s.store.AddGroup(r.Context(), req.Name, req.Color)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	g, err := s.store.UpdateGroup(r.Context(), r.PathValue("id"), req.Name, req.Color)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, map[string]int{"ungrouped": n})
}

// Settings

type settingsRequest struct {
	Notifications *bool `json:"notifications"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	settings, err := s.store.UpdateSettings(r.Context(), func(st *model.Settings) {
		if req.Notifications != nil {
			st.Notifications = *req.Notifications
		}
	})
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, settings)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, st)
}

// Import / export

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	doc, err := transfer.Export(r.Context(), s.store, now)
	if err != nil {
		fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.FileName(now)))
	if err := transfer.Write(w, doc); err != nil {
		fail(w, err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, err)
		return
	}
	res, err := transfer.Import(r.Context(), s.store, data)
	if err != nil {
		fail(w, err)
		return
	}
	s.worker.Refresh()
	ok(w, http.StatusOK, map[string]any{"result": res, "message": res.String()})
}

// Scheduler

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	report, err := s.worker.Check(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, http.StatusOK, report)
}

func (s *Server) handleAlarm(w http.ResponseWriter, r *http.Request) {
	a, found := s.worker.Alarm()
	if !found {
		ok(w, http.StatusOK, map[string]any{"alarm": nil})
		return
	}
	ok(w, http.StatusOK, map[string]any{"alarm": a})
}
