package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
)

// Schedules returns every decodable schedule in stored order.
func (s *Store) Schedules(ctx context.Context) ([]model.Schedule, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Schedule, 0, len(entries))
	for _, e := range entries {
		if e.raw == nil {
			out = append(out, e.sched)
		}
	}
	return out, nil
}

func (s *Store) Schedule(ctx context.Context, id string) (model.Schedule, error) {
	list, err := s.Schedules(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	for _, sched := range list {
		if sched.ID == id {
			return sched, nil
		}
	}
	return model.Schedule{}, &model.NotFoundError{Kind: "schedule", ID: id}
}

// SchedulesByGroup lists the schedules in a group; "" lists ungrouped ones.
func (s *Store) SchedulesByGroup(ctx context.Context, groupID string) ([]model.Schedule, error) {
	list, err := s.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Schedule{}
	for _, sched := range list {
		if sched.Group() == groupID {
			out = append(out, sched)
		}
	}
	return out, nil
}

// Stats summarizes the store. BytesInUse counts every stored key and value.
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	BytesInUse int `json:"bytesInUse"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	values, err := s.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for k, v := range values {
		st.BytesInUse += len(k) + len(v)
	}
	entries, err := decodeEntries(values[KeySchedules])
	if err != nil {
		return Stats{}, err
	}
	for _, e := range entries {
		if e.raw != nil {
			continue
		}
		st.Total++
		if e.sched.Enabled {
			st.Active++
		}
	}
	return st, nil
}

// CreateSchedule validates d and appends a new enabled schedule.
func (s *Store) CreateSchedule(ctx context.Context, d model.Draft) (model.Schedule, error) {
	d, err := d.Normalize()
	if err != nil {
		return model.Schedule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkGroup(ctx, d.GroupID); err != nil {
		return model.Schedule{}, err
	}
	entries, err := s.entries(ctx)
	if err != nil {
		return model.Schedule{}, err
	}

	sched := model.Schedule{
		ID:        s.newID(),
		Enabled:   true,
		CreatedAt: s.now().UnixMilli(),
	}
	d.ApplyTo(&sched)

	entries = append(entries, entry{sched: sched})
	if err := s.saveEntries(ctx, entries); err != nil {
		return model.Schedule{}, err
	}
	return sched, nil
}

// EditSchedule replaces the user-editable fields of an existing schedule.
// Legacy recurrence fields are dropped in favor of the draft's mode.
func (s *Store) EditSchedule(ctx context.Context, id string, d model.Draft) (model.Schedule, error) {
	d, err := d.Normalize()
	if err != nil {
		return model.Schedule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkGroup(ctx, d.GroupID); err != nil {
		return model.Schedule{}, err
	}
	return s.update(ctx, id, func(sched *model.Schedule) error {
		d.ApplyTo(sched)
		return nil
	})
}

// AddSchedule stores a fully formed record as a new schedule with a fresh
// id and no trigger history. Used by import.
func (s *Store) AddSchedule(ctx context.Context, sched model.Schedule) (model.Schedule, error) {
	sched.URL = model.FormatURL(sched.URL)
	if !model.ValidURL(sched.URL) {
		return model.Schedule{}, &model.ValidationError{Field: "url", Reason: fmt.Sprintf("%q is not a valid URL", sched.URL)}
	}
	if _, _, err := model.ParseClock(sched.Time); err != nil {
		return model.Schedule{}, &model.ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not a HH:MM time", sched.Time)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	sched.ID = s.newID()
	sched.LastTriggered = nil
	if sched.CreatedAt == 0 {
		sched.CreatedAt = s.now().UnixMilli()
	}
	entries = append(entries, entry{sched: sched})
	if err := s.saveEntries(ctx, entries); err != nil {
		return model.Schedule{}, err
	}
	return sched, nil
}

// UpdateSchedule applies fn to the schedule with the given id and writes
// the result. An error from fn aborts the write.
func (s *Store) UpdateSchedule(ctx context.Context, id string, fn func(*model.Schedule) error) (model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, fn)
}

func (s *Store) update(ctx context.Context, id string, fn func(*model.Schedule) error) (model.Schedule, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	i := slices.IndexFunc(entries, func(e entry) bool { return e.raw == nil && e.sched.ID == id })
	if i < 0 {
		return model.Schedule{}, &model.NotFoundError{Kind: "schedule", ID: id}
	}
	sched := entries[i].sched
	if err := fn(&sched); err != nil {
		return model.Schedule{}, err
	}
	sched.ID = id
	entries[i].sched = sched
	if err := s.saveEntries(ctx, entries); err != nil {
		return model.Schedule{}, err
	}
	return sched, nil
}

func (s *Store) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := s.UpdateSchedule(ctx, id, func(sched *model.Schedule) error {
		sched.MarkTriggered(at)
		return nil
	})
	return err
}

func (s *Store) ToggleSchedule(ctx context.Context, id string) (model.Schedule, error) {
	return s.UpdateSchedule(ctx, id, func(sched *model.Schedule) error {
		sched.Enabled = !sched.Enabled
		return nil
	})
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	n, err := s.DeleteSchedules(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Kind: "schedule", ID: id}
	}
	return nil
}

// DeleteSchedules removes every listed id and reports how many existed.
func (s *Store) DeleteSchedules(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries(ctx)
	if err != nil {
		return 0, err
	}
	before := len(entries)
	entries = slices.DeleteFunc(entries, func(e entry) bool {
		return e.raw == nil && slices.Contains(ids, e.sched.ID)
	})
	removed := before - len(entries)
	if removed == 0 {
		return 0, nil
	}
	if err := s.saveEntries(ctx, entries); err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearSchedules deletes every schedule, including undecodable records.
func (s *Store) ClearSchedules(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.saveEntries(ctx, nil); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// checkGroup rejects a group id that does not name a stored group.
func (s *Store) checkGroup(ctx context.Context, groupID string) error {
	if groupID == "" {
		return nil
	}
	groups, err := s.Groups(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(groups, func(g model.Group) bool { return g.ID == groupID }) {
		return &model.ValidationError{Field: "groupId", Reason: fmt.Sprintf("unknown group %s", groupID)}
	}
	return nil
}
