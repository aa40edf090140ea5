package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/noahxzhu/autotab/internal/model"
)

func (s *Store) Groups(ctx context.Context) ([]model.Group, error) {
	values, err := s.load(ctx, KeyGroups)
	if err != nil {
		return nil, err
	}
	return decodeGroups(values[KeyGroups])
}

func (s *Store) Group(ctx context.Context, id string) (model.Group, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return model.Group{}, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Group{}, &model.NotFoundError{Kind: "group", ID: id}
}

func (s *Store) AddGroup(ctx context.Context, name string, color model.Color) (model.Group, error) {
	name, err := model.ValidateGroup(name, color)
	if err != nil {
		return model.Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.Groups(ctx)
	if err != nil {
		return model.Group{}, err
	}
	if _, dup := model.FindGroupByName(groups, name, ""); dup {
		return model.Group{}, duplicateName(name)
	}

	g := model.Group{
		ID:        s.newID(),
		Name:      name,
		Color:     color,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.saveGroups(ctx, append(groups, g)); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

func (s *Store) UpdateGroup(ctx context.Context, id, name string, color model.Color) (model.Group, error) {
	name, err := model.ValidateGroup(name, color)
	if err != nil {
		return model.Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.Groups(ctx)
	if err != nil {
		return model.Group{}, err
	}
	i := slices.IndexFunc(groups, func(g model.Group) bool { return g.ID == id })
	if i < 0 {
		return model.Group{}, &model.NotFoundError{Kind: "group", ID: id}
	}
	if _, dup := model.FindGroupByName(groups, name, id); dup {
		return model.Group{}, duplicateName(name)
	}

	groups[i].Name = name
	groups[i].Color = color
	if err := s.saveGroups(ctx, groups); err != nil {
		return model.Group{}, err
	}
	return groups[i], nil
}

// DeleteGroup removes a group and ungroups its schedules in the same write.
// It returns the number of schedules that were ungrouped.
func (s *Store) DeleteGroup(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load(ctx, KeyGroups, KeySchedules)
	if err != nil {
		return 0, err
	}
	groups, err := decodeGroups(values[KeyGroups])
	if err != nil {
		return 0, err
	}
	entries, err := decodeEntries(values[KeySchedules])
	if err != nil {
		return 0, err
	}

	i := slices.IndexFunc(groups, func(g model.Group) bool { return g.ID == id })
	if i < 0 {
		return 0, &model.NotFoundError{Kind: "group", ID: id}
	}
	groups = slices.Delete(groups, i, i+1)

	ungrouped := 0
	for j := range entries {
		if entries[j].raw == nil && entries[j].sched.Group() == id {
			entries[j].sched.SetGroup("")
			ungrouped++
		}
	}

	rawGroups, err := json.Marshal(groups)
	if err != nil {
		return 0, fmt.Errorf("failed to encode groups: %w", err)
	}
	rawSchedules, err := encodeEntries(entries)
	if err != nil {
		return 0, err
	}
	if err := s.kv.Set(ctx, map[string]json.RawMessage{
		KeyGroups:    rawGroups,
		KeySchedules: rawSchedules,
	}); err != nil {
		return 0, fmt.Errorf("failed to delete group: %w", err)
	}
	return ungrouped, nil
}

func duplicateName(name string) error {
	return &model.ValidationError{Field: "name", Reason: fmt.Sprintf("a group named %q already exists", name)}
}

func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	values, err := s.load(ctx, KeySettings)
	if err != nil {
		return model.DefaultSettings(), err
	}
	return decodeSettings(values[KeySettings])
}

func (s *Store) UpdateSettings(ctx context.Context, fn func(*model.Settings)) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Settings(ctx)
	if err != nil {
		return settings, err
	}
	fn(&settings)
	raw, err := json.Marshal(settings)
	if err != nil {
		return settings, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]json.RawMessage{KeySettings: raw}); err != nil {
		return settings, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}
