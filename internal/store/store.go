// Package store is the typed layer over the key-value store. It owns the
// schedules, groups and settings keys and serializes every
// read-modify-write so concurrent callers in one process cannot lose each
// other's updates.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/storage"
)

const (
	KeySchedules = "schedules"
	KeyGroups    = "groups"
	KeySettings  = "settings"
)

type Store struct {
	kv    storage.KV
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange reports the keys touched by each write.
func (s *Store) OnChange(fn func(keys []string)) {
	s.kv.OnChange(func(changes []storage.Change) {
		keys := make([]string, 0, len(changes))
		for _, c := range changes {
			keys = append(keys, c.Key)
		}
		fn(keys)
	})
}

// entry is one stored schedule record. Records that no longer decode are
// carried as raw JSON and written back untouched.
type entry struct {
	sched model.Schedule
	raw   json.RawMessage
}

func (s *Store) load(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	values, err := s.kv.Get(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", keys, err)
	}
	return values, nil
}

func decodeEntries(raw json.RawMessage) ([]entry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}
	entries := make([]entry, 0, len(records))
	for _, rec := range records {
		var sched model.Schedule
		if err := json.Unmarshal(rec, &sched); err != nil {
			entries = append(entries, entry{raw: rec})
			continue
		}
		entries = append(entries, entry{sched: sched})
	}
	return entries, nil
}

func encodeEntries(entries []entry) (json.RawMessage, error) {
	records := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if e.raw != nil {
			records = append(records, e.raw)
			continue
		}
		b, err := json.Marshal(e.sched)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schedule %s: %w", e.sched.ID, err)
		}
		records = append(records, b)
	}
	return json.Marshal(records)
}

func decodeGroups(raw json.RawMessage) ([]model.Group, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []model.Group{}, nil
	}
	var groups []model.Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	if groups == nil {
		groups = []model.Group{}
	}
	return groups, nil
}

func decodeSettings(raw json.RawMessage) (model.Settings, error) {
	settings := model.DefaultSettings()
	if len(raw) == 0 || string(raw) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return model.DefaultSettings(), fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

func (s *Store) entries(ctx context.Context) ([]entry, error) {
	values, err := s.load(ctx, KeySchedules)
	if err != nil {
		return nil, err
	}
	return decodeEntries(values[KeySchedules])
}

func (s *Store) saveEntries(ctx context.Context, entries []entry) error {
	raw, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, map[string]json.RawMessage{KeySchedules: raw}); err != nil {
		return fmt.Errorf("failed to save schedules: %w", err)
	}
	return nil
}

func (s *Store) saveGroups(ctx context.Context, groups []model.Group) error {
	raw, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]json.RawMessage{KeyGroups: raw}); err != nil {
		return fmt.Errorf("failed to save groups: %w", err)
	}
	return nil
}
