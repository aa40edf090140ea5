// Package storage provides the key-value store that holds schedules,
// groups and settings.
//
// Values are JSON documents addressed by namespaced keys. A multi-key Set
// is the only atomicity unit; there are no transactions across calls.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Change describes one key written by Set. OldValue is nil for a new key.
type Change struct {
	Key      string
	OldValue json.RawMessage
	NewValue json.RawMessage
}

type Listener func(changes []Change)

type KV interface {
	// Get returns the stored values for keys. Missing keys are absent from
	// the result. With no keys every stored value is returned.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]json.RawMessage) error
	OnChange(fn Listener)
	Close() error
}

type listeners struct {
	mu  sync.RWMutex
	fns []Listener
}

func (l *listeners) OnChange(fn Listener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *listeners) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	l.mu.RLock()
	fns := append([]Listener(nil), l.fns...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(changes)
	}
}

// diff lists the keys of values whose bytes differ from old.
func diff(old, values map[string]json.RawMessage) []Change {
	var changes []Change
	for k, v := range values {
		prev, ok := old[k]
		if ok && bytes.Equal(prev, v) {
			continue
		}
		changes = append(changes, Change{Key: k, OldValue: prev, NewValue: v})
	}
	return changes
}

func pick(data map[string]json.RawMessage, keys []string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		for k, v := range data {
			out[k] = append(json.RawMessage(nil), v...)
		}
		return out
	}
	for _, k := range keys {
		if v, ok := data[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
