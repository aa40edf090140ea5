package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is a process-local KV used by tests and the "memory" driver.
type Memory struct {
	listeners

	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{data: map[string]json.RawMessage{}}
}

func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pick(m.data, keys), nil
}

func (m *Memory) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, v := range values {
		if !json.Valid(v) {
			return fmt.Errorf("value for %q is not valid JSON", k)
		}
	}
	m.mu.Lock()
	changes := diff(m.data, values)
	for k, v := range values {
		m.data[k] = append(json.RawMessage(nil), v...)
	}
	m.mu.Unlock()

	m.notify(changes)
	return nil
}

func (m *Memory) Close() error { return nil }
