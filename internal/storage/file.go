package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in one JSON document on disk. Several
// processes may share the file: reads pick up documents written by others
// and writes merge into the latest document on disk.
type FileStore struct {
	listeners

	mu       sync.RWMutex
	filePath string
	data     map[string]json.RawMessage
	// stamp is the file as of the last read or write; nil when it did not exist.
	stamp os.FileInfo
}

func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
		data:     map[string]json.RawMessage{},
	}
}

func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, info, err := s.read()
	if err != nil {
		return err
	}
	s.data, s.stamp = doc, info
	return nil
}

// read parses the file. The returned info describes the exact file that was
// read, since writers replace the file rather than rewrite it in place.
func (s *FileStore) read() (map[string]json.RawMessage, os.FileInfo, error) {
	f, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return map[string]json.RawMessage{}, info, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		// Files written before the keyed layout hold a bare schedules array.
		var old []json.RawMessage
		if err2 := json.Unmarshal(data, &old); err2 == nil {
			return map[string]json.RawMessage{"schedules": compact(data)}, info, nil
		}

		return nil, nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	// The file is indented; values are kept compact so they compare equal
	// to what callers write.
	for k, v := range doc {
		doc[k] = compact(v)
	}
	return doc, info, nil
}

// compact strips insignificant whitespace from valid JSON.
func compact(v []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return json.RawMessage(v)
	}
	return buf.Bytes()
}

// stale reports whether the file on disk differs from the last one read or
// written. Caller must hold s.mu.
func (s *FileStore) stale() (bool, error) {
	info, err := os.Stat(s.filePath)
	if os.IsNotExist(err) {
		return s.stamp != nil, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	if s.stamp == nil {
		return true, nil
	}
	return !os.SameFile(s.stamp, info) ||
		!info.ModTime().Equal(s.stamp.ModTime()) ||
		info.Size() != s.stamp.Size(), nil
}

// refresh reloads the document when another writer replaced the file and
// returns what changed. Caller must hold s.mu for writing.
func (s *FileStore) refresh() ([]Change, error) {
	stale, err := s.stale()
	if err != nil || !stale {
		return nil, err
	}
	doc, info, err := s.read()
	if err != nil {
		return nil, err
	}
	changes := diff(s.data, doc)
	s.data, s.stamp = doc, info
	return changes, nil
}

func (s *FileStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stale, err := s.stale()
	if err == nil && !stale {
		out := pick(s.data, keys)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	changes, err := s.refresh()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	out := pick(s.data, keys)
	s.mu.Unlock()

	s.notify(changes)
	return out, nil
}

func (s *FileStore) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	compacted := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		if !json.Valid(v) {
			return fmt.Errorf("value for %q is not valid JSON", k)
		}
		compacted[k] = compact(v)
	}
	values = compacted

	s.mu.Lock()
	external, err := s.refresh()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changes := diff(s.data, values)
	next := make(map[string]json.RawMessage, len(s.data)+len(values))
	for k, v := range s.data {
		next[k] = v
	}
	for k, v := range values {
		next[k] = v
	}
	info, err := s.save(next)
	if err != nil {
		s.mu.Unlock()
		s.notify(external)
		return err
	}
	s.data, s.stamp = next, info
	s.mu.Unlock()

	s.notify(append(external, changes...))
	return nil
}

// save writes doc atomically and returns the info of the written file.
// Caller must hold s.mu.
func (s *FileStore) save(doc map[string]json.RawMessage) (os.FileInfo, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// A unique temp name per write keeps concurrent processes apart.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return nil, fmt.Errorf("failed to replace file: %w", err)
	}
	return info, nil
}

func (s *FileStore) Close() error { return nil }
