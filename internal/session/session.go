// Package session persists conversation history between runs so a task
// can be resumed where it was left. The engine hands turns over at pause
// and task end; the wiring layer loads them back at startup.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/navvylabs/navvy/internal/conversation"
)

// Store saves and restores conversation turns. Implementations must
// tolerate Save being called repeatedly with a growing log.
type Store interface {
	Save(turns []conversation.Turn) error
	Load() ([]conversation.Turn, error)
}

// FileStore keeps the history as pretty-printed JSON in a single file.
type FileStore struct {
	path string
}

// NewFileStore builds a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("path is required")
	}
	return &FileStore{path: path}
}

func (s *FileStore) Save(turns []conversation.Turn) error {
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load returns the persisted turns, or nil when no history exists yet.
func (s *FileStore) Load() ([]conversation.Turn, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []conversation.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", s.path, err)
	}
	return turns, nil
}

// MemoryStore is a volatile store for tests and ephemeral runs. Safe for
// concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	turns []conversation.Turn
}

// NewMemoryStore builds an empty volatile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(turns []conversation.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append([]conversation.Turn(nil), turns...)
	return nil
}

func (s *MemoryStore) Load() ([]conversation.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Turn(nil), s.turns...), nil
}
