// Package history persists the conversation log as a single JSON file.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

// DefaultMaxEntries caps the log when no limit is configured.
const DefaultMaxEntries = 100

// FileStore keeps the most recent turns in one JSON array on disk. Every
// Append rewrites the whole file.
type FileStore struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	log        zerolog.Logger
}

// NewFileStore creates a store at path capped at maxEntries turns.
// If maxEntries is <= 0, DefaultMaxEntries is used.
func NewFileStore(path string, maxEntries int, log zerolog.Logger) *FileStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileStore{
		path:       path,
		maxEntries: maxEntries,
		log:        log,
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// MaxEntries returns the configured cap.
func (s *FileStore) MaxEntries() int {
	return s.maxEntries
}

// Append adds turn to the end of the log, drops the oldest turns beyond the
// cap and rewrites the file. An unreadable log is replaced.
func (s *FileStore) Append(_ context.Context, turn chat.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("starting a new conversation log")
		turns = nil
	}

	turns = append(turns, turn)

	// Enforce retention by count.
	if len(turns) > s.maxEntries {
		over := len(turns) - s.maxEntries
		turns = turns[over:]
	}

	if err := s.write(turns); err != nil {
		return fmt.Errorf("%w: %w", chat.ErrHistoryWrite, err)
	}
	return nil
}

// Recent returns the last limit turns, oldest first.
func (s *FileStore) Recent(_ context.Context, limit int) []chat.Turn {
	if limit <= 0 {
		return []chat.Turn{}
	}

	turns := s.read()
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// All returns the whole log.
func (s *FileStore) All(_ context.Context) []chat.Turn {
	return s.read()
}

func (s *FileStore) read() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("treating conversation log as empty")
		return []chat.Turn{}
	}
	return turns
}

// load reads the log. A missing file is an empty log, not an error.
func (s *FileStore) load() ([]chat.Turn, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []chat.Turn{}, nil
		}
		return nil, fmt.Errorf("%w: %w", chat.ErrHistoryRead, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []chat.Turn{}, nil
	}

	var turns []chat.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", chat.ErrHistoryRead, s.path, err)
	}
	if turns == nil {
		turns = []chat.Turn{}
	}
	return turns, nil
}

// write atomically replaces the log file.
func (s *FileStore) write(turns []chat.Turn) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(turns); err != nil {
		return fmt.Errorf("encoding conversation log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("creating temp log file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing conversation log: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp log file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming log file to %s: %w", s.path, err)
	}

	success = true
	return nil
}

var _ chat.HistoryStore = (*FileStore)(nil)
