// Package localtimer keeps the client-side mirror of a running timer in a
// JSON file, so a ticking display survives between CLI invocations.
package localtimer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
)

// Store persists at most one TimerState
type Store struct {
	path       string
	staleAfter time.Duration
	mu         sync.Mutex
}

// NewStore creates a store at path. State older than staleAfter is discarded on load.
func NewStore(path string, staleAfter time.Duration) *Store {
	return &Store{path: path, staleAfter: staleAfter}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored state. The file is written beside the target and
// renamed into place so a reader never sees a partial write.
func (s *Store) Save(state domain.TimerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeInvalidInput, "failed to encode timer state")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to create timer state directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".timer-*.json")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to write timer state")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to write timer state")
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to write timer state")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to write timer state")
	}
	return nil
}

// Load returns the stored state, or nil when there is none. Stale or
// unreadable state is deleted and reported as no timer; the server entry
// stays authoritative either way.
func (s *Store) Load(now time.Time) (*domain.TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.ErrorTypeDatabase, "failed to read timer state")
	}

	var state domain.TimerState
	if err := json.Unmarshal(data, &state); err != nil || state.TimeEntryID <= 0 {
		return nil, s.remove()
	}
	if s.staleAfter > 0 && state.IsStale(now, s.staleAfter) {
		return nil, s.remove()
	}
	return &state, nil
}

// Clear deletes the stored state. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapError(err, errors.ErrorTypeDatabase, "failed to remove timer state")
	}
	return nil
}
