package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"matchbook/internal/engine"
)

const (
	stateFile = "state.json"
	metaFile  = "meta.json"
	lockFile  = "lock.json"
	usersFile = "users.json"
)

// meta is the small sidecar persisted next to the state.
type meta struct {
	Cursor            int        `json:"cursor"`
	LastRunAt         time.Time  `json:"lastRunAt"`
	LastRunDurationMS int64      `json:"lastRunDurationMs"`
	LockedUntil       *time.Time `json:"lockedUntil,omitempty"`
}

type lockRecord struct {
	LockedUntil time.Time `json:"lockedUntil"`
}

// FileStore is the default Adapter: plain JSON files in a data directory with
// atomic tmp-rename writes. The lock is a file holding an expiry timestamp, so
// a crashed run never wedges the fleet.
type FileStore struct {
	mu    sync.RWMutex
	dir   string
	now   func() time.Time
	state *engine.State // last loaded or saved state, for the list queries
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// AcquireEngineLock takes the fleet-wide lock for the given hold duration.
// Non-blocking: returns false when a live lock is held elsewhere. Expired
// locks are reclaimed.
func (s *FileStore) AcquireEngineLock(hold time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, lockFile)
	if data, err := os.ReadFile(path); err == nil {
		var rec lockRecord
		if err := json.Unmarshal(data, &rec); err == nil && rec.LockedUntil.After(s.now()) {
			return false
		}
	}

	rec := lockRecord{LockedUntil: s.now().Add(hold)}
	if err := writeJSONAtomic(path, rec); err != nil {
		log.Error().Err(err).Msg("Failed to write engine lock")
		return false
	}
	return true
}

// ReleaseEngineLock drops the lock file. Safe to call without holding it.
func (s *FileStore) ReleaseEngineLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.dir, lockFile)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to remove engine lock")
	}
}

// LoadEngineState reads the state and cursor. A missing state file yields an
// empty state, not an error.
func (s *FileStore) LoadEngineState() (*engine.State, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &engine.State{}
	data, err := os.ReadFile(filepath.Join(s.dir, stateFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, state); err != nil {
			return nil, 0, fmt.Errorf("failed to parse state file: %w", err)
		}
	case os.IsNotExist(err):
		// First run.
	default:
		return nil, 0, fmt.Errorf("failed to read state file: %w", err)
	}

	m, err := s.readMeta()
	if err != nil {
		return nil, 0, err
	}

	s.state = state
	log.Info().Int("personas", len(state.Personas)).Int("cursor", m.Cursor).Msg("Engine state loaded")
	return state, m.Cursor, nil
}

// SaveEngineState persists state and meta with atomic renames.
func (s *FileStore) SaveEngineState(req SaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSONAtomic(filepath.Join(s.dir, stateFile), req.State); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	m := meta{
		Cursor:            req.Cursor,
		LastRunAt:         req.LastRunAt,
		LastRunDurationMS: req.LastRunDurationMS,
		LockedUntil:       req.LockedUntil,
	}
	if err := writeJSONAtomic(filepath.Join(s.dir, metaFile), m); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}

	s.state = req.State
	log.Info().Int("personas", len(req.State.Personas)).Int("matches", len(req.State.Matches)).
		Int("cursor", req.Cursor).Msg("Engine state saved")
	return nil
}

// SyncPersonasFromUsers reads users.json from the data directory and creates
// any missing personas. A missing users file is not an error.
func (s *FileStore) SyncPersonasFromUsers(state *engine.State) (*engine.State, []int64, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, usersFile))
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil, nil
		}
		return state, nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var users []UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return state, nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	state, created := syncPersonas(state, users, s.now())
	if len(created) > 0 {
		log.Info().Int("created", len(created)).Msg("Personas synced from user directory")
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state, created, nil
}

func (s *FileStore) ListPriorityPersonaIDs(windowHours int) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return priorityIDs(s.state, windowHours, s.now())
}

func (s *FileStore) ListPrioritySchedulePersonaIDs(windowHours int) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return priorityScheduleIDs(s.state, windowHours, s.now())
}

func (s *FileStore) ListFilterPersonaIDs(windowHours int) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterIDs(s.state, windowHours, s.now())
}

func (s *FileStore) readMeta() (meta, error) {
	var m meta
	data, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("failed to read meta file: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse meta file: %w", err)
	}
	return m, nil
}

// writeJSONAtomic writes via a temp file and rename so readers never observe
// a partial file.
func writeJSONAtomic(path string, v any) error {
	tmpPath := path + ".tmp"
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
