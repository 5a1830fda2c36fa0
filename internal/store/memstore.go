package store

import (
	"sync"
	"time"

	"matchbook/internal/engine"
)

// MemStore is an in-memory Adapter for tests and single-process hosts.
type MemStore struct {
	mu          sync.Mutex
	state       *engine.State
	cursor      int
	users       []UserRecord
	lockedUntil time.Time
	now         func() time.Time
}

// NewMemStore seeds an in-memory store. The users slice backs persona sync.
func NewMemStore(state *engine.State, users []UserRecord) *MemStore {
	if state == nil {
		state = &engine.State{}
	}
	return &MemStore{state: state, users: users, now: time.Now}
}

// SetClock overrides the time source, for deterministic tests.
func (s *MemStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemStore) AcquireEngineLock(hold time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockedUntil.After(s.now()) {
		return false
	}
	s.lockedUntil = s.now().Add(hold)
	return true
}

func (s *MemStore) ReleaseEngineLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedUntil = time.Time{}
}

func (s *MemStore) LoadEngineState() (*engine.State, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.cursor, nil
}

func (s *MemStore) SaveEngineState(req SaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = req.State
	s.cursor = req.Cursor
	return nil
}

func (s *MemStore) SyncPersonasFromUsers(state *engine.State) (*engine.State, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, created := syncPersonas(state, s.users, s.now())
	s.state = state
	return state, created, nil
}

func (s *MemStore) ListPriorityPersonaIDs(windowHours int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return priorityIDs(s.state, windowHours, s.now())
}

func (s *MemStore) ListPrioritySchedulePersonaIDs(windowHours int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return priorityScheduleIDs(s.state, windowHours, s.now())
}

func (s *MemStore) ListFilterPersonaIDs(windowHours int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterIDs(s.state, windowHours, s.now())
}
