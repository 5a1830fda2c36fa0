package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/internal/engine"
)

var testNow = time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

func activePersona(id int64) *engine.Persona {
	return &engine.Persona{ID: id, Status: engine.StatusActive, ProfileRevision: 1}
}

func TestPriorityIDs_BoostAndCreditOrdering(t *testing.T) {
	boost80, boost20 := 80, 20
	paidRecent := testNow.Add(-2 * time.Hour)
	paidOld := testNow.Add(-48 * time.Hour)

	p1 := activePersona(1)
	p1.PriorityBoost = &boost20
	p2 := activePersona(2)
	p2.PriorityBoost = &boost80
	p3 := activePersona(3)
	p3.CreditPaidAt = &paidRecent
	p4 := activePersona(4)
	p4.CreditPaidAt = &paidOld // outside the 24h window
	p5 := activePersona(5)

	state := &engine.State{Personas: []*engine.Persona{p1, p2, p3, p4, p5}}
	got := priorityIDs(state, 24, testNow)

	// Boosts descending first, then credit recency; stale credit and plain
	// personas excluded.
	assert.Equal(t, []int64{2, 1, 3}, got)
}

func TestPriorityIDs_CreditLedgerEntries(t *testing.T) {
	p1 := activePersona(1)
	state := &engine.State{
		Personas: []*engine.Persona{p1},
		Credits: []engine.CreditEntry{
			{ID: "c1", PersonaID: 1, Amount: 1, PaidAt: testNow.Add(-1 * time.Hour)},
		},
	}
	assert.Equal(t, []int64{1}, priorityIDs(state, 24, testNow))
	assert.Empty(t, priorityIDs(state, 0, testNow.Add(2*time.Hour)))
}

func TestPriorityScheduleIDs(t *testing.T) {
	state := &engine.State{
		Personas: []*engine.Persona{activePersona(1), activePersona(2), activePersona(3), activePersona(4)},
		Matches: []engine.MatchRecord{
			{MatchID: "m1", PersonaA: 1, PersonaB: 2, Status: engine.MatchProposed, CreatedAt: testNow.Add(-3 * time.Hour)},
			{MatchID: "m2", PersonaA: 3, PersonaB: 4, Status: engine.MatchProposed, ScheduledMeetingID: "mt1", CreatedAt: testNow.Add(-3 * time.Hour)},
			{MatchID: "m3", PersonaA: 3, PersonaB: 4, Status: engine.MatchProposed, CreatedAt: testNow.Add(-72 * time.Hour)},
		},
	}
	// Only the recent proposed match without a meeting counts.
	assert.Equal(t, []int64{1, 2}, priorityScheduleIDs(state, 24, testNow))
}

func TestFilterIDs(t *testing.T) {
	paused := activePersona(4)
	paused.Status = engine.StatusPaused
	state := &engine.State{
		Personas: []*engine.Persona{activePersona(1), activePersona(2), activePersona(3), paused},
		Matches: []engine.MatchRecord{
			{MatchID: "m1", PersonaA: 1, PersonaB: 2, CreatedAt: testNow.Add(-2 * time.Hour)},
		},
	}
	// 3 is active and unmatched; 4 is paused; 1 and 2 matched recently.
	assert.Equal(t, []int64{3}, filterIDs(state, 24, testNow))
}

func TestSyncPersonas_Idempotent(t *testing.T) {
	users := []UserRecord{
		{ID: 1, Name: "Ada", Age: 31, Gender: "woman", City: "Berlin", Interests: []string{"chess"}, Domains: []string{"friendship", "bogus"}},
		{ID: 2, Name: "Ben", City: "Hamburg"},
	}

	state, created := syncPersonas(&engine.State{}, users, testNow)
	require.Len(t, created, 2)
	require.Len(t, state.Personas, 2)

	p := state.PersonaByID(1)
	assert.Equal(t, engine.StatusActive, p.Status)
	assert.Equal(t, "Ada", p.General.Name)
	assert.Equal(t, []engine.Domain{engine.DomainFriendship}, p.Domains, "unknown domain tags are dropped")
	assert.Equal(t, 0.5, p.Reliability.Score)
	assert.Equal(t, int64(1), p.ProfileRevision)

	// Second sync creates nothing and touches nothing.
	p.Reliability.Score = 0.9
	state, created = syncPersonas(state, users, testNow.Add(time.Hour))
	assert.Empty(t, created)
	assert.Len(t, state.Personas, 2)
	assert.Equal(t, 0.9, state.PersonaByID(1).Reliability.Score)
}

func TestMemStore_LockLifecycle(t *testing.T) {
	s := NewMemStore(nil, nil)
	clock := testNow
	s.SetClock(func() time.Time { return clock })

	require.True(t, s.AcquireEngineLock(time.Minute))
	assert.False(t, s.AcquireEngineLock(time.Minute), "held lock must not be reacquired")

	// An expired lock is reclaimable.
	clock = clock.Add(2 * time.Minute)
	assert.True(t, s.AcquireEngineLock(time.Minute))

	s.ReleaseEngineLock()
	assert.True(t, s.AcquireEngineLock(time.Minute))
}

func TestMemStore_SaveLoadRoundtrip(t *testing.T) {
	s := NewMemStore(&engine.State{Personas: []*engine.Persona{activePersona(1)}}, nil)

	state, cursor, err := s.LoadEngineState()
	require.NoError(t, err)
	assert.Equal(t, 0, cursor)
	require.Len(t, state.Personas, 1)

	state.Personas = append(state.Personas, activePersona(2))
	require.NoError(t, s.SaveEngineState(SaveRequest{State: state, Cursor: 7, LastRunAt: testNow}))

	state, cursor, err = s.LoadEngineState()
	require.NoError(t, err)
	assert.Equal(t, 7, cursor)
	assert.Len(t, state.Personas, 2)
}
