// Package store provides the host-side persistence contract for the engine:
// the process-wide lock, state load/save with the batch cursor, persona sync
// from an external user directory, and the priority list queries.
package store

import (
	"sort"
	"time"

	"matchbook/internal/engine"
)

// SaveRequest is everything persisted at the end of a run.
type SaveRequest struct {
	State             *engine.State `json:"state"`
	Cursor            int           `json:"cursor"`
	LastRunAt         time.Time     `json:"lastRunAt"`
	LastRunDurationMS int64         `json:"lastRunDurationMs"`
	LockedUntil       *time.Time    `json:"lockedUntil,omitempty"`
}

// Adapter is the store contract the engine host depends on. At most one tick
// runs at a time across the fleet; competing callers see AcquireEngineLock
// return false.
type Adapter interface {
	AcquireEngineLock(hold time.Duration) bool
	ReleaseEngineLock()

	LoadEngineState() (*engine.State, int, error)
	SaveEngineState(req SaveRequest) error

	// SyncPersonasFromUsers creates personas for external users that have no
	// persona yet. Idempotent; returns the ids created on this call.
	SyncPersonasFromUsers(state *engine.State) (*engine.State, []int64, error)

	ListPriorityPersonaIDs(windowHours int) []int64
	ListPrioritySchedulePersonaIDs(windowHours int) []int64
	ListFilterPersonaIDs(windowHours int) []int64
}

// priorityIDs returns personas with a priority boost set or a credit paid
// within the window, sorted by boost descending then credit recency.
func priorityIDs(state *engine.State, windowHours int, now time.Time) []int64 {
	if state == nil {
		return nil
	}
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)

	paid := make(map[int64]time.Time)
	for _, c := range state.Credits {
		if c.PaidAt.Before(cutoff) {
			continue
		}
		if prev, ok := paid[c.PersonaID]; !ok || c.PaidAt.After(prev) {
			paid[c.PersonaID] = c.PaidAt
		}
	}

	type entry struct {
		id     int64
		boost  int
		paidAt time.Time
	}
	var entries []entry
	for _, p := range state.Personas {
		boost := 0
		hasBoost := false
		if p.PriorityBoost != nil {
			boost = *p.PriorityBoost
			hasBoost = true
		}
		paidAt, hasCredit := paid[p.ID]
		if !hasCredit && p.CreditPaidAt != nil && !p.CreditPaidAt.Before(cutoff) {
			paidAt = *p.CreditPaidAt
			hasCredit = true
		}
		if !hasBoost && !hasCredit {
			continue
		}
		entries = append(entries, entry{id: p.ID, boost: boost, paidAt: paidAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].boost != entries[j].boost {
			return entries[i].boost > entries[j].boost
		}
		if !entries[i].paidAt.Equal(entries[j].paidAt) {
			return entries[i].paidAt.After(entries[j].paidAt)
		}
		return entries[i].id < entries[j].id
	})

	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

// priorityScheduleIDs: personas with a recent proposed match that never got a
// meeting are due for the auto-scheduling sweep.
func priorityScheduleIDs(state *engine.State, windowHours int, now time.Time) []int64 {
	if state == nil {
		return nil
	}
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)

	due := make(map[int64]bool)
	for i := range state.Matches {
		m := &state.Matches[i]
		if m.Status != engine.MatchProposed || m.ScheduledMeetingID != "" || m.CreatedAt.Before(cutoff) {
			continue
		}
		due[m.PersonaA] = true
		due[m.PersonaB] = true
	}
	return sortedIDs(due)
}

// filterIDs: active personas with no match inside the window get re-evaluated
// with the city and shared-interest constraints relaxed.
func filterIDs(state *engine.State, windowHours int, now time.Time) []int64 {
	if state == nil {
		return nil
	}
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)

	matched := make(map[int64]bool)
	for i := range state.Matches {
		m := &state.Matches[i]
		if m.CreatedAt.Before(cutoff) {
			continue
		}
		matched[m.PersonaA] = true
		matched[m.PersonaB] = true
	}

	stale := make(map[int64]bool)
	for _, p := range state.Personas {
		if p.Status == engine.StatusActive && !matched[p.ID] {
			stale[p.ID] = true
		}
	}
	return sortedIDs(stale)
}

func sortedIDs(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
