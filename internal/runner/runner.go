// Package runner drives the engine from the host side: it takes the fleet
// lock, loads state, syncs personas, schedules prioritized and filtered
// batches under the wall budget, and persists the result.
package runner

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/store"
)

// Envelope is the response returned to the cron trigger.
type Envelope struct {
	Status            string  `json:"status"` // ok | skipped
	Reason            string  `json:"reason,omitempty"`
	Ticks             int     `json:"ticks"`
	DurationMS        int64   `json:"durationMs"`
	MatchesCreated    int     `json:"matchesCreated"`
	PersonasUpdated   int     `json:"personasUpdated"`
	FeedbackProcessed int     `json:"feedbackProcessed"`
	Cursor            int     `json:"cursor"`
	PersonaCount      int     `json:"personaCount"`
	CreatedPersonaIDs []int64 `json:"createdPersonaIds,omitempty"`
}

// Runner owns one store adapter and the engine dependencies.
type Runner struct {
	store store.Adapter
	cfg   *config.AppConfig
	deps  engine.Deps
	now   func() time.Time
}

// New wires a runner. Deps may be zero-valued for a heuristic-only setup.
func New(st store.Adapter, cfg *config.AppConfig, deps engine.Deps) *Runner {
	return &Runner{store: st, cfg: cfg, deps: deps, now: time.Now}
}

// SetClock overrides the time source, for deterministic tests.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// RunCron executes one full cron invocation: up to MaxTicks rotating sub-ticks
// followed by the priority-schedule sweep and the relaxed-filter sweep, all
// under the MATCHING_CRON_MAX_MS wall budget and the fleet lock.
func (r *Runner) RunCron(ctx context.Context) Envelope {
	start := r.now()

	if !r.store.AcquireEngineLock(time.Duration(r.cfg.LockMS) * time.Millisecond) {
		log.Info().Msg("Engine lock held elsewhere, skipping run")
		return Envelope{Status: "skipped", Reason: "locked"}
	}
	defer r.store.ReleaseEngineLock()

	budget := time.Duration(r.cfg.MaxRunMS) * time.Millisecond
	ctx, cancel := context.WithDeadline(ctx, start.Add(budget))
	defer cancel()

	state, cursor, err := r.store.LoadEngineState()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load engine state")
		return Envelope{Status: "skipped", Reason: "load_failed", DurationMS: r.sinceMS(start)}
	}

	state, created, err := r.store.SyncPersonasFromUsers(state)
	if err != nil {
		log.Error().Err(err).Msg("Persona sync failed, continuing with loaded state")
	}

	env := Envelope{Status: "ok", CreatedPersonaIDs: created}
	updated := make(map[int64]bool)

	// 1. Rotating prioritized sub-ticks.
	prioritized := r.prioritizedIDs(state)
	for tick := 0; tick < r.cfg.MaxTicks && len(prioritized) > 0; tick++ {
		if r.budgetExhausted(ctx, start, budget) {
			break
		}
		var batch []int64
		batch, cursor = selectBatch(prioritized, cursor, r.cfg.BatchSize)

		opts := r.cfg.EngineOptions(r.now())
		opts.TargetPersonaIDs = batch
		if !r.runSweep(ctx, &state, opts, &env, updated) {
			break
		}
		env.Ticks++
	}

	// 2. Auto-scheduling sweep for personas due a meeting.
	if ids := r.store.ListPrioritySchedulePersonaIDs(r.cfg.PriorityWindowHours); len(ids) > 0 &&
		!r.budgetExhausted(ctx, start, budget) {
		opts := r.cfg.EngineOptions(r.now())
		opts.TargetPersonaIDs = ids
		opts.AutoScheduleMatches = true
		if r.runSweep(ctx, &state, opts, &env, updated) {
			env.Ticks++
		}
	}

	// 3. Relaxed-filter sweep for personas the normal rules starve.
	if ids := r.store.ListFilterPersonaIDs(r.cfg.PriorityWindowHours); len(ids) > 0 &&
		!r.budgetExhausted(ctx, start, budget) {
		opts := r.cfg.EngineOptions(r.now())
		opts.TargetPersonaIDs = ids
		opts.RequireSameCity = false
		opts.RequireSharedInterests = false
		if r.runSweep(ctx, &state, opts, &env, updated) {
			env.Ticks++
		}
	}

	env.DurationMS = r.sinceMS(start)
	env.Cursor = cursor
	env.PersonaCount = len(state.Personas)
	env.PersonasUpdated = len(updated)

	lockedUntil := start.Add(time.Duration(r.cfg.LockMS) * time.Millisecond)
	if err := r.store.SaveEngineState(store.SaveRequest{
		State:             state,
		Cursor:            cursor,
		LastRunAt:         start,
		LastRunDurationMS: env.DurationMS,
		LockedUntil:       &lockedUntil,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to save engine state")
		env.Status = "skipped"
		env.Reason = "save_failed"
	}

	log.Info().Int("ticks", env.Ticks).Int("matches", env.MatchesCreated).
		Int("feedback", env.FeedbackProcessed).Int64("durationMs", env.DurationMS).
		Msg("Cron run finished")
	return env
}

// runSweep executes one engine tick over a target set and folds the result
// into the envelope. Returns false when the sweep could not run.
func (r *Runner) runSweep(ctx context.Context, state **engine.State, opts engine.Options, env *Envelope, updated map[int64]bool) bool {
	res, err := engine.Run(ctx, *state, opts, r.deps)
	if err != nil {
		log.Error().Err(err).Msg("Engine tick rejected options")
		return false
	}
	*state = res.State
	env.MatchesCreated += len(res.MatchesCreated)
	env.FeedbackProcessed += len(res.FeedbackProcessed)
	for _, p := range res.PersonasUpdated {
		updated[p.ID] = true
	}
	return true
}

// prioritizedIDs orders the working set: priority list intersected with the
// active set first (in priority order), then the remaining active ids
// ascending.
func (r *Runner) prioritizedIDs(state *engine.State) []int64 {
	active := make(map[int64]bool)
	var activeIDs []int64
	for _, p := range state.Personas {
		if p.Status == engine.StatusActive {
			active[p.ID] = true
			activeIDs = append(activeIDs, p.ID)
		}
	}
	sort.Slice(activeIDs, func(i, j int) bool { return activeIDs[i] < activeIDs[j] })

	seen := make(map[int64]bool)
	var out []int64
	for _, id := range r.store.ListPriorityPersonaIDs(r.cfg.PriorityWindowHours) {
		if active[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range activeIDs {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// selectBatch takes n ids starting at cursor, wrapping to 0 at the end.
func selectBatch(ids []int64, cursor, n int) ([]int64, int) {
	if len(ids) == 0 || n <= 0 {
		return nil, 0
	}
	if cursor < 0 || cursor >= len(ids) {
		cursor = 0
	}
	if n > len(ids) {
		n = len(ids)
	}
	out := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ids[(cursor+i)%len(ids)])
	}
	return out, (cursor + n) % len(ids)
}

func (r *Runner) budgetExhausted(ctx context.Context, start time.Time, budget time.Duration) bool {
	return ctx.Err() != nil || r.now().Sub(start) >= budget
}

func (r *Runner) sinceMS(start time.Time) int64 {
	return r.now().Sub(start).Milliseconds()
}
