package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// tick carries the working set of one engine invocation. All state mutation
// happens on the calling goroutine; concurrent provider calls only compute.
type tick struct {
	ctx       context.Context
	state     *State
	opts      Options
	deps      Deps
	weights   Weights
	idFactory IDFactory

	byID    map[int64]*Persona
	scope   map[int64]bool // nil admits every persona
	mutated map[int64]bool

	// BFS results, computed at most once per persona per tick.
	distCache map[int64]map[int64]int

	// Matches created per persona this tick, for the per-tick cap.
	createdCount map[int64]int

	// Per-persona pending work, committed only when the persona completes.
	pendingMatches  []MatchRecord
	pendingMeetings []Meeting
	pendingEdges    []GraphEdge

	matchesCreated    []MatchRecord
	feedbackProcessed []FeedbackEntry
}

// Run executes one engine tick. The passed state value is owned by the tick;
// callers observe only the returned result. Per-persona and per-pair failures
// are contained and logged; only malformed inputs return an error.
func Run(ctx context.Context, state *State, opts Options, deps Deps) (*RunResult, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	weights := DefaultWeights()
	if deps.Weights != nil {
		weights = *deps.Weights
	}
	idf := deps.IDFactory
	if idf == nil {
		idf = NewID
	}

	t := &tick{
		ctx:          ctx,
		state:        cloneStateShallow(state),
		opts:         opts,
		deps:         deps,
		weights:      weights,
		idFactory:    idf,
		mutated:      make(map[int64]bool),
		distCache:    make(map[int64]map[int64]int),
		createdCount: make(map[int64]int),
	}
	t.byID = make(map[int64]*Persona, len(t.state.Personas))
	for _, p := range t.state.Personas {
		t.byID[p.ID] = p
	}
	t.scope = targetScope(opts.TargetPersonaIDs)

	// 1. Feedback first, so reliability and bias adjustments influence this
	// tick's matching.
	t.processFeedbackQueue()

	// 2. Per-persona, per-domain matching pipeline.
	for _, p := range t.targetPersonas() {
		if t.ctx.Err() != nil {
			log.Debug().Int64("persona", p.ID).Msg("Tick budget exhausted, stopping between personas")
			break
		}
		t.runPersona(p)
	}

	return &RunResult{
		State:             t.state,
		MatchesCreated:    t.matchesCreated,
		FeedbackProcessed: t.feedbackProcessed,
		PersonasUpdated:   t.updatedPersonas(),
	}, nil
}

// targetScope builds the tick's working-set filter from TargetPersonaIDs.
// A restricted tick confines initiators and candidates alike, so ticks over
// disjoint target sets can never produce the same pair.
func targetScope(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	scope := make(map[int64]bool, len(ids))
	for _, id := range ids {
		scope[id] = true
	}
	return scope
}

func (t *tick) inScope(id int64) bool {
	return t.scope == nil || t.scope[id]
}

// targetPersonas resolves the tick's working set in ascending id order.
func (t *tick) targetPersonas() []*Persona {
	var out []*Persona
	if len(t.opts.TargetPersonaIDs) > 0 {
		for _, id := range t.opts.TargetPersonaIDs {
			if p := t.byID[id]; p != nil && p.Status == StatusActive {
				out = append(out, p)
			}
		}
	} else {
		for _, p := range t.state.Personas {
			if p.Status == StatusActive {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// runPersona executes the full pipeline for one persona. Work is staged in
// pending buffers and committed only when the persona completes, so a budget
// cut mid-persona discards exactly that persona's partial work.
func (t *tick) runPersona(p *Persona) {
	t.pendingMatches = nil
	t.pendingMeetings = nil
	t.pendingEdges = nil

	for _, domain := range t.opts.MatchDomains {
		if !p.ParticipatesIn(domain) {
			continue
		}
		pool := t.buildCandidatePool(p, domain)
		if len(pool) == 0 {
			continue
		}
		small, notes := t.smallPass(p, pool, domain)
		if len(small.ranked) == 0 {
			continue
		}
		scored := t.largePass(p, small, domain, notes)
		t.recordMatches(p, domain, scored)
	}

	if t.ctx.Err() != nil {
		log.Warn().Int64("persona", p.ID).Msg("Discarding partial work for persona interrupted mid-sweep")
		return
	}
	t.commitPending()
}

// commitPending folds the current persona's staged matches into shared state.
func (t *tick) commitPending() {
	for _, m := range t.pendingMatches {
		t.state.Matches = append(t.state.Matches, m)
		t.matchesCreated = append(t.matchesCreated, m)
	}
	t.state.Meetings = append(t.state.Meetings, t.pendingMeetings...)
	t.state.MatchGraph.Edges = append(t.state.MatchGraph.Edges, t.pendingEdges...)
	t.pendingMatches = nil
	t.pendingMeetings = nil
	t.pendingEdges = nil
}

// mutable returns a tick-owned copy of a persona, cloning it on first touch so
// the caller's state value is never modified in place.
func (t *tick) mutable(id int64) *Persona {
	p := t.byID[id]
	if p == nil {
		return nil
	}
	if t.mutated[id] {
		return p
	}
	cp := clonePersona(p)
	t.mutated[id] = true
	t.byID[id] = cp
	for i, q := range t.state.Personas {
		if q.ID == id {
			t.state.Personas[i] = cp
			break
		}
	}
	return cp
}

// bumpRevision marks one logical mutation batch on a persona.
func (t *tick) bumpRevision(p *Persona) {
	p.ProfileRevision++
	p.LastUpdated = t.opts.Now
}

// distances returns BFS hop counts from a persona, cached for the tick.
func (t *tick) distances(from int64) map[int64]int {
	if d, ok := t.distCache[from]; ok {
		return d
	}
	d := GraphDistances(&t.state.MatchGraph, from, t.opts.GraphHops)
	t.distCache[from] = d
	return d
}

// updatedPersonas returns every persona whose revision changed, ascending by id.
func (t *tick) updatedPersonas() []*Persona {
	ids := make([]int64, 0, len(t.mutated))
	for id := range t.mutated {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Persona, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}

// cloneStateShallow copies the aggregate so appends and persona swaps never
// touch the caller's value. Persona pointers are shared until first mutation.
func cloneStateShallow(s *State) *State {
	cp := *s
	cp.Personas = append([]*Persona(nil), s.Personas...)
	cp.Matches = append([]MatchRecord(nil), s.Matches...)
	cp.Meetings = append([]Meeting(nil), s.Meetings...)
	cp.FeedbackQueue = append([]FeedbackEntry(nil), s.FeedbackQueue...)
	cp.MatchGraph.Edges = append([]GraphEdge(nil), s.MatchGraph.Edges...)
	return &cp
}
