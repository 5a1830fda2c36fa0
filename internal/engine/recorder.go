package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// recordMatches turns surviving scored pairs into match records and graph
// edges, re-checking pair eligibility against the state as already modified by
// this tick. Creation per persona is capped at LargePassTopK per tick.
func (t *tick) recordMatches(p *Persona, domain Domain, scored []scoredPair) {
	for _, sp := range scored {
		if t.createdCount[p.ID] >= t.opts.LargePassTopK {
			return
		}
		c := sp.candidate

		// Re-check: an earlier domain or persona in this tick may have
		// already matched this pair or tripped the recent window.
		if !t.pairStillEligible(p, c) {
			continue
		}

		m := MatchRecord{
			MatchID:    t.idFactory(),
			Domain:     domain,
			PersonaA:   p.ID,
			PersonaB:   c.ID,
			CreatedAt:  t.opts.Now,
			Status:     MatchProposed,
			Assessment: sp.assessment,
			Reasoning: append([]string{
				fmt.Sprintf("matched in %s with score %.1f", domain, sp.assessment.Score),
			}, sp.reasoning...),
		}

		if t.opts.AutoScheduleMatches {
			t.scheduleMeeting(p, c, &m)
		}

		t.pendingMatches = append(t.pendingMatches, m)
		t.pendingEdges = append(t.pendingEdges, GraphEdge{
			From:      p.ID,
			To:        c.ID,
			Weight:    maxF(0, m.Assessment.Score/100),
			Type:      EdgeMatch,
			CreatedAt: t.opts.Now,
		})
		t.createdCount[p.ID]++

		log.Debug().Str("match", m.MatchID).Int64("a", p.ID).Int64("b", c.ID).
			Str("domain", string(domain)).Float64("score", m.Assessment.Score).
			Msg("Match created")
	}
}

// pairStillEligible re-applies the block, cooldown, and recent-window rules
// against state including matches staged earlier in this tick.
func (t *tick) pairStillEligible(p, c *Persona) bool {
	if containsID(p.MatchPreferences.BlockedPersonaIDs, c.ID) ||
		containsID(p.MatchPreferences.ExcludedPersonaIDs, c.ID) ||
		containsID(c.MatchPreferences.BlockedPersonaIDs, p.ID) ||
		containsID(c.MatchPreferences.ExcludedPersonaIDs, p.ID) {
		return false
	}
	since := t.cooldownStart()
	if t.pairMatchedSince(p.ID, c.ID, since) {
		return false
	}
	if t.opts.RecentMatchWindow > 0 &&
		t.countMatchesSince(p.ID, since) >= t.opts.RecentMatchWindow &&
		t.pairMatchedSince(p.ID, c.ID, since) {
		return false
	}
	return true
}

// scheduleMeeting appends a meeting placeholder for an auto-scheduled match.
// The location provider is consulted at most once; on failure the match keeps
// no scheduled meeting.
func (t *tick) scheduleMeeting(p, c *Persona, m *MatchRecord) {
	meeting := Meeting{
		ID:        t.idFactory(),
		MatchID:   m.MatchID,
		Status:    MeetingScheduled,
		CreatedAt: t.opts.Now,
	}
	if t.deps.Location != nil {
		resolved, err := t.deps.Location.ResolveMeeting(t.ctx, p, c, m)
		if err != nil {
			log.Warn().Err(err).Str("match", m.MatchID).Msg("Location provider failed, match left unscheduled")
			return
		}
		meeting.StartsAt = resolved.StartsAt
		meeting.Location = resolved.Location
	}
	m.ScheduledMeetingID = meeting.ID
	t.pendingMeetings = append(t.pendingMeetings, meeting)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
