package engine

import (
	"sort"
	"strings"
	"time"
)

// buildCandidatePool returns the filtered, ordered candidate list for one
// persona in one domain, capped at MaxCandidates. Rules apply in order and a
// candidate is dropped at the first rejection.
func (t *tick) buildCandidatePool(p *Persona, domain Domain) []*Persona {
	var pool []*Persona
	for _, c := range t.state.Personas {
		if t.candidateEligible(p, c, domain) {
			pool = append(pool, c)
		}
	}

	// Graph-proximate candidates first, then by reliability, then id for
	// deterministic output.
	dist := t.distances(p.ID)
	sort.SliceStable(pool, func(i, j int) bool {
		_, nearI := dist[pool[i].ID]
		_, nearJ := dist[pool[j].ID]
		if nearI != nearJ {
			return nearI
		}
		if pool[i].Reliability.Score != pool[j].Reliability.Score {
			return pool[i].Reliability.Score > pool[j].Reliability.Score
		}
		return pool[i].ID < pool[j].ID
	})

	if len(pool) > t.opts.MaxCandidates {
		pool = pool[:t.opts.MaxCandidates]
	}
	return pool
}

// candidateEligible applies the ordered pool rules from the basic identity
// checks through domain-specific eligibility.
func (t *tick) candidateEligible(p, c *Persona, domain Domain) bool {
	// 1. Tick scope, identity, and status
	if !t.inScope(c.ID) || c.ID == p.ID || c.Status != StatusActive {
		return false
	}

	// 2. Domain participation
	if !c.ParticipatesIn(domain) {
		return false
	}

	// 3. Blocks and exclusions, both directions
	if containsID(p.MatchPreferences.BlockedPersonaIDs, c.ID) ||
		containsID(p.MatchPreferences.ExcludedPersonaIDs, c.ID) {
		return false
	}
	if containsID(c.MatchPreferences.BlockedPersonaIDs, p.ID) ||
		containsID(c.MatchPreferences.ExcludedPersonaIDs, p.ID) {
		return false
	}

	// 4. Match cooldown, regardless of domain
	if t.pairMatchedSince(p.ID, c.ID, t.cooldownStart()) {
		return false
	}

	// 5. Recent-match window
	if t.opts.RecentMatchWindow > 0 {
		since := t.cooldownStart()
		if t.countMatchesSince(p.ID, since) >= t.opts.RecentMatchWindow &&
			t.pairMatchedSince(p.ID, c.ID, since) {
			return false
		}
	}

	// 6. Negative feedback cooldown, either direction
	if days := t.opts.NegativeFeedbackCooldownDays; days > 0 {
		since := t.opts.Now.AddDate(0, 0, -days)
		if t.negativeFeedbackSince(p.ID, c.ID, since) {
			return false
		}
	}

	// 7. Availability overlap floor
	if t.opts.MinAvailabilityMinutes > 0 &&
		OverlapMinutes(p, c, t.opts.Now) < t.opts.MinAvailabilityMinutes {
		return false
	}

	// 8. Reliability floor
	if min := p.MatchPreferences.ReliabilityMinScore; min != nil && c.Reliability.Score < *min {
		return false
	}

	// 9. Domain-specific eligibility
	switch domain {
	case DomainDating:
		if !datingEligible(p, c) {
			return false
		}
	case DomainBusiness:
		if !businessEligible(p, c) {
			return false
		}
	case DomainFriendship:
		if !friendshipEligible(p, c, t.opts.RequireSharedInterests) {
			return false
		}
	}

	if t.opts.RequireSameCity && (domain == DomainDating || domain == DomainGeneral) {
		if !sameCity(p, c) {
			return false
		}
	}
	if t.opts.RequireSharedInterests && domain != DomainFriendship {
		if SharedCount(p.Profile.Interests, c.Profile.Interests) == 0 {
			return false
		}
	}

	return true
}

func (t *tick) cooldownStart() time.Time {
	return t.opts.Now.AddDate(0, 0, -t.opts.MatchCooldownDays)
}

// pairMatchedSince reports an existing match between the pair created at or
// after since, including matches staged earlier in this tick.
func (t *tick) pairMatchedSince(a, b int64, since time.Time) bool {
	for i := range t.state.Matches {
		m := &t.state.Matches[i]
		if m.Involves(a, b) && !m.CreatedAt.Before(since) {
			return true
		}
	}
	for i := range t.pendingMatches {
		m := &t.pendingMatches[i]
		if m.Involves(a, b) && !m.CreatedAt.Before(since) {
			return true
		}
	}
	return false
}

// countMatchesSince counts a persona's matches created at or after since,
// including staged ones.
func (t *tick) countMatchesSince(id int64, since time.Time) int {
	n := 0
	for i := range t.state.Matches {
		m := &t.state.Matches[i]
		if (m.PersonaA == id || m.PersonaB == id) && !m.CreatedAt.Before(since) {
			n++
		}
	}
	for i := range t.pendingMatches {
		m := &t.pendingMatches[i]
		if (m.PersonaA == id || m.PersonaB == id) && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

// negativeFeedbackSince reports a negative feedback entry between the pair in
// either direction, processed or not, created at or after since.
func (t *tick) negativeFeedbackSince(a, b int64, since time.Time) bool {
	for i := range t.state.FeedbackQueue {
		e := &t.state.FeedbackQueue[i]
		if e.Sentiment != SentimentNegative || e.CreatedAt.Before(since) {
			continue
		}
		if (e.FromPersonaID == a && e.ToPersonaID == b) || (e.FromPersonaID == b && e.ToPersonaID == a) {
			return true
		}
	}
	return false
}

func sameCity(a, b *Persona) bool {
	ca := strings.TrimSpace(a.General.Location.City)
	cb := strings.TrimSpace(b.General.Location.City)
	if ca == "" || cb == "" {
		return false
	}
	return strings.EqualFold(ca, cb)
}
