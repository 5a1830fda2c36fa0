package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// smallPass produces the cheap heuristic ordering of a candidate pool,
// truncated to SmallPassTopK. When an LLM provider is present it replaces the
// heuristic; a provider failure falls back to the heuristic for this call only.
func (t *tick) smallPass(p *Persona, pool []*Persona, domain Domain) (smallPassResult, string) {
	if t.deps.LLM != nil {
		out, err := t.deps.LLM.SmallPass(t.ctx, SmallPassInput{
			Persona:    p,
			Candidates: pool,
			Domain:     domain,
		})
		if err == nil {
			if ranked := resolveRankedIDs(pool, out.RankedIDs, t.opts.SmallPassTopK); len(ranked) > 0 {
				return smallPassResult{ranked: ranked}, out.Notes
			}
			log.Warn().Int64("persona", p.ID).Str("domain", string(domain)).
				Msg("LLM small pass returned no usable ids, falling back to heuristic")
		} else {
			log.Warn().Err(err).Int64("persona", p.ID).Str("domain", string(domain)).
				Msg("LLM small pass failed, falling back to heuristic")
		}
	}
	return t.heuristicSmallPass(p, pool, domain)
}

// smallPassResult carries the surviving candidates plus, for the heuristic
// path, the raw scores that end up on the assessment as smallPassScore.
type smallPassResult struct {
	ranked []*Persona
	scores map[int64]float64
}

// heuristicSmallPass scores each candidate with a weighted component sum and
// returns the top K in descending order.
func (t *tick) heuristicSmallPass(p *Persona, pool []*Persona, domain Domain) (smallPassResult, string) {
	w := t.weights.SmallPass
	dist := t.distances(p.ID)

	type scored struct {
		c     *Persona
		score float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, c := range pool {
		var s float64
		s += w.InterestOverlap * Jaccard(p.Profile.Interests, c.Profile.Interests)
		if t.opts.RequireSameCity && sameCity(p, c) {
			s += w.CityMatch
		}
		s += w.AvailabilityOverlap * Clamp(float64(OverlapMinutes(p, c, t.opts.Now))/480, 0, 1)
		s += w.Reliability * t.opts.ReliabilityWeight * c.Reliability.Score
		if hops, ok := dist[c.ID]; ok {
			s += w.GraphProximity * (1 / float64(1+hops))
		}
		s += w.GoalAlignment * Jaccard(p.Profile.ConnectionGoals, c.Profile.ConnectionGoals)
		if len(c.Profile.FeedbackSummary.RedFlagTags) > 0 {
			s -= w.RedFlagPenalty
		}
		ranked = append(ranked, scored{c: c, score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].c.ID < ranked[j].c.ID
	})

	k := t.opts.SmallPassTopK
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	res := smallPassResult{
		ranked: make([]*Persona, len(ranked)),
		scores: make(map[int64]float64, len(ranked)),
	}
	for i, r := range ranked {
		res.ranked[i] = r.c
		res.scores[r.c.ID] = Clamp(r.score*100, -100, 100)
	}

	notes := fmt.Sprintf("heuristic small pass: %d of %d candidates kept for %s", len(res.ranked), len(pool), domain)
	return res, notes
}

// resolveRankedIDs maps provider-returned ids back onto the candidate pool,
// dropping unknown ids and duplicates and capping at k.
func resolveRankedIDs(pool []*Persona, ids []int64, k int) []*Persona {
	byID := make(map[int64]*Persona, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}
	seen := make(map[int64]bool, len(ids))
	var out []*Persona
	for _, id := range ids {
		if len(out) >= k {
			break
		}
		c := byID[id]
		if c == nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	return out
}
