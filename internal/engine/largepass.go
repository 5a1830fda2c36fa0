package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// llmLargePassMaxInFlight bounds concurrent provider calls per persona.
const llmLargePassMaxInFlight = 8

// scoredPair is one assessed persona/candidate pair awaiting recording.
type scoredPair struct {
	candidate  *Persona
	assessment Assessment
	reasoning  []string
}

// largePass assesses every small-pass survivor and keeps the top LargePassTopK
// in descending score order, ties broken by ascending candidate id. With an
// LLM provider present, calls run concurrently with bounded parallelism and
// results are applied in deterministic id order; a failed call falls back to
// the heuristic for that pair only.
func (t *tick) largePass(p *Persona, small smallPassResult, domain Domain, notes string) []scoredPair {
	pairs := make([]scoredPair, len(small.ranked))

	if t.deps.LLM != nil {
		outs := make([]*LargePassOutput, len(small.ranked))
		limit := t.opts.SmallPassTopK
		if limit > llmLargePassMaxInFlight {
			limit = llmLargePassMaxInFlight
		}
		if limit < 1 {
			limit = 1
		}
		g, ctx := errgroup.WithContext(t.ctx)
		g.SetLimit(limit)
		for i, c := range small.ranked {
			g.Go(func() error {
				out, err := t.deps.LLM.LargePass(ctx, LargePassInput{
					Persona:   p,
					Candidate: c,
					Domain:    domain,
					Notes:     notes,
				})
				if err != nil {
					log.Warn().Err(err).Int64("persona", p.ID).Int64("candidate", c.ID).
						Msg("LLM large pass failed, falling back to heuristic")
					return nil
				}
				outs[i] = &out
				return nil
			})
		}
		_ = g.Wait()

		// Apply gathered results in ascending candidate id order so the
		// outcome does not depend on completion order.
		order := make([]int, len(small.ranked))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return small.ranked[order[a]].ID < small.ranked[order[b]].ID
		})
		for _, i := range order {
			c := small.ranked[i]
			if out := outs[i]; out != nil {
				pairs[i] = scoredPair{
					candidate: c,
					assessment: Assessment{
						Score:           Clamp(out.Score, -100, 100),
						PositiveReasons: out.PositiveReasons,
						NegativeReasons: out.NegativeReasons,
						RedFlags:        out.RedFlags,
					},
					reasoning: []string{fmt.Sprintf("llm large pass: %s", strings.TrimSpace(out.Notes))},
				}
			} else {
				pairs[i] = t.heuristicAssess(p, c, domain)
				pairs[i].reasoning = append(pairs[i].reasoning, "llm:fallback")
			}
			t.attachSmallPassScore(&pairs[i], small)
		}
	} else {
		for i, c := range small.ranked {
			pairs[i] = t.heuristicAssess(p, c, domain)
			t.attachSmallPassScore(&pairs[i], small)
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].assessment.Score != pairs[j].assessment.Score {
			return pairs[i].assessment.Score > pairs[j].assessment.Score
		}
		return pairs[i].candidate.ID < pairs[j].candidate.ID
	})
	if len(pairs) > t.opts.LargePassTopK {
		pairs = pairs[:t.opts.LargePassTopK]
	}
	return pairs
}

func (t *tick) attachSmallPassScore(sp *scoredPair, small smallPassResult) {
	if small.scores == nil {
		return
	}
	if s, ok := small.scores[sp.candidate.ID]; ok {
		v := s
		sp.assessment.SmallPassScore = &v
	}
}

// heuristicAssess computes the default per-pair assessment: the general
// component sum plus domain additions, scaled to [-100, 100].
func (t *tick) heuristicAssess(p, c *Persona, domain Domain) scoredPair {
	w := t.weights.LargePass
	a := Assessment{}
	var sum float64

	// Values overlap, falling back to connection goals.
	values := Jaccard(p.General.Values, c.General.Values)
	if len(p.General.Values) == 0 || len(c.General.Values) == 0 {
		values = Jaccard(p.Profile.ConnectionGoals, c.Profile.ConnectionGoals)
	}
	sum += w.ValuesOverlap * values
	if values >= 0.4 {
		a.PositiveReasons = append(a.PositiveReasons, "strong values overlap")
	}

	// Communication-style compatibility.
	comm := communicationCompat(communicationStyle(p), communicationStyle(c))
	sum += w.Communication * comm
	if comm < 0 {
		a.NegativeReasons = append(a.NegativeReasons, "clashing communication styles")
	}

	// Availability overlap.
	avail := Clamp(float64(OverlapMinutes(p, c, t.opts.Now))/480, 0, 1)
	sum += w.AvailabilityOverlap * avail
	if avail >= 0.5 {
		a.PositiveReasons = append(a.PositiveReasons, "ample shared availability")
	}

	// Reliability.
	sum += w.Reliability * t.opts.ReliabilityWeight * c.Reliability.Score

	// Red flags on the candidate side.
	if flags := c.Profile.FeedbackSummary.RedFlagTags; len(flags) > 0 {
		penalty := w.RedFlagPenalty * float64(len(flags))
		if penalty > w.RedFlagPenaltyCap {
			penalty = w.RedFlagPenaltyCap
		}
		sum -= penalty
		for _, f := range flags {
			a.RedFlags = append(a.RedFlags, fmt.Sprintf("reported: %s", f))
		}
	}

	switch domain {
	case DomainDating:
		sum += t.assessDating(p, c, &a)
	case DomainBusiness:
		sum += t.assessBusiness(p, c, &a)
	case DomainFriendship:
		sum += t.assessFriendship(p, c, &a)
	}

	// Reliability boost at the extremes.
	switch {
	case c.Reliability.Score >= 0.8:
		sum += w.HighReliabilityBump
		a.PositiveReasons = append(a.PositiveReasons, "consistently reliable")
	case c.Reliability.Score <= 0.25:
		sum -= w.LowReliabilityDrop
		a.NegativeReasons = append(a.NegativeReasons, "low reliability history")
	}

	a.Score = Clamp(sum, -1, 1) * 100
	v := a.Score
	a.LargePassScore = &v
	return scoredPair{
		candidate:  c,
		assessment: a,
		reasoning:  []string{fmt.Sprintf("heuristic large pass for %s", domain)},
	}
}

func (t *tick) assessDating(p, c *Persona, a *Assessment) float64 {
	dp := p.DomainProfiles.Dating
	dc := c.DomainProfiles.Dating
	if dp == nil || dc == nil {
		return 0
	}
	scale := t.weights.LargePass.Dating
	var sum float64

	// Attractiveness gap, weighted by how much the persona says it matters.
	if dp.Attractiveness > 0 && dc.Attractiveness > 0 {
		gap := dp.Attractiveness - dc.Attractiveness
		if gap < 0 {
			gap = -gap
		}
		if gap >= 3 {
			importance := float64(dp.AttractivenessImportance) / 10
			sum -= scale * (float64(gap) / 10) * importance
			if dp.AttractivenessImportance >= 7 {
				a.NegativeReasons = append(a.NegativeReasons, "attractiveness gap exceeds stated importance")
			}
		}
	}

	// Body-type preference.
	if len(dp.BodyTypePreferences) > 0 && dc.Appearance.Build != "" {
		if containsFold(dp.BodyTypePreferences, dc.Appearance.Build) {
			sum += scale
		} else {
			sum -= scale
			a.NegativeReasons = append(a.NegativeReasons, "body type outside stated preferences")
		}
	}

	// Relationship-goal alignment.
	if dp.RelationshipGoal != "" && dc.RelationshipGoal != "" {
		if strings.EqualFold(dp.RelationshipGoal, dc.RelationshipGoal) {
			sum += scale
			a.PositiveReasons = append(a.PositiveReasons, "aligned relationship goals")
		} else if goalsContradict(dp.RelationshipGoal, dc.RelationshipGoal) {
			sum -= scale
			a.NegativeReasons = append(a.NegativeReasons, "contradictory relationship goals")
		}
	}

	// Dealbreaker proximity in bio.
	if hasDealbreakerHit(dp.Dealbreakers, c) {
		sum -= scale
		a.RedFlags = append(a.RedFlags, "dealbreaker keyword present in profile")
	}

	return sum
}

func (t *tick) assessBusiness(p, c *Persona, a *Assessment) float64 {
	bp := p.DomainProfiles.Business
	bc := c.DomainProfiles.Business
	if bp == nil || bc == nil {
		return 0
	}
	scale := t.weights.LargePass.Business
	var sum float64

	if SharedCount(bp.SeekingRoles, bc.Roles) > 0 || SharedCount(bc.SeekingRoles, bp.Roles) > 0 {
		sum += scale
		a.PositiveReasons = append(a.PositiveReasons, "complementary roles")
	}
	if bp.Commitment != "" && bc.Commitment != "" {
		if strings.EqualFold(bp.Commitment, bc.Commitment) {
			sum += scale / 2
		} else {
			sum -= scale / 2
			a.NegativeReasons = append(a.NegativeReasons, "commitment levels differ")
		}
	}
	if bp.CompanyStage != "" && bc.CompanyStage != "" {
		if strings.EqualFold(bp.CompanyStage, bc.CompanyStage) {
			sum += scale / 2
			a.PositiveReasons = append(a.PositiveReasons, "same company stage")
		}
	}
	return sum
}

func (t *tick) assessFriendship(p, c *Persona, a *Assessment) float64 {
	fp := p.DomainProfiles.Friendship
	fc := c.DomainProfiles.Friendship
	scale := t.weights.LargePass.Friendship
	var sum float64

	if fp != nil && fc != nil {
		vibe := vibeCompat(fp, fc)
		sum += scale * vibe
		if vibe < 0 {
			a.NegativeReasons = append(a.NegativeReasons, "mismatched energy")
		} else if vibe > 0.5 {
			a.PositiveReasons = append(a.PositiveReasons, "compatible vibe")
		}
	}

	overlap := Jaccard(friendshipInterests(p), friendshipInterests(c))
	sum += scale * overlap
	if overlap >= 0.25 {
		a.PositiveReasons = append(a.PositiveReasons, "substantial shared interests")
	}
	return sum
}

// communicationStyle resolves a persona's declared style, preferring the
// profile field over the dating sub-profile.
func communicationStyle(p *Persona) string {
	if p.Profile.CommunicationStyle != "" {
		return p.Profile.CommunicationStyle
	}
	if p.DomainProfiles.Dating != nil {
		return p.DomainProfiles.Dating.CommunicationStyle
	}
	return ""
}

// communicationCompat is the simple compatibility table: identical styles pair
// well, direct/indirect clash, everything else is neutral-positive.
func communicationCompat(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" || b == "":
		return 0
	case a == b:
		return 0.6
	case (a == "direct" && b == "indirect") || (a == "indirect" && b == "direct"):
		return -0.4
	case (a == "frequent" && b == "minimal") || (a == "minimal" && b == "frequent"):
		return -0.4
	default:
		return 0.2
	}
}

// vibeCompat combines vibe and energy into [-1, 1].
func vibeCompat(a, b *FriendshipProfile) float64 {
	var score float64
	if a.Vibe != "" && b.Vibe != "" {
		if strings.EqualFold(a.Vibe, b.Vibe) {
			score += 0.6
		} else {
			score += 0.1
		}
	}
	if a.Energy != "" && b.Energy != "" {
		switch {
		case strings.EqualFold(a.Energy, b.Energy):
			score += 0.4
		case isOppositeEnergy(a.Energy, b.Energy):
			score -= 0.5
		}
	}
	return Clamp(score, -1, 1)
}

func isOppositeEnergy(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return (a == "high" && b == "low") || (a == "low" && b == "high")
}

// goalsContradict flags casual/serious style conflicts.
func goalsContradict(a, b string) bool {
	casual := map[string]bool{"casual": true, "short_term": true, "friends_first": true}
	serious := map[string]bool{"serious": true, "long_term": true, "marriage": true}
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	return (casual[la] && serious[lb]) || (serious[la] && casual[lb])
}
