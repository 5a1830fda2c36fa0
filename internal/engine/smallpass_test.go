package engine

import (
	"testing"
)

func TestHeuristicSmallPass_InterestOverlapRanksFirst(t *testing.T) {
	p := basePersona(1)
	p.Profile.Interests = []string{"hiking", "chess", "jazz"}
	twin := basePersona(2)
	twin.Profile.Interests = []string{"hiking", "chess", "jazz"}
	partial := basePersona(3)
	partial.Profile.Interests = []string{"hiking", "cooking"}

	tk := newTestTick(&State{Personas: []*Persona{p, twin, partial}}, baseOptions())
	res, _ := tk.heuristicSmallPass(p, []*Persona{partial, twin}, DomainGeneral)

	if len(res.ranked) != 2 || res.ranked[0].ID != 2 {
		t.Fatalf("Expected full-overlap candidate first, got %v", poolIDs(res.ranked))
	}
	if res.scores[2] <= res.scores[3] {
		t.Errorf("Expected twin to outscore partial: %v vs %v", res.scores[2], res.scores[3])
	}
}

func TestHeuristicSmallPass_RedFlagPenalty(t *testing.T) {
	p := basePersona(1)
	clean := basePersona(2)
	flagged := basePersona(3)
	flagged.Profile.FeedbackSummary.RedFlagTags = []string{"aggressive"}

	tk := newTestTick(&State{Personas: []*Persona{p, clean, flagged}}, baseOptions())
	res, _ := tk.heuristicSmallPass(p, []*Persona{flagged, clean}, DomainGeneral)

	if res.ranked[0].ID != 2 {
		t.Errorf("Expected clean candidate first, got %v", poolIDs(res.ranked))
	}
}

func TestHeuristicSmallPass_TopKTruncation(t *testing.T) {
	p := basePersona(1)
	var pool []*Persona
	for id := int64(2); id <= 20; id++ {
		pool = append(pool, basePersona(id))
	}

	opts := baseOptions()
	opts.SmallPassTopK = 5
	tk := newTestTick(&State{Personas: append([]*Persona{p}, pool...)}, opts)
	res, notes := tk.heuristicSmallPass(p, pool, DomainGeneral)

	if len(res.ranked) != 5 {
		t.Fatalf("Expected top 5, got %d", len(res.ranked))
	}
	if notes == "" {
		t.Error("Expected explanatory notes")
	}

	// Identical scores break ties on ascending id.
	for i, c := range res.ranked {
		if c.ID != int64(i+2) {
			t.Errorf("Expected id tie-break ordering, got %v", poolIDs(res.ranked))
			break
		}
	}
}

func TestResolveRankedIDs(t *testing.T) {
	pool := []*Persona{basePersona(2), basePersona(3), basePersona(4)}

	ranked := resolveRankedIDs(pool, []int64{4, 4, 99, 2}, 10)
	if len(ranked) != 2 || ranked[0].ID != 4 || ranked[1].ID != 2 {
		t.Errorf("Expected [4 2] after dedup and unknown-drop, got %v", poolIDs(ranked))
	}

	ranked = resolveRankedIDs(pool, []int64{2, 3, 4}, 2)
	if len(ranked) != 2 {
		t.Errorf("Expected cap at 2, got %d", len(ranked))
	}

	if ranked = resolveRankedIDs(pool, nil, 5); len(ranked) != 0 {
		t.Errorf("Expected empty result for empty ids, got %v", poolIDs(ranked))
	}
}
