package engine

import (
	"context"
	"math"
	"testing"
)

// feedbackState builds two personas in different cities so the tick processes
// feedback without also creating matches.
func feedbackState(entries ...FeedbackEntry) *State {
	rater := basePersona(1)
	ratee := basePersona(2)
	ratee.General.Location.City = "Hamburg"
	return &State{
		Personas:      []*Persona{rater, ratee},
		FeedbackQueue: entries,
	}
}

func runTick(t *testing.T, state *State, opts Options) *RunResult {
	t.Helper()
	res, err := Run(context.Background(), state, opts, Deps{IDFactory: SequentialIDFactory("test")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return res
}

func TestFeedback_PositiveRatingRaisesReliability(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	res := runTick(t, state, baseOptions())

	ratee := res.State.PersonaByID(2)
	if math.Abs(ratee.Reliability.Score-0.58) > 1e-9 {
		t.Errorf("Expected reliability 0.58, got %v", ratee.Reliability.Score)
	}
	if ratee.Reliability.AttendedCount != 1 {
		t.Errorf("Expected attended count 1, got %d", ratee.Reliability.AttendedCount)
	}

	fs := ratee.Profile.FeedbackSummary
	if fs.PositiveCount != 1 || fs.SentimentScore != 1 {
		t.Errorf("Expected positive summary, got %+v", fs)
	}

	if len(res.FeedbackProcessed) != 1 || !res.FeedbackProcessed[0].Processed {
		t.Fatalf("Expected one processed entry, got %+v", res.FeedbackProcessed)
	}
	if res.FeedbackProcessed[0].ProcessedAt == nil {
		t.Error("ProcessedAt must be set")
	}
}

func TestFeedback_GhostReportPenalizesRateeAndBoostsRater(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating:    1,
		Issues:    []FeedbackIssue{{Code: "ghosted", Severity: "high"}},
		CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	res := runTick(t, state, baseOptions())

	ratee := res.State.PersonaByID(2)
	// rating<=2 gives -0.06, ghost issue -0.25, bias weight 1.0
	if math.Abs(ratee.Reliability.Score-0.19) > 1e-9 {
		t.Errorf("Expected ratee reliability 0.19, got %v", ratee.Reliability.Score)
	}
	if ratee.Reliability.GhostCount != 1 {
		t.Errorf("Expected ghost count 1, got %d", ratee.Reliability.GhostCount)
	}
	if len(ratee.Facts) == 0 || ratee.Facts[0].Key != "feedback_issue:ghosted" {
		t.Errorf("Expected issue fact on ratee, got %+v", ratee.Facts)
	}

	rater := res.State.PersonaByID(1)
	if math.Abs(rater.Reliability.Score-0.55) > 1e-9 {
		t.Errorf("Expected rater reverse boost to 0.55, got %v", rater.Reliability.Score)
	}
	if rater.Reliability.GhostedByOthersCount != 1 {
		t.Errorf("Expected ghosted-by-others count 1, got %d", rater.Reliability.GhostedByOthersCount)
	}
	if rater.MatchPreferences.ReliabilityMinScore == nil ||
		math.Abs(*rater.MatchPreferences.ReliabilityMinScore-0.70) > 1e-9 {
		t.Errorf("Expected reliability floor 0.70, got %v", rater.MatchPreferences.ReliabilityMinScore)
	}
	foundFact := false
	for _, f := range rater.Facts {
		if f.Key == "feedback_experience:ghosted" {
			foundFact = true
		}
	}
	if !foundFact {
		t.Error("Expected ghosted experience fact on rater")
	}
}

func TestFeedback_RedFlagsRecorded(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating:    2,
		RedFlags:  []string{"aggressive"},
		CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	res := runTick(t, state, baseOptions())

	ratee := res.State.PersonaByID(2)
	if len(ratee.Profile.FeedbackSummary.RedFlagTags) != 1 {
		t.Errorf("Expected red flag tag, got %+v", ratee.Profile.FeedbackSummary.RedFlagTags)
	}
	found := false
	for _, f := range ratee.Facts {
		if f.Key == "feedback_red_flag:aggressive" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected red flag fact, got %+v", ratee.Facts)
	}

	rater := res.State.PersonaByID(1)
	if rater.FeedbackBias.RedFlagsGiven != 1 {
		t.Errorf("Expected rater red flag stat, got %+v", rater.FeedbackBias)
	}
}

func TestFeedback_HarshRaterDiscounted(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating: 1, CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	// Maximally skewed rater: bias weight clamps to 0.6.
	state.PersonaByID(1).FeedbackBias = FeedbackBias{HarshnessScore: 1.0, PositivityBias: 0.0}
	res := runTick(t, state, baseOptions())

	ratee := res.State.PersonaByID(2)
	// delta -0.06 scaled by 0.6
	if math.Abs(ratee.Reliability.Score-(0.5-0.036)) > 1e-9 {
		t.Errorf("Expected discounted penalty, got %v", ratee.Reliability.Score)
	}
}

func TestFeedback_LimitAndFIFO(t *testing.T) {
	state := feedbackState(
		FeedbackEntry{ID: "fb1", FromPersonaID: 1, ToPersonaID: 2, Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -2)},
		FeedbackEntry{ID: "fb2", FromPersonaID: 1, ToPersonaID: 2, Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -1)},
	)
	opts := baseOptions()
	opts.ProcessFeedbackLimit = 1
	res := runTick(t, state, opts)

	if len(res.FeedbackProcessed) != 1 || res.FeedbackProcessed[0].ID != "fb1" {
		t.Fatalf("Expected only fb1 processed, got %+v", res.FeedbackProcessed)
	}
	for i := range res.State.FeedbackQueue {
		e := &res.State.FeedbackQueue[i]
		if e.ID == "fb2" && e.Processed {
			t.Error("fb2 must remain unprocessed")
		}
	}
}

func TestFeedback_UnknownPersonaConsumed(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 99, ToPersonaID: 2,
		Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	res := runTick(t, state, baseOptions())

	if len(res.FeedbackProcessed) != 1 || !res.FeedbackProcessed[0].Processed {
		t.Fatalf("Expected orphaned entry consumed, got %+v", res.FeedbackProcessed)
	}
	if res.State.PersonaByID(2).ProfileRevision != 1 {
		t.Error("No persona should have been touched by an orphaned entry")
	}
}

func TestFeedback_RevisionBumpedOncePerParticipant(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	res := runTick(t, state, baseOptions())

	if rev := res.State.PersonaByID(1).ProfileRevision; rev != 2 {
		t.Errorf("Expected rater revision 2, got %d", rev)
	}
	if rev := res.State.PersonaByID(2).ProfileRevision; rev != 2 {
		t.Errorf("Expected ratee revision 2, got %d", rev)
	}
	if len(res.PersonasUpdated) != 2 {
		t.Errorf("Expected both participants in PersonasUpdated, got %d", len(res.PersonasUpdated))
	}
}

func TestFeedback_CallerStateUntouched(t *testing.T) {
	state := feedbackState(FeedbackEntry{
		ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
		Rating: 5, CreatedAt: tuesdayNoon.AddDate(0, 0, -1),
	})
	original := state.PersonaByID(2)
	res := runTick(t, state, baseOptions())

	if original.Reliability.Score != 0.5 || original.ProfileRevision != 1 {
		t.Error("Caller's persona must not be mutated in place")
	}
	if res.State.PersonaByID(2) == original {
		t.Error("Mutated persona must be a fresh copy")
	}
	if state.FeedbackQueue[0].Processed {
		t.Error("Caller's feedback queue must not be mutated in place")
	}
}
