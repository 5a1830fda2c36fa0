package runner

import (
	"context"
	"testing"
	"time"

	"matchbook/internal/config"
	"matchbook/internal/engine"
	"matchbook/internal/store"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		BatchSize:              2,
		MaxCandidates:          60,
		SmallPassTopK:          12,
		LargePassTopK:          6,
		GraphHops:              2,
		MatchCooldownDays:      30,
		ReliabilityWeight:      1.0,
		MinAvailabilityMinutes: 120,
		MatchDomains:           []engine.Domain{engine.DomainGeneral},
		RequireSameCity:        true,
		RequireSharedInterests: true,
		ProcessFeedbackLimit:   50,
		MaxTicks:               3,
		MaxRunMS:               60_000,
		LockMS:                 120_000,
		PriorityWindowHours:    24,
	}
}

func matchablePersona(id int64) *engine.Persona {
	return &engine.Persona{
		ID:     id,
		Status: engine.StatusActive,
		General: engine.GeneralInfo{
			Name:           "Test",
			Age:            30,
			GenderIdentity: "woman",
			Location:       engine.Location{City: "Berlin", TimeZone: "UTC"},
		},
		Profile: engine.Profile{
			Interests: []string{"hiking", "chess"},
			Availability: &engine.Availability{Windows: []engine.TimeWindow{
				{Day: time.Monday, StartMinute: 18 * 60, EndMinute: 22 * 60},
			}},
		},
		Reliability:     engine.Reliability{Score: 0.5},
		FeedbackBias:    engine.FeedbackBias{HarshnessScore: 0.5, PositivityBias: 0.5},
		ProfileRevision: 1,
	}
}

func TestRunCron_Envelope(t *testing.T) {
	st := store.NewMemStore(
		&engine.State{Personas: []*engine.Persona{matchablePersona(1), matchablePersona(2)}},
		[]store.UserRecord{{ID: 3, Name: "New", City: "Hamburg"}},
	)
	r := New(st, testConfig(), engine.Deps{IDFactory: engine.SequentialIDFactory("run")})

	env := r.RunCron(context.Background())

	if env.Status != "ok" {
		t.Fatalf("Expected ok envelope, got %+v", env)
	}
	if env.MatchesCreated != 1 {
		t.Errorf("Expected one match, got %d", env.MatchesCreated)
	}
	if env.PersonaCount != 3 {
		t.Errorf("Expected 3 personas after sync, got %d", env.PersonaCount)
	}
	if len(env.CreatedPersonaIDs) != 1 || env.CreatedPersonaIDs[0] != 3 {
		t.Errorf("Expected synced persona id 3, got %v", env.CreatedPersonaIDs)
	}
	if env.Ticks == 0 {
		t.Error("Expected at least one tick")
	}

	// The saved state carries the match and the lock is released.
	state, _, err := st.LoadEngineState()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Matches) != 1 {
		t.Errorf("Expected one persisted match, got %d", len(state.Matches))
	}
	if !st.AcquireEngineLock(time.Minute) {
		t.Error("Lock must be released after the run")
	}
}

func TestRunCron_SkippedWhenLocked(t *testing.T) {
	st := store.NewMemStore(&engine.State{}, nil)
	if !st.AcquireEngineLock(time.Hour) {
		t.Fatal("Failed to pre-acquire lock")
	}

	r := New(st, testConfig(), engine.Deps{})
	env := r.RunCron(context.Background())

	if env.Status != "skipped" || env.Reason != "locked" {
		t.Errorf("Expected skipped:locked envelope, got %+v", env)
	}
}

func TestRunCron_FilterSweepRelaxesConstraints(t *testing.T) {
	// Different cities and disjoint interests: the regular ticks produce
	// nothing, the relaxed-filter sweep pairs them anyway.
	a := matchablePersona(1)
	b := matchablePersona(2)
	b.General.Location.City = "Hamburg"
	b.Profile.Interests = []string{"sailing"}

	st := store.NewMemStore(&engine.State{Personas: []*engine.Persona{a, b}}, nil)
	r := New(st, testConfig(), engine.Deps{IDFactory: engine.SequentialIDFactory("run")})

	env := r.RunCron(context.Background())

	if env.Status != "ok" {
		t.Fatalf("Expected ok envelope, got %+v", env)
	}
	if env.MatchesCreated != 1 {
		t.Errorf("Expected the filter sweep to create one match, got %d", env.MatchesCreated)
	}
}

func TestRunCron_FeedbackProcessed(t *testing.T) {
	a := matchablePersona(1)
	b := matchablePersona(2)
	b.General.Location.City = "Hamburg" // no matches, just feedback
	state := &engine.State{
		Personas: []*engine.Persona{a, b},
		FeedbackQueue: []engine.FeedbackEntry{{
			ID: "fb1", FromPersonaID: 1, ToPersonaID: 2,
			Rating: 5, CreatedAt: time.Now().Add(-time.Hour),
		}},
	}
	st := store.NewMemStore(state, nil)
	r := New(st, testConfig(), engine.Deps{IDFactory: engine.SequentialIDFactory("run")})

	env := r.RunCron(context.Background())

	if env.FeedbackProcessed != 1 {
		t.Errorf("Expected one processed entry, got %d", env.FeedbackProcessed)
	}
	if env.PersonasUpdated != 2 {
		t.Errorf("Expected both participants updated, got %d", env.PersonasUpdated)
	}
}

func TestSelectBatch(t *testing.T) {
	ids := []int64{10, 20, 30, 40, 50}

	batch, cursor := selectBatch(ids, 0, 2)
	if len(batch) != 2 || batch[0] != 10 || batch[1] != 20 || cursor != 2 {
		t.Errorf("Unexpected first batch %v cursor %d", batch, cursor)
	}

	batch, cursor = selectBatch(ids, 4, 2)
	if len(batch) != 2 || batch[0] != 50 || batch[1] != 10 || cursor != 1 {
		t.Errorf("Expected wrap-around batch, got %v cursor %d", batch, cursor)
	}

	batch, cursor = selectBatch(ids, 99, 3)
	if len(batch) != 3 || batch[0] != 10 || cursor != 3 {
		t.Errorf("Out-of-range cursor must reset, got %v cursor %d", batch, cursor)
	}

	batch, cursor = selectBatch(ids, 1, 10)
	if len(batch) != 5 || cursor != 1 {
		t.Errorf("Oversized batch must clamp to the list, got %v cursor %d", batch, cursor)
	}

	if batch, _ := selectBatch(nil, 0, 3); batch != nil {
		t.Errorf("Expected nil batch for empty list, got %v", batch)
	}
}
