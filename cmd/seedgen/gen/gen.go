package gen

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"matchbook/internal/engine"
	"matchbook/internal/store"
)

type GeneratorConfig struct {
	Scenario string // "baseline", "graph" or "feedback"
	Count    int
	Seed     int64
	Now      time.Time
}

var (
	firstNames = []string{"Ada", "Ben", "Cleo", "Dan", "Elif", "Finn", "Gita", "Hugo", "Iris", "Jonas", "Kira", "Leo", "Mara", "Nils", "Oya", "Pavel"}
	cities     = []string{"Berlin", "Hamburg", "Munich", "Cologne"}
	interests  = []string{"hiking", "chess", "cooking", "startups", "jazz", "bouldering", "photography", "cycling", "board games", "sailing"}
	goals      = []string{"find a cofounder", "meet new people", "practice languages", "build a band"}
)

// Generate produces a deterministic persona fleet plus the matching user
// directory rows. The same seed always yields the same state.
func Generate(cfg GeneratorConfig) (*engine.State, []store.UserRecord) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	state := &engine.State{}
	var users []store.UserRecord

	for i := 0; i < cfg.Count; i++ {
		id := int64(i + 1)
		name := firstNames[i%len(firstNames)]
		city := cities[rng.Intn(len(cities))]

		// 1. Interests: 3 draws from the pool, duplicates allowed but rare
		var picks []string
		for len(picks) < 3 {
			cand := interests[rng.Intn(len(interests))]
			if !contains(picks, cand) {
				picks = append(picks, cand)
			}
		}

		gender := "woman"
		if i%2 == 1 {
			gender = "man"
		}

		domains := []engine.Domain{engine.DomainGeneral}
		switch i % 4 {
		case 0:
			domains = append(domains, engine.DomainFriendship)
		case 1:
			domains = append(domains, engine.DomainBusiness)
		case 2:
			domains = append(domains, engine.DomainDating)
		}

		p := &engine.Persona{
			ID:      id,
			Status:  engine.StatusActive,
			Domains: domains,
			General: engine.GeneralInfo{
				Name:           fmt.Sprintf("%s %c.", name, 'A'+i%26),
				Age:            22 + rng.Intn(30),
				GenderIdentity: gender,
				Bio:            fmt.Sprintf("%s from %s who wants to %s", name, city, goals[rng.Intn(len(goals))]),
				Location: engine.Location{
					City:     city,
					Country:  "Germany",
					TimeZone: "Europe/Berlin",
				},
			},
			Profile: engine.Profile{
				Interests:       picks,
				ConnectionGoals: []string{goals[rng.Intn(len(goals))]},
				Availability:    &engine.Availability{Windows: weeklyWindows(rng)},
			},
			Reliability:     engine.Reliability{Score: 0.3 + rng.Float64()*0.6},
			FeedbackBias:    engine.FeedbackBias{HarshnessScore: 0.5, PositivityBias: 0.5},
			ProfileRevision: 1,
			LastUpdated:     cfg.Now,
		}
		state.Personas = append(state.Personas, p)

		users = append(users, store.UserRecord{
			ID:        id,
			Name:      p.General.Name,
			Age:       p.General.Age,
			Gender:    gender,
			City:      city,
			Country:   "Germany",
			TimeZone:  "Europe/Berlin",
			Bio:       p.General.Bio,
			Interests: picks,
			Domains:   domainNames(domains),
		})
	}

	// 2. Scenario extras
	switch cfg.Scenario {
	case "graph":
		// Met-before chains so graph proximity has something to bite on.
		for i := 0; i+1 < cfg.Count; i += 2 {
			state.MatchGraph.Edges = append(state.MatchGraph.Edges, engine.GraphEdge{
				From: int64(i + 1), To: int64(i + 2),
				Type: engine.EdgeMet, Weight: 0.5,
				CreatedAt: cfg.Now.AddDate(0, 0, -rng.Intn(60)),
			})
		}
	case "feedback":
		// Unprocessed entries covering the rating spectrum plus a ghost report.
		for i := 0; i < cfg.Count/2; i++ {
			from := int64(rng.Intn(cfg.Count) + 1)
			about := int64(rng.Intn(cfg.Count) + 1)
			if from == about {
				continue
			}
			entry := engine.FeedbackEntry{
				ID:            fmt.Sprintf("seed-fb-%d", i),
				FromPersonaID: from,
				ToPersonaID:   about,
				Source:        engine.SourceMeeting,
				Rating:        1 + rng.Intn(5),
				CreatedAt:     cfg.Now.AddDate(0, 0, -rng.Intn(14)),
			}
			if i%5 == 0 {
				entry.Issues = []engine.FeedbackIssue{{Code: "ghosted", Notes: "never replied after confirming"}}
			}
			state.FeedbackQueue = append(state.FeedbackQueue, entry)
		}
	}

	return state, users
}

// weeklyWindows gives each persona two or three evening windows.
func weeklyWindows(rng *rand.Rand) []engine.TimeWindow {
	var out []engine.TimeWindow
	n := 2 + rng.Intn(2)
	for i := 0; i < n; i++ {
		day := time.Weekday(rng.Intn(7))
		start := (17 + rng.Intn(3)) * 60
		out = append(out, engine.TimeWindow{Day: day, StartMinute: start, EndMinute: start + 120 + rng.Intn(3)*30})
	}
	return out
}

// Save writes state.json and users.json into the data directory, matching the
// layout the file store reads.
func Save(outDir string, state *engine.State, users []store.UserRecord) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "state.json"), state); err != nil {
		return err
	}
	return writeJSON(filepath.Join(outDir, "users.json"), users)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func domainNames(ds []engine.Domain) []string {
	var out []string
	for _, d := range ds {
		out = append(out, string(d))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
