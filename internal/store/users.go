package store

import (
	"time"

	"matchbook/internal/engine"
)

// UserRecord is one row of the external user directory the host syncs from.
type UserRecord struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	TimeZone  string   `json:"timeZone,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Domains   []string `json:"domains,omitempty"`
}

// syncPersonas creates a persona for every user record without one. Existing
// personas are never touched, so repeated syncs are idempotent.
func syncPersonas(state *engine.State, users []UserRecord, now time.Time) (*engine.State, []int64) {
	existing := make(map[int64]bool, len(state.Personas))
	for _, p := range state.Personas {
		existing[p.ID] = true
	}

	var created []int64
	for _, u := range users {
		if existing[u.ID] {
			continue
		}
		existing[u.ID] = true

		var domains []engine.Domain
		for _, d := range u.Domains {
			if dom, ok := engine.ParseDomain(d); ok {
				domains = append(domains, dom)
			}
		}

		state.Personas = append(state.Personas, &engine.Persona{
			ID:      u.ID,
			Status:  engine.StatusActive,
			Domains: domains,
			General: engine.GeneralInfo{
				Name:           u.Name,
				Age:            u.Age,
				Bio:            u.Bio,
				GenderIdentity: u.Gender,
				Location: engine.Location{
					City:     u.City,
					Country:  u.Country,
					TimeZone: u.TimeZone,
				},
			},
			Profile: engine.Profile{
				Interests: append([]string(nil), u.Interests...),
			},
			Reliability:     engine.Reliability{Score: 0.5},
			FeedbackBias:    engine.FeedbackBias{HarshnessScore: 0.5, PositivityBias: 0.5},
			ProfileRevision: 1,
			LastUpdated:     now,
		})
		created = append(created, u.ID)
	}
	return state, created
}
