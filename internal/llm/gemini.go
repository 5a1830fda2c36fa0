package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"matchbook/internal/engine"
)

// GeminiConfig holds the connection settings for the Gemini provider.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Gemini implements engine.Provider on top of the Gemini API. Both passes ask
// for a strict JSON response and reject anything that does not parse.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// SmallPass asks the model to reorder candidate ids by fit. Returned ids that
// are not in the input are filtered by the engine.
func (g *Gemini) SmallPass(ctx context.Context, in engine.SmallPassInput) (engine.SmallPassOutput, error) {
	var out engine.SmallPassOutput

	payload, err := json.Marshal(smallPassPrompt(in))
	if err != nil {
		return out, fmt.Errorf("failed to encode small pass payload: %w", err)
	}

	prompt := fmt.Sprintf(`You rank candidate matches for a %s connection.
Given the subject persona and candidates below, return JSON only:
{"rankedIds": [<candidate ids, best first>], "notes": "<one short sentence>"}
Return at most %d ids and only ids that appear in the candidate list.

%s`, in.Domain, len(in.Candidates), payload)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("small pass response is not valid JSON: %w", err)
	}
	return out, nil
}

// LargePass asks the model for a full pair assessment. The engine clamps the
// score to [-100, 100].
func (g *Gemini) LargePass(ctx context.Context, in engine.LargePassInput) (engine.LargePassOutput, error) {
	var out engine.LargePassOutput

	payload, err := json.Marshal(largePassPrompt(in))
	if err != nil {
		return out, fmt.Errorf("failed to encode large pass payload: %w", err)
	}

	prompt := fmt.Sprintf(`You assess one potential %s match between two personas.
Given the pair below, return JSON only:
{"score": <-100..100>, "positiveReasons": [], "negativeReasons": [], "redFlags": [], "notes": ""}

%s`, in.Domain, payload)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("large pass response is not valid JSON: %w", err)
	}
	return out, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// smallPassPrompt trims a persona to the fields the model needs for ranking.
func smallPassPrompt(in engine.SmallPassInput) map[string]any {
	cands := make([]map[string]any, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		cands = append(cands, personaSketch(c))
	}
	return map[string]any{
		"persona":    personaSketch(in.Persona),
		"candidates": cands,
		"notes":      in.Notes,
	}
}

func largePassPrompt(in engine.LargePassInput) map[string]any {
	return map[string]any{
		"persona":   personaSketch(in.Persona),
		"candidate": personaSketch(in.Candidate),
		"notes":     in.Notes,
	}
}

func personaSketch(p *engine.Persona) map[string]any {
	sketch := map[string]any{
		"id":        p.ID,
		"age":       p.General.Age,
		"gender":    p.General.GenderIdentity,
		"city":      p.General.Location.City,
		"values":    p.General.Values,
		"bio":       p.General.Bio,
		"interests": p.Profile.Interests,
		"goals":     p.Profile.ConnectionGoals,
	}
	if d := p.DomainProfiles.Dating; d != nil {
		sketch["dating"] = map[string]any{
			"orientation":      d.Orientation,
			"relationshipGoal": d.RelationshipGoal,
		}
	}
	if b := p.DomainProfiles.Business; b != nil {
		sketch["business"] = map[string]any{
			"roles":        b.Roles,
			"seekingRoles": b.SeekingRoles,
			"skills":       b.Skills,
		}
	}
	if f := p.DomainProfiles.Friendship; f != nil {
		sketch["friendship"] = map[string]any{
			"vibe":      f.Vibe,
			"energy":    f.Energy,
			"interests": f.Interests,
		}
	}
	return sketch
}
