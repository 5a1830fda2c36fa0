// Package llm provides external providers for the engine's two ranking passes.
// The engine falls back to its built-in heuristic whenever a provider call
// fails, so providers here only need to be best-effort.
package llm

import (
	"context"
	"fmt"
	"strings"

	"matchbook/internal/engine"
)

// Mode selects which provider backs the ranking passes.
type Mode string

const (
	ModeNone      Mode = "none"      // engine heuristic only
	ModeHeuristic Mode = "heuristic" // engine heuristic only, kept for config compatibility
	ModeGemini    Mode = "gemini"    // Gemini via google.golang.org/genai
)

// FromMode builds the provider for a configured mode. Modes that use the
// built-in heuristic return nil, which the engine treats as "no provider".
func FromMode(ctx context.Context, mode string, apiKey, model string) (engine.Provider, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeNone, ModeHeuristic, "":
		return nil, nil
	case ModeGemini:
		return NewGemini(ctx, GeminiConfig{APIKey: apiKey, Model: model})
	default:
		return nil, fmt.Errorf("unknown llm mode %q", mode)
	}
}
