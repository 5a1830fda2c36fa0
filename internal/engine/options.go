package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions indicates malformed options or state; the tick does not run.
var ErrInvalidOptions = errors.New("invalid engine options")

// Options controls a single engine tick. A non-empty TargetPersonaIDs
// confines the whole tick to that set: only members initiate and only members
// appear in candidate pools.
type Options struct {
	Now                          time.Time `json:"now"`
	BatchSize                    int       `json:"batchSize"`
	MaxCandidates                int       `json:"maxCandidates"`
	SmallPassTopK                int       `json:"smallPassTopK"`
	LargePassTopK                int       `json:"largePassTopK"`
	GraphHops                    int       `json:"graphHops"`
	MatchCooldownDays            int       `json:"matchCooldownDays"`
	NegativeFeedbackCooldownDays int       `json:"negativeFeedbackCooldownDays,omitempty"`
	RecentMatchWindow            int       `json:"recentMatchWindow,omitempty"`
	ReliabilityWeight            float64   `json:"reliabilityWeight"`
	MinAvailabilityMinutes       int       `json:"minAvailabilityMinutes"`
	MatchDomains                 []Domain  `json:"matchDomains"`
	TargetPersonaIDs             []int64   `json:"targetPersonaIds,omitempty"`
	AutoScheduleMatches          bool      `json:"autoScheduleMatches,omitempty"`
	RequireSameCity              bool      `json:"requireSameCity"`
	RequireSharedInterests       bool      `json:"requireSharedInterests"`
	ProcessFeedbackLimit         int       `json:"processFeedbackLimit"`
	ProcessConversationLimit     int       `json:"processConversationLimit,omitempty"`
}

// DefaultOptions returns the documented defaults for a tick at the given time.
func DefaultOptions(now time.Time) Options {
	return Options{
		Now:                    now,
		BatchSize:              25,
		MaxCandidates:          60,
		SmallPassTopK:          12,
		LargePassTopK:          6,
		GraphHops:              2,
		MatchCooldownDays:      30,
		ReliabilityWeight:      1.0,
		MinAvailabilityMinutes: 120,
		MatchDomains:           []Domain{DomainGeneral},
		RequireSameCity:        true,
		RequireSharedInterests: true,
		ProcessFeedbackLimit:   50,
	}
}

// Validate rejects malformed options before any work starts.
func (o *Options) Validate() error {
	if o.Now.IsZero() {
		return fmt.Errorf("%w: now is required", ErrInvalidOptions)
	}
	if len(o.MatchDomains) == 0 {
		return fmt.Errorf("%w: matchDomains must be non-empty", ErrInvalidOptions)
	}
	for _, d := range o.MatchDomains {
		if _, ok := ParseDomain(string(d)); !ok {
			return fmt.Errorf("%w: unknown domain %q", ErrInvalidOptions, d)
		}
	}
	if o.BatchSize < 0 || o.MaxCandidates < 0 || o.SmallPassTopK < 0 || o.LargePassTopK < 0 {
		return fmt.Errorf("%w: negative caps", ErrInvalidOptions)
	}
	if o.GraphHops < 0 || o.MatchCooldownDays < 0 || o.ProcessFeedbackLimit < 0 {
		return fmt.Errorf("%w: negative limits", ErrInvalidOptions)
	}
	return nil
}

// withDefaults fills zero-valued caps so a partially filled Options behaves sanely.
func (o Options) withDefaults() Options {
	def := DefaultOptions(o.Now)
	if o.MaxCandidates == 0 {
		o.MaxCandidates = def.MaxCandidates
	}
	if o.SmallPassTopK == 0 {
		o.SmallPassTopK = def.SmallPassTopK
	}
	if o.LargePassTopK == 0 {
		o.LargePassTopK = def.LargePassTopK
	}
	if o.MinAvailabilityMinutes == 0 {
		o.MinAvailabilityMinutes = def.MinAvailabilityMinutes
	}
	if o.ProcessFeedbackLimit == 0 {
		o.ProcessFeedbackLimit = def.ProcessFeedbackLimit
	}
	if o.ReliabilityWeight == 0 {
		o.ReliabilityWeight = def.ReliabilityWeight
	}
	return o
}

// IDFactory mints fresh identifiers for matches, meetings, and facts.
type IDFactory func() string

// SmallPassInput is the payload handed to an external small-pass provider.
type SmallPassInput struct {
	Persona    *Persona   `json:"persona"`
	Candidates []*Persona `json:"candidates"`
	Domain     Domain     `json:"domain"`
	Notes      string     `json:"notes,omitempty"`
}

// SmallPassOutput must be a prefix-style reordering of the input candidate ids.
type SmallPassOutput struct {
	RankedIDs []int64 `json:"rankedIds"`
	Notes     string  `json:"notes,omitempty"`
}

// LargePassInput is the payload handed to an external large-pass provider.
type LargePassInput struct {
	Persona   *Persona `json:"persona"`
	Candidate *Persona `json:"candidate"`
	Domain    Domain   `json:"domain"`
	Notes     string   `json:"notes,omitempty"`
}

// LargePassOutput is an externally produced pair assessment.
type LargePassOutput struct {
	Score           float64  `json:"score"`
	PositiveReasons []string `json:"positiveReasons,omitempty"`
	NegativeReasons []string `json:"negativeReasons,omitempty"`
	RedFlags        []string `json:"redFlags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Provider replaces the heuristic passes with an external LLM.
// Both methods must be free of observable side effects on engine state; a
// failed call falls back to the heuristic for that call only.
type Provider interface {
	SmallPass(ctx context.Context, in SmallPassInput) (SmallPassOutput, error)
	LargePass(ctx context.Context, in LargePassInput) (LargePassOutput, error)
}

// LocationProvider resolves a meeting time and place for an auto-scheduled match.
// It is called at most once per created match; a failure leaves the match
// without a scheduled meeting.
type LocationProvider interface {
	ResolveMeeting(ctx context.Context, a, b *Persona, match *MatchRecord) (Meeting, error)
}

// Deps are the injectable collaborators of a tick. All fields are optional.
type Deps struct {
	LLM       Provider
	Location  LocationProvider
	IDFactory IDFactory
	Weights   *Weights
}

// RunResult is everything a tick returns to its caller. Only this value is
// visible; intermediate state is never observable.
type RunResult struct {
	State             *State          `json:"state"`
	MatchesCreated    []MatchRecord   `json:"matchesCreated"`
	FeedbackProcessed []FeedbackEntry `json:"feedbackProcessed"`
	PersonasUpdated   []*Persona      `json:"personasUpdated"`
}
