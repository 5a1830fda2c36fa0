package engine

import (
	"time"
)

// Domain is a matching context with its own eligibility and scoring rules.
type Domain string

const (
	DomainGeneral    Domain = "general"
	DomainBusiness   Domain = "business"
	DomainDating     Domain = "dating"
	DomainFriendship Domain = "friendship"
)

// AllDomains lists every recognized domain in canonical order.
var AllDomains = []Domain{DomainGeneral, DomainBusiness, DomainDating, DomainFriendship}

// ParseDomain validates a domain tag.
func ParseDomain(s string) (Domain, bool) {
	for _, d := range AllDomains {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// PersonaStatus describes whether a persona participates in matching.
type PersonaStatus string

const (
	StatusActive  PersonaStatus = "active"
	StatusPaused  PersonaStatus = "paused"
	StatusBlocked PersonaStatus = "blocked"
	StatusPending PersonaStatus = "pending"
)

// GeoPoint is an optional coordinate attached to a location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location places a persona in a city and time zone.
type Location struct {
	City     string    `json:"city"`
	Country  string    `json:"country"`
	TimeZone string    `json:"timeZone"`
	Geo      *GeoPoint `json:"geo,omitempty"`
}

// GeneralInfo holds the domain-independent identity of a persona.
type GeneralInfo struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	GenderIdentity string   `json:"genderIdentity"`
	Pronouns       string   `json:"pronouns"`
	Location       Location `json:"location"`
	Values         []string `json:"values,omitempty"`
	Bio            string   `json:"bio,omitempty"`
}

// TimeWindow is a recurring weekly availability slot in the persona's local time.
// Minutes are counted from local midnight.
type TimeWindow struct {
	Day         time.Weekday `json:"day"`
	StartMinute int          `json:"startMinute"`
	EndMinute   int          `json:"endMinute"`
}

// AvailabilityException overrides the recurring windows for a single local date
// (YYYY-MM-DD). An exception with no windows marks the whole day unavailable.
type AvailabilityException struct {
	Date    string       `json:"date"`
	Windows []TimeWindow `json:"windows,omitempty"`
}

// Availability is a weekly schedule plus dated exceptions.
type Availability struct {
	Windows    []TimeWindow            `json:"windows,omitempty"`
	Exceptions []AvailabilityException `json:"exceptions,omitempty"`
}

// FeedbackSummary aggregates feedback received by a persona.
type FeedbackSummary struct {
	SentimentScore float64  `json:"sentimentScore"`
	WeightTotal    float64  `json:"weightTotal"`
	PositiveCount  int      `json:"positiveCount"`
	NeutralCount   int      `json:"neutralCount"`
	NegativeCount  int      `json:"negativeCount"`
	IssueTags      []string `json:"issueTags,omitempty"`
	RedFlagTags    []string `json:"redFlagTags,omitempty"`
}

// Profile holds matching-relevant lifestyle data shared across domains.
type Profile struct {
	Availability       *Availability   `json:"availability,omitempty"`
	Interests          []string        `json:"interests,omitempty"`
	MeetingCadence     string          `json:"meetingCadence,omitempty"`
	CommunicationStyle string          `json:"communicationStyle,omitempty"`
	ConnectionGoals    []string        `json:"connectionGoals,omitempty"`
	FeedbackSummary    FeedbackSummary `json:"feedbackSummary"`
}

// AgeRange bounds an acceptable age interval, inclusive.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether age falls inside the range. A zero Max means open-ended.
func (r AgeRange) Contains(age int) bool {
	if age < r.Min {
		return false
	}
	return r.Max == 0 || age <= r.Max
}

// Appearance is self-reported physical data used only by dating rules.
type Appearance struct {
	Build    string `json:"build,omitempty"`
	HeightCM int    `json:"heightCm,omitempty"`
}

// DatingProfile holds preferences and the attraction profile for the dating domain.
type DatingProfile struct {
	PreferredGenders         []string   `json:"preferredGenders,omitempty"`
	Orientation              string     `json:"orientation,omitempty"`
	PreferredAgeRange        *AgeRange  `json:"preferredAgeRange,omitempty"`
	Dealbreakers             []string   `json:"dealbreakers,omitempty"`
	BodyTypePreferences      []string   `json:"bodyTypePreferences,omitempty"`
	Appearance               Appearance `json:"appearance"`
	Attractiveness           int        `json:"attractiveness,omitempty"`           // self/assessed scale 1-10
	AttractivenessImportance int        `json:"attractivenessImportance,omitempty"` // 0-10
	RelationshipGoal         string     `json:"relationshipGoal,omitempty"`
	CommunicationStyle       string     `json:"communicationStyle,omitempty"`
}

// BusinessProfile holds the roles a persona fills and seeks.
type BusinessProfile struct {
	Roles        []string `json:"roles,omitempty"`
	SeekingRoles []string `json:"seekingRoles,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Commitment   string   `json:"commitment,omitempty"`
	CompanyStage string   `json:"companyStage,omitempty"`
}

// FriendshipProfile holds the social texture used by friendship rules.
type FriendshipProfile struct {
	Vibe      string   `json:"vibe,omitempty"`
	Energy    string   `json:"energy,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// DomainProfiles carries the optional per-domain sub-profiles.
type DomainProfiles struct {
	Dating     *DatingProfile     `json:"dating,omitempty"`
	Business   *BusinessProfile   `json:"business,omitempty"`
	Friendship *FriendshipProfile `json:"friendship,omitempty"`
}

// MatchPreferences holds hard constraints a persona places on candidates.
type MatchPreferences struct {
	BlockedPersonaIDs   []int64   `json:"blockedPersonaIds,omitempty"`
	ExcludedPersonaIDs  []int64   `json:"excludedPersonaIds,omitempty"`
	AgeRange            *AgeRange `json:"ageRange,omitempty"`
	GenderPreferences   []string  `json:"genderPreferences,omitempty"`
	BodyTypePreferences []string  `json:"bodyTypePreferences,omitempty"`
	ReliabilityMinScore *float64  `json:"reliabilityMinScore,omitempty"`
}

// ReliabilityEventType classifies a reliability-affecting observation.
type ReliabilityEventType string

const (
	ReliabilityGhost      ReliabilityEventType = "ghost"
	ReliabilityNoShow     ReliabilityEventType = "no_show"
	ReliabilityLateCancel ReliabilityEventType = "late_cancel"
	ReliabilityAttended   ReliabilityEventType = "attended"
	ReliabilityOnTime     ReliabilityEventType = "on_time"
)

// ReliabilityEvent records one signed adjustment to a reliability score.
type ReliabilityEvent struct {
	Type   ReliabilityEventType `json:"type"`
	Impact float64              `json:"impact"`
	At     time.Time            `json:"at"`
	Source string               `json:"source,omitempty"`
}

// Reliability tracks how consistently a persona shows up.
type Reliability struct {
	Score                float64            `json:"score"`
	AttendedCount        int                `json:"attendedCount"`
	LateCancelCount      int                `json:"lateCancelCount"`
	NoShowCount          int                `json:"noShowCount"`
	GhostCount           int                `json:"ghostCount"`
	GhostedByOthersCount int                `json:"ghostedByOthersCount"`
	History              []ReliabilityEvent `json:"history,omitempty"`
}

// FeedbackBias characterizes how a rater's ratings skew against the population.
type FeedbackBias struct {
	HarshnessScore   float64 `json:"harshnessScore"`
	PositivityBias   float64 `json:"positivityBias"`
	RedFlagFrequency float64 `json:"redFlagFrequency"`
	RatingCount      int     `json:"ratingCount"`
	RatingSum        float64 `json:"ratingSum"`
	NegativeGiven    int     `json:"negativeGiven"`
	RedFlagsGiven    int     `json:"redFlagsGiven"`
}

// AverageRating returns the running mean of ratings given, or 0 with no data.
func (b FeedbackBias) AverageRating() float64 {
	if b.RatingCount == 0 {
		return 0
	}
	return b.RatingSum / float64(b.RatingCount)
}

// FactStatus is the lifecycle state of a stored fact.
type FactStatus string

const (
	FactActive     FactStatus = "active"
	FactSuperseded FactStatus = "superseded"
	FactRetracted  FactStatus = "retracted"
)

// Fact is one typed key/value observation about a persona.
type Fact struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Status     FactStatus `json:"status"`
	At         time.Time  `json:"at"`
}

// Persona is the subject and object of matching.
type Persona struct {
	ID               int64            `json:"id"`
	Status           PersonaStatus    `json:"status"`
	Domains          []Domain         `json:"domains,omitempty"`
	General          GeneralInfo      `json:"general"`
	Profile          Profile          `json:"profile"`
	DomainProfiles   DomainProfiles   `json:"domainProfiles"`
	MatchPreferences MatchPreferences `json:"matchPreferences"`
	Reliability      Reliability      `json:"reliability"`
	FeedbackBias     FeedbackBias     `json:"feedbackBias"`
	Facts            []Fact           `json:"facts,omitempty"`
	ProfileRevision  int64            `json:"profileRevision"`
	LastUpdated      time.Time        `json:"lastUpdated"`
	PriorityBoost    *int             `json:"priorityBoost,omitempty"` // 0-100
	CreditPaidAt     *time.Time       `json:"creditPaidAt,omitempty"`
}

// ParticipatesIn reports whether a persona takes part in a domain.
// General includes every persona; other domains require either the domain tag
// or the corresponding sub-profile.
func (p *Persona) ParticipatesIn(d Domain) bool {
	if d == DomainGeneral {
		return true
	}
	for _, tag := range p.Domains {
		if tag == d {
			return true
		}
	}
	switch d {
	case DomainDating:
		return p.DomainProfiles.Dating != nil
	case DomainBusiness:
		return p.DomainProfiles.Business != nil
	case DomainFriendship:
		return p.DomainProfiles.Friendship != nil
	}
	return false
}

// MatchStatus is the lifecycle state of a match record.
type MatchStatus string

const (
	MatchProposed  MatchStatus = "proposed"
	MatchAccepted  MatchStatus = "accepted"
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
	MatchCanceled  MatchStatus = "canceled"
	MatchExpired   MatchStatus = "expired"
)

// Assessment is the scored outcome of the two ranking passes for one pair.
type Assessment struct {
	Score           float64  `json:"score"` // [-100, 100]
	SmallPassScore  *float64 `json:"smallPassScore,omitempty"`
	LargePassScore  *float64 `json:"largePassScore,omitempty"`
	PositiveReasons []string `json:"positiveReasons,omitempty"`
	NegativeReasons []string `json:"negativeReasons,omitempty"`
	RedFlags        []string `json:"redFlags,omitempty"`
}

// MatchRecord is one created match between two personas.
type MatchRecord struct {
	MatchID            string      `json:"matchId"`
	Domain             Domain      `json:"domain"`
	PersonaA           int64       `json:"personaA"`
	PersonaB           int64       `json:"personaB"`
	CreatedAt          time.Time   `json:"createdAt"`
	Status             MatchStatus `json:"status"`
	Assessment         Assessment  `json:"assessment"`
	Reasoning          []string    `json:"reasoning,omitempty"`
	ScheduledMeetingID string      `json:"scheduledMeetingId,omitempty"`
}

// Involves reports whether the record connects the given pair, in either order.
func (m *MatchRecord) Involves(a, b int64) bool {
	return (m.PersonaA == a && m.PersonaB == b) || (m.PersonaA == b && m.PersonaB == a)
}

// EdgeType classifies a match-graph edge.
type EdgeType string

const (
	EdgeMatch            EdgeType = "match"
	EdgeFeedbackPositive EdgeType = "feedback_positive"
	EdgeFeedbackNegative EdgeType = "feedback_negative"
	EdgeMet              EdgeType = "met"
)

// GraphEdge is one weighted edge in the undirected match graph.
type GraphEdge struct {
	From      int64     `json:"from"`
	To        int64     `json:"to"`
	Weight    float64   `json:"weight"`
	Type      EdgeType  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// MatchGraph is an undirected weighted multigraph over personas.
type MatchGraph struct {
	Edges []GraphEdge `json:"edges,omitempty"`
}

// Sentiment is the coarse polarity of a feedback entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// FeedbackSource identifies where a feedback entry originated.
type FeedbackSource string

const (
	SourceMeeting      FeedbackSource = "meeting"
	SourceGroupEvent   FeedbackSource = "group_event"
	SourceConversation FeedbackSource = "conversation"
	SourceAdmin        FeedbackSource = "admin"
)

// FeedbackIssue is one coded problem reported in a feedback entry.
type FeedbackIssue struct {
	Code     string `json:"code"`
	Severity string `json:"severity,omitempty"`
	Notes    string `json:"notes,omitempty"`
	RedFlag  bool   `json:"redFlag,omitempty"`
}

// FeedbackEntry is one rater-to-ratee observation waiting in the queue.
type FeedbackEntry struct {
	ID            string          `json:"id"`
	FromPersonaID int64           `json:"fromPersonaId"`
	ToPersonaID   int64           `json:"toPersonaId"`
	MeetingID     string          `json:"meetingId,omitempty"`
	Rating        int             `json:"rating"` // 1-5
	Sentiment     Sentiment       `json:"sentiment"`
	Issues        []FeedbackIssue `json:"issues,omitempty"`
	RedFlags      []string        `json:"redFlags,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Processed     bool            `json:"processed"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty"`
	Source        FeedbackSource  `json:"source,omitempty"`
}

// MeetingStatus is the lifecycle state of a scheduled meeting.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCanceled  MeetingStatus = "canceled"
)

// Meeting is a placeholder created when a match is auto-scheduled.
type Meeting struct {
	ID        string        `json:"id"`
	MatchID   string        `json:"matchId"`
	Status    MeetingStatus `json:"status"`
	StartsAt  *time.Time    `json:"startsAt,omitempty"`
	Location  string        `json:"location,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SafetyReport is carried in state for the host; the engine never consumes it.
type SafetyReport struct {
	ID            string    `json:"id"`
	FromPersonaID int64     `json:"fromPersonaId"`
	ToPersonaID   int64     `json:"toPersonaId"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Community is an opaque grouping carried in state for the host.
type Community struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	PersonaIDs []int64 `json:"personaIds,omitempty"`
}

// CreditEntry records a paid priority credit.
type CreditEntry struct {
	ID        string    `json:"id"`
	PersonaID int64     `json:"personaId"`
	Amount    int       `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

// Message is an opaque conversation record carried in state for the host.
type Message struct {
	ID            string    `json:"id"`
	FromPersonaID int64     `json:"fromPersonaId"`
	ToPersonaID   int64     `json:"toPersonaId"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"createdAt"`
}

// State is the aggregate the tick consumes and produces.
type State struct {
	Personas      []*Persona      `json:"personas"`
	Matches       []MatchRecord   `json:"matches,omitempty"`
	Meetings      []Meeting       `json:"meetings,omitempty"`
	FeedbackQueue []FeedbackEntry `json:"feedbackQueue,omitempty"`
	SafetyReports []SafetyReport  `json:"safetyReports,omitempty"`
	Communities   []Community     `json:"communities,omitempty"`
	Credits       []CreditEntry   `json:"credits,omitempty"`
	Messages      []Message       `json:"messages,omitempty"`
	MatchGraph    MatchGraph      `json:"matchGraph"`
}

// PersonaByID returns the persona with the given id, or nil.
func (s *State) PersonaByID(id int64) *Persona {
	for _, p := range s.Personas {
		if p.ID == id {
			return p
		}
	}
	return nil
}
