package domain

// UrgencyLevel grades inferred ticket urgency.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// RoutingContext is the ephemeral input bundle describing a ticket's
// assignment requirements. Not persisted.
type RoutingContext struct {
	TenantID       string
	CustomerID     *string
	TeamID         *string
	Priority       TicketPriority
	RequiredSkills []string
	Subject        string
	Description    string
	ChannelType    string
	LanguageHint   string
}

// FeatureScores is the per-candidate raw feature breakdown, each in [0,1].
type FeatureScores struct {
	Capacity    float64 `json:"capacity"`
	SkillMatch  float64 `json:"skill_match"`
	Language    float64 `json:"language"`
	TeamAlign   float64 `json:"team_align"`
	Performance float64 `json:"performance"`
}

// RoutingSuggestion is one ranked candidate with its scoring rationale.
type RoutingSuggestion struct {
	AgentID       string        `json:"agent_id"`
	AgentName     string        `json:"agent_name"`
	Score         float64       `json:"score"`
	Features      FeatureScores `json:"features"`
	MatchedSkills []string      `json:"matched_skills"`
	MissingSkills []string      `json:"missing_skills"`
}
