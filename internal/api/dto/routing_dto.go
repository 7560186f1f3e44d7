package dto

import "github.com/spec-kit/sla-engine/internal/domain"

// RoutingRequest describes a ticket's assignment requirements.
type RoutingRequest struct {
	CustomerID     *string  `json:"customer_id,omitempty"`
	TeamID         *string  `json:"team_id,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	Description    string   `json:"description,omitempty"`
	ChannelType    string   `json:"channel_type,omitempty"`
	LanguageHint   string   `json:"language_hint,omitempty"`
}

// SuggestResponse carries the single best candidate, null when none is
// eligible.
type SuggestResponse struct {
	AgentID *string `json:"agent_id"`
}

// SuggestionsResponse carries the ranked explanation list.
type SuggestionsResponse struct {
	Suggestions []domain.RoutingSuggestion `json:"suggestions"`
}
