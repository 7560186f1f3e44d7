package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyRequest is the create/update payload for an SLA policy.
type PolicyRequest struct {
	Name                  string                        `json:"name"`
	Priority              string                        `json:"priority"`
	Conditions            []domain.PolicyCondition      `json:"conditions"`
	ResponseTimeMinutes   int                           `json:"response_time_minutes"`
	ResolutionTimeMinutes int                           `json:"resolution_time_minutes"`
	BusinessHours         *domain.BusinessHoursSchedule `json:"business_hours,omitempty"`
	Holidays              []string                      `json:"holidays,omitempty"`
	EscalationRules       []domain.EscalationRule       `json:"escalation_rules,omitempty"`
	Notifications         domain.NotificationSettings   `json:"notifications"`
	IsActive              *bool                         `json:"is_active,omitempty"`
}

// PolicyResponse is the API projection of an SLA policy.
type PolicyResponse struct {
	ID                    string                        `json:"id"`
	Name                  string                        `json:"name"`
	Priority              string                        `json:"priority"`
	Conditions            []domain.PolicyCondition      `json:"conditions"`
	ResponseTimeMinutes   int                           `json:"response_time_minutes"`
	ResolutionTimeMinutes int                           `json:"resolution_time_minutes"`
	BusinessHours         *domain.BusinessHoursSchedule `json:"business_hours,omitempty"`
	Holidays              []string                      `json:"holidays,omitempty"`
	EscalationRules       []domain.EscalationRule       `json:"escalation_rules,omitempty"`
	Notifications         domain.NotificationSettings   `json:"notifications"`
	IsActive              bool                          `json:"is_active"`
	CreatedAt             time.Time                     `json:"created_at"`
	UpdatedAt             time.Time                     `json:"updated_at"`
}
