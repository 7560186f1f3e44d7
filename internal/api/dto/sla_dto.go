package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// LifecycleEventRequest feeds a ticket lifecycle milestone into the SLA
// state machine, addressed by ticket or directly by instance.
type LifecycleEventRequest struct {
	Type       string     `json:"type"`
	TicketID   string     `json:"ticket_id,omitempty"`
	InstanceID string     `json:"instance_id,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// InstanceResponse is the API projection of an SLA instance.
type InstanceResponse struct {
	ID               string                `json:"id"`
	PolicyID         string                `json:"policy_id"`
	TicketID         string                `json:"ticket_id"`
	Status           domain.InstanceStatus `json:"status"`
	FirstResponseDue time.Time             `json:"first_response_due"`
	ResolutionDue    time.Time             `json:"resolution_due"`
	FirstResponseAt  *time.Time            `json:"first_response_at,omitempty"`
	ResolutionAt     *time.Time            `json:"resolution_at,omitempty"`
	PausedMinutes    int                   `json:"paused_minutes"`
	BreachCount      int                   `json:"breach_count"`
	EscalationLevel  int                   `json:"escalation_level"`
	Notifications    []domain.BreachRecord `json:"notifications"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}
