package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLAInstanceCreated EventType = "sla_instance_created"
	EventSLABreached        EventType = "sla_breached"
	EventSLACompleted       EventType = "sla_completed"
	EventSLAPaused          EventType = "sla_paused"
	EventSLAResumed         EventType = "sla_resumed"
	EventSLACancelled       EventType = "sla_cancelled"
)

// Event represents a domain event emitted by the SLA core.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TenantID   string      `json:"tenant_id"`
	TicketID   string      `json:"ticket_id"`
	InstanceID string      `json:"instance_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// SLAInstanceCreatedPayload payload.
type SLAInstanceCreatedPayload struct {
	PolicyID         string    `json:"policy_id"`
	FirstResponseDue time.Time `json:"first_response_due"`
	ResolutionDue    time.Time `json:"resolution_due"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Breaches        []domain.BreachKind `json:"breaches"`
	EscalationLevel int                 `json:"escalation_level"`
	BreachCount     int                 `json:"breach_count"`
	AssigneeAgentID *string             `json:"assignee_agent_id,omitempty"`
}

// SLACompletedPayload payload.
type SLACompletedPayload struct {
	ResolvedAt time.Time `json:"resolved_at"`
}

// SLAStatusChangedPayload payload for pause/resume/cancel.
type SLAStatusChangedPayload struct {
	OldStatus domain.InstanceStatus `json:"old_status"`
	NewStatus domain.InstanceStatus `json:"new_status"`
}
