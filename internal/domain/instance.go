package domain

import "time"

// InstanceStatus enumerates SLA instance lifecycle states.
type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "ACTIVE"
	InstanceStatusPaused    InstanceStatus = "PAUSED"
	InstanceStatusBreached  InstanceStatus = "BREACHED"
	InstanceStatusCompleted InstanceStatus = "COMPLETED"
	InstanceStatusCancelled InstanceStatus = "CANCELLED"
)

// BreachKind identifies which due timestamp was missed.
type BreachKind string

const (
	BreachFirstResponse BreachKind = "first_response_breach"
	BreachResolution    BreachKind = "resolution_breach"
)

// BreachRecord is one append-only entry in the instance notification log.
type BreachRecord struct {
	Timestamp   time.Time    `json:"timestamp"`
	Breaches    []BreachKind `json:"breaches"`
	EscalatedTo int          `json:"escalated_to"`
}

// SLAInstance is the live per-ticket tracking record derived from a matched
// policy. FirstResponseAt and ResolutionAt are never cleared once set;
// BreachCount and EscalationLevel never decrease.
type SLAInstance struct {
	ID               string
	TenantID         string
	PolicyID         string
	TicketID         string
	Status           InstanceStatus
	FirstResponseDue time.Time
	ResolutionDue    time.Time
	FirstResponseAt  *time.Time
	ResolutionAt     *time.Time
	PausedAt         *time.Time
	PausedMinutes    int
	BreachCount      int
	EscalationLevel  int
	Notifications    []BreachRecord
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OverdueBreaches returns the breach kinds present at the given instant.
// Only due timestamps whose milestone is still unset count.
func (i *SLAInstance) OverdueBreaches(now time.Time) []BreachKind {
	var kinds []BreachKind
	if i.FirstResponseAt == nil && i.FirstResponseDue.Before(now) {
		kinds = append(kinds, BreachFirstResponse)
	}
	if i.ResolutionAt == nil && i.ResolutionDue.Before(now) {
		kinds = append(kinds, BreachResolution)
	}
	return kinds
}

// Terminal reports whether the instance can no longer transition.
func (i *SLAInstance) Terminal() bool {
	return i.Status == InstanceStatusCompleted || i.Status == InstanceStatusCancelled
}
