package domain

import "time"

// ConditionOperator enumerates supported condition operators.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorEqualsAlias ConditionOperator = "=="
	OperatorContains    ConditionOperator = "contains"
	OperatorIn          ConditionOperator = "in"
	OperatorHas         ConditionOperator = "has"
)

// PolicyCondition is one field/operator/value triple. All conditions of a
// policy must hold for the policy to apply (AND semantics).
type PolicyCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value"`
}

// BusinessWindow is a single working window within a weekday, HH:MM format.
type BusinessWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusinessHoursSchedule describes per-weekday working windows. Stored on the
// policy; the default due-date strategy does not consult it.
type BusinessHoursSchedule struct {
	Enabled  bool                             `json:"enabled"`
	Timezone string                           `json:"timezone"`
	Days     map[time.Weekday][]BusinessWindow `json:"days"`
}

// EscalationRule describes what happens at a given escalation level.
type EscalationRule struct {
	Level            int      `json:"level"`
	ThresholdMinutes int      `json:"threshold_minutes"`
	Action           string   `json:"action"`
	Recipients       []string `json:"recipients,omitempty"`
}

// NotificationSettings controls breach notification delivery for a policy.
type NotificationSettings struct {
	NotifyAssignee bool     `json:"notify_assignee"`
	Recipients     []string `json:"recipients,omitempty"`
	WebhookURL     string   `json:"webhook_url,omitempty"`
}

// SLAPolicy is a tenant-configured rule set defining response/resolution
// targets and the conditions under which it applies.
type SLAPolicy struct {
	ID                    string
	TenantID              string
	Name                  string
	Priority              string
	Conditions            []PolicyCondition
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	BusinessHours         *BusinessHoursSchedule
	Holidays              []string
	EscalationRules       []EscalationRule
	Notifications         NotificationSettings
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
