package domain

import "time"

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Ticket is the read projection of a support ticket as this service sees it.
// Tickets are owned by the conversation service; this core never mutates them.
type Ticket struct {
	ID              string
	TenantID        string
	Subject         string
	Description     string
	Status          string
	Priority        TicketPriority
	ChannelType     string
	Tags            []string
	CustomerID      *string
	AssigneeAgentID *string
	TeamID          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Customer is the read projection used for VIP lookups and condition matching.
type Customer struct {
	ID        string
	TenantID  string
	Email     string
	Name      string
	VIP       bool
	Tags      []string
	CreatedAt time.Time
}

// Snapshot flattens the ticket (and optionally its customer) into the nested
// attribute map the policy matcher resolves dotted field paths against.
func (t *Ticket) Snapshot(customer *Customer) map[string]any {
	snap := map[string]any{
		"id":          t.ID,
		"subject":     t.Subject,
		"description": t.Description,
		"status":      t.Status,
		"priority":    string(t.Priority),
		"channelType": t.ChannelType,
		"tags":        t.Tags,
	}
	if t.TeamID != nil {
		snap["teamId"] = *t.TeamID
	}
	if t.CustomerID != nil {
		snap["customerId"] = *t.CustomerID
	}
	if customer != nil {
		snap["customer"] = map[string]any{
			"id":    customer.ID,
			"email": customer.Email,
			"name":  customer.Name,
			"vip":   customer.VIP,
			"tags":  customer.Tags,
		}
	}
	return snap
}
