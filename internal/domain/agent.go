package domain

import "time"

// DefaultMaxConcurrentTickets applies when an agent profile leaves the
// capacity unset.
const DefaultMaxConcurrentTickets = 5

// Agent is the read projection of a human support agent.
type Agent struct {
	ID                   string
	TenantID             string
	Name                 string
	Email                string
	Active               bool
	AutoAssign           bool
	MaxConcurrentTickets int
	Skills               []string
	Languages            []string
	TeamIDs              []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MaxCapacity returns the effective concurrent-ticket ceiling.
func (a *Agent) MaxCapacity() int {
	if a.MaxConcurrentTickets <= 0 {
		return DefaultMaxConcurrentTickets
	}
	return a.MaxConcurrentTickets
}

// MemberOf reports team membership.
func (a *Agent) MemberOf(teamID string) bool {
	for _, id := range a.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// AgentCandidate pairs an agent with its current open-ticket load. Read fresh
// on every scoring call and never mutated by this core.
type AgentCandidate struct {
	Agent
	OpenTickets int
}
