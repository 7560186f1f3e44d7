package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

type fakeAgentRepo struct {
	candidates []domain.AgentCandidate
	err        error
}

func (f *fakeAgentRepo) GetByID(_ context.Context, _, id string) (*domain.Agent, error) {
	for i := range f.candidates {
		if f.candidates[i].ID == id {
			return &f.candidates[i].Agent, nil
		}
	}
	return nil, errors.New("agent not found")
}

func (f *fakeAgentRepo) ListCandidates(_ context.Context, _ string) ([]domain.AgentCandidate, error) {
	return f.candidates, f.err
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, _, id string) (*domain.Customer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, errors.New("customer not found")
}

func candidate(id string, open, max int, skills, languages, teams []string) domain.AgentCandidate {
	return domain.AgentCandidate{
		Agent: domain.Agent{
			ID:                   id,
			Name:                 "Agent " + id,
			Active:               true,
			AutoAssign:           true,
			MaxConcurrentTickets: max,
			Skills:               skills,
			Languages:            languages,
			TeamIDs:              teams,
		},
		OpenTickets: open,
	}
}

func newTestScorer(agents *fakeAgentRepo, customers *fakeCustomerRepo) *Scorer {
	if customers == nil {
		customers = &fakeCustomerRepo{}
	}
	return NewScorer(agents, customers, nil, nil)
}

func TestRankExcludesAgentsAtCapacity(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("full", 3, 3, nil, nil, nil),
		candidate("free", 0, 3, nil, nil, nil),
	}}
	scorer := newTestScorer(repo, nil)

	suggestions, err := scorer.Rank(context.Background(), domain.RoutingContext{TenantID: "t1"}, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "free", suggestions[0].AgentID)
	assert.InDelta(t, 1.0, suggestions[0].Features.Capacity, 1e-9)
}

func TestRankDefaultCapacityCeiling(t *testing.T) {
	// MaxConcurrentTickets unset falls back to the default of 5.
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("at-default", domain.DefaultMaxConcurrentTickets, 0, nil, nil, nil),
		candidate("below", domain.DefaultMaxConcurrentTickets-1, 0, nil, nil, nil),
	}}
	scorer := newTestScorer(repo, nil)

	suggestions, err := scorer.Rank(context.Background(), domain.RoutingContext{TenantID: "t1"}, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "below", suggestions[0].AgentID)
}

func TestRankSkillMatchFraction(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("both", 0, 5, []string{"billing", "technical"}, nil, nil),
		candidate("one", 0, 5, []string{"Billing"}, nil, nil),
		candidate("none", 0, 5, []string{"sales"}, nil, nil),
	}}
	scorer := newTestScorer(repo, nil)

	rc := domain.RoutingContext{TenantID: "t1", RequiredSkills: []string{"billing", "technical"}}
	suggestions, err := scorer.Rank(context.Background(), rc, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	assert.Equal(t, "both", suggestions[0].AgentID)
	assert.InDelta(t, 1.0, suggestions[0].Features.SkillMatch, 1e-9)
	assert.Empty(t, suggestions[0].MissingSkills)

	// Skill comparison is case-insensitive.
	assert.Equal(t, "one", suggestions[1].AgentID)
	assert.InDelta(t, 0.5, suggestions[1].Features.SkillMatch, 1e-9)
	assert.Equal(t, []string{"billing"}, suggestions[1].MatchedSkills)
	assert.Equal(t, []string{"technical"}, suggestions[1].MissingSkills)

	assert.Equal(t, "none", suggestions[2].AgentID)
	assert.InDelta(t, 0.0, suggestions[2].Features.SkillMatch, 1e-9)
}

func TestRankLanguageNeutralWithoutSignal(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("a", 0, 5, nil, []string{"de"}, nil),
	}}
	scorer := newTestScorer(repo, nil)

	suggestions, err := scorer.Rank(context.Background(), domain.RoutingContext{TenantID: "t1"}, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.InDelta(t, 0.5, suggestions[0].Features.Language, 1e-9)
}

func TestRankLanguageBinaryWithHint(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("speaks", 0, 5, nil, []string{"en", "DE"}, nil),
		candidate("silent", 0, 5, nil, []string{"fr"}, nil),
	}}
	scorer := newTestScorer(repo, nil)

	rc := domain.RoutingContext{TenantID: "t1", LanguageHint: "de"}
	suggestions, err := scorer.Rank(context.Background(), rc, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "speaks", suggestions[0].AgentID)
	assert.InDelta(t, 1.0, suggestions[0].Features.Language, 1e-9)
	assert.InDelta(t, 0.0, suggestions[1].Features.Language, 1e-9)
}

func TestRankTeamFilterAndAlignment(t *testing.T) {
	teamID := "team-1"
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("member", 0, 5, nil, nil, []string{teamID}),
		candidate("outsider", 0, 5, nil, nil, []string{"team-2"}),
	}}
	scorer := newTestScorer(repo, nil)

	rc := domain.RoutingContext{TenantID: "t1", TeamID: &teamID}
	suggestions, err := scorer.Rank(context.Background(), rc, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "member", suggestions[0].AgentID)
	assert.InDelta(t, 1.0, suggestions[0].Features.TeamAlign, 1e-9)
}

func TestRankTieKeepsPoolOrder(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("older", 1, 5, nil, nil, nil),
		candidate("newer", 1, 5, nil, nil, nil),
	}}
	scorer := newTestScorer(repo, nil)

	suggestions, err := scorer.Rank(context.Background(), domain.RoutingContext{TenantID: "t1"}, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "older", suggestions[0].AgentID)
	assert.Equal(t, "newer", suggestions[1].AgentID)
	assert.Equal(t, suggestions[0].Score, suggestions[1].Score)
}

func TestRankVipBoostUsesCustomerFlag(t *testing.T) {
	customerID := "cust-1"
	customers := &fakeCustomerRepo{customers: map[string]*domain.Customer{
		customerID: {ID: customerID, VIP: true},
	}}
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("loaded-skilled", 3, 5, []string{"billing"}, nil, nil),
		candidate("idle-unskilled", 0, 5, nil, nil, nil),
	}}
	scorer := newTestScorer(repo, customers)

	rc := domain.RoutingContext{
		TenantID:       "t1",
		CustomerID:     &customerID,
		RequiredSkills: []string{"billing"},
	}
	suggestions, err := scorer.Rank(context.Background(), rc, nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	// With the VIP boost, skill weight outweighs the capacity deficit:
	// loaded-skilled: capacity 0.4, skills 1 vs idle-unskilled: capacity 1, skills 0.
	assert.Equal(t, "loaded-skilled", suggestions[0].AgentID)
}

func TestWeightsForNormalization(t *testing.T) {
	cases := []struct {
		name    string
		vip     bool
		urgency domain.UrgencyLevel
	}{
		{"base", false, domain.UrgencyMedium},
		{"vip", true, domain.UrgencyMedium},
		{"urgent", false, domain.UrgencyHigh},
		{"critical", false, domain.UrgencyCritical},
		{"vip wins over urgency", true, domain.UrgencyCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := weightsFor(tc.vip, tc.urgency)
			sum := w.capacity + w.skills + w.language + w.team + w.performance
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestWeightsForVipPrecedence(t *testing.T) {
	vip := weightsFor(true, domain.UrgencyCritical)
	vipOnly := weightsFor(true, domain.UrgencyMedium)
	assert.Equal(t, vipOnly, vip)

	urgent := weightsFor(false, domain.UrgencyHigh)
	assert.Greater(t, urgent.capacity, urgent.skills)
}

func TestMergeSkillsDedupesCaseInsensitively(t *testing.T) {
	merged := mergeSkills([]string{"Billing", "technical"}, []string{"billing", "retention"}, []string{" TECHNICAL "})
	assert.Equal(t, []string{"Billing", "technical", "retention"}, merged)
}
