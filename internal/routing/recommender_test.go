package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestInferSkills(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"billing keyword", "Question about my invoice", []string{"billing"}},
		{"technical keyword", "App shows an error on login", []string{"technical"}},
		{"cancellation adds retention", "I want to cancel and get a refund", []string{"billing", "retention"}},
		{"case insensitive", "URGENT: PAYMENT failed", []string{"billing"}},
		{"multiple categories", "billing bug after downgrade", []string{"billing", "technical", "retention"}},
		{"no keywords", "hello there", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferSkills(tc.text))
		})
	}
}

func TestSuggestAgentNilWhenPoolEmpty(t *testing.T) {
	scorer := newTestScorer(&fakeAgentRepo{}, nil)
	recommender := NewRecommender(scorer, nil)

	agentID, err := recommender.SuggestAgent(context.Background(), domain.RoutingContext{TenantID: "t1"})
	require.NoError(t, err)
	assert.Nil(t, agentID)
}

func TestSuggestAgentPrefersInferredSkillHolder(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("generalist", 0, 5, nil, nil, nil),
		candidate("biller", 0, 5, []string{"billing"}, nil, nil),
	}}
	recommender := NewRecommender(newTestScorer(repo, nil), nil)

	rc := domain.RoutingContext{TenantID: "t1", Subject: "payment failed", Description: "card was charged twice"}
	agentID, err := recommender.SuggestAgent(context.Background(), rc)
	require.NoError(t, err)
	require.NotNil(t, agentID)
	assert.Equal(t, "biller", *agentID)
}

func TestGetRoutingSuggestionsHonorsLimit(t *testing.T) {
	repo := &fakeAgentRepo{candidates: []domain.AgentCandidate{
		candidate("a", 0, 5, nil, nil, nil),
		candidate("b", 1, 5, nil, nil, nil),
		candidate("c", 2, 5, nil, nil, nil),
	}}
	recommender := NewRecommender(newTestScorer(repo, nil), nil)

	suggestions, err := recommender.GetRoutingSuggestions(context.Background(), domain.RoutingContext{TenantID: "t1"}, 2)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "a", suggestions[0].AgentID)
	assert.Equal(t, "b", suggestions[1].AgentID)
}
