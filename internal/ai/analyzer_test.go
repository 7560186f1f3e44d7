package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestAnalyzeUrgency(t *testing.T) {
	analyzer := NewKeywordAnalyzer()

	cases := []struct {
		name string
		text string
		want domain.UrgencyLevel
	}{
		{"critical beats high", "URGENT: full outage in production", domain.UrgencyCritical},
		{"high", "this is broken, please fix asap", domain.UrgencyHigh},
		{"low", "just a question: how do I export data?", domain.UrgencyLow},
		{"default medium", "something seems off with my account", domain.UrgencyMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signals, err := analyzer.Analyze(context.Background(), tc.text, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, signals.Urgency)
		})
	}
}

func TestAnalyzeIntentsAndLanguage(t *testing.T) {
	analyzer := NewKeywordAnalyzer()

	signals, err := analyzer.Analyze(context.Background(), "I want a refund for this invoice", "de")
	require.NoError(t, err)
	assert.Equal(t, "de", signals.Language)
	assert.ElementsMatch(t, []string{"billing_question", "cancellation"}, signals.Intents)
}
