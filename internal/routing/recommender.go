package routing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// keywordSkills maps ticket text keywords to the skills they imply.
var keywordSkills = []struct {
	keywords []string
	skills   []string
}{
	{keywords: []string{"billing", "invoice", "payment", "charge"}, skills: []string{"billing"}},
	{keywords: []string{"bug", "error", "crash", "login"}, skills: []string{"technical"}},
	{keywords: []string{"cancel", "refund", "downgrade"}, skills: []string{"billing", "retention"}},
}

// Recommender orchestrates skill inference and candidate scoring to produce
// an assignment recommendation.
type Recommender struct {
	scorer *Scorer
	logger *zap.Logger
}

// NewRecommender creates the recommender.
func NewRecommender(scorer *Scorer, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{scorer: scorer, logger: logger}
}

// SuggestAgent returns the single best agent id, or nil when no agent is
// eligible.
func (r *Recommender) SuggestAgent(ctx context.Context, rc domain.RoutingContext) (*string, error) {
	suggestions, err := r.rank(ctx, rc)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}
	return &suggestions[0].AgentID, nil
}

// GetRoutingSuggestions returns up to limit ranked candidates with their
// feature breakdowns.
func (r *Recommender) GetRoutingSuggestions(ctx context.Context, rc domain.RoutingContext, limit int) ([]domain.RoutingSuggestion, error) {
	suggestions, err := r.rank(ctx, rc)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (r *Recommender) rank(ctx context.Context, rc domain.RoutingContext) ([]domain.RoutingSuggestion, error) {
	inferred := InferSkills(rc.Subject + " " + rc.Description)
	if len(inferred) > 0 {
		r.logger.Debug("inferred skills from ticket text",
			zap.Strings("skills", inferred), zap.String("tenant_id", rc.TenantID))
	}
	return r.scorer.Rank(ctx, rc, inferred)
}

// InferSkills maps ticket text to implied skills via the fixed keyword table.
func InferSkills(text string) []string {
	lowered := strings.ToLower(text)
	var inferred []string
	seen := map[string]bool{}
	for _, entry := range keywordSkills {
		for _, keyword := range entry.keywords {
			if !strings.Contains(lowered, keyword) {
				continue
			}
			for _, skill := range entry.skills {
				if !seen[skill] {
					seen[skill] = true
					inferred = append(inferred, skill)
				}
			}
			break
		}
	}
	return inferred
}
