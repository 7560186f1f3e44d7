package routing

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/ai"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// performanceScore is a placeholder constant until a rolling-window
// response-time metric lands. Replacing it must not change how weights are
// normalized.
const performanceScore = 0.5

// neutralScore applies when a feature has no constraint to judge against.
const neutralScore = 0.5

type weights struct {
	capacity    float64
	skills      float64
	language    float64
	team        float64
	performance float64
}

var baseWeights = weights{
	capacity:    0.35,
	skills:      0.35,
	language:    0.10,
	team:        0.10,
	performance: 0.10,
}

// Scorer ranks a tenant's eligible agents for a routing context. It is a
// stateless read-only computation; concurrent calls are independent.
type Scorer struct {
	agents    repository.AgentRepository
	customers repository.CustomerRepository
	analyzer  ai.Analyzer
	logger    *zap.Logger
}

// NewScorer creates the scorer. The analyzer may be nil.
func NewScorer(agents repository.AgentRepository, customers repository.CustomerRepository, analyzer ai.Analyzer, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{agents: agents, customers: customers, analyzer: analyzer, logger: logger}
}

// Rank scores the tenant's candidate pool against the routing context plus
// any externally inferred skills, returning suggestions in descending score
// order. Ties keep pool iteration order (agents by creation time ascending).
func (s *Scorer) Rank(ctx context.Context, rc domain.RoutingContext, inferredSkills []string) ([]domain.RoutingSuggestion, error) {
	signals := s.fuseSignals(ctx, rc)
	mergedSkills := mergeSkills(rc.RequiredSkills, signals.Skills, inferredSkills)
	isVip := s.lookupVip(ctx, rc)
	w := weightsFor(isVip, signals.Urgency)

	candidates, err := s.agents.ListCandidates(ctx, rc.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	suggestions := make([]domain.RoutingSuggestion, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]
		if rc.TeamID != nil && !candidate.MemberOf(*rc.TeamID) {
			continue
		}
		maxCapacity := candidate.MaxCapacity()
		if candidate.OpenTickets >= maxCapacity {
			continue
		}

		features := domain.FeatureScores{
			Capacity:    1 - minFloat(1, float64(candidate.OpenTickets)/float64(maxCapacity)),
			Performance: performanceScore,
		}

		matched, missing := intersectSkills(mergedSkills, candidate.Skills)
		if len(mergedSkills) > 0 {
			features.SkillMatch = float64(len(matched)) / float64(len(mergedSkills))
		}

		switch {
		case signals.Language == "":
			features.Language = neutralScore
		case hasLanguage(candidate.Languages, signals.Language):
			features.Language = 1
		default:
			features.Language = 0
		}

		switch {
		case rc.TeamID == nil:
			features.TeamAlign = neutralScore
		default:
			// Non-members were filtered out above.
			features.TeamAlign = 1
		}

		score := w.capacity*features.Capacity +
			w.skills*features.SkillMatch +
			w.language*features.Language +
			w.team*features.TeamAlign +
			w.performance*features.Performance

		suggestions = append(suggestions, domain.RoutingSuggestion{
			AgentID:       candidate.ID,
			AgentName:     candidate.Name,
			Score:         score,
			Features:      features,
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions, nil
}

// fuseSignals runs content analysis, degrading to no signal on any failure.
func (s *Scorer) fuseSignals(ctx context.Context, rc domain.RoutingContext) ai.Signals {
	signals := ai.Signals{Urgency: domain.UrgencyMedium, Language: rc.LanguageHint}
	if s.analyzer == nil {
		return signals
	}
	text := strings.TrimSpace(rc.Subject + " " + rc.Description)
	if text == "" {
		return signals
	}
	fused, err := s.analyzer.Analyze(ctx, text, rc.LanguageHint)
	if err != nil {
		s.logger.Debug("content analysis failed; routing without signals", zap.Error(err))
		return signals
	}
	if fused.Urgency == "" {
		fused.Urgency = domain.UrgencyMedium
	}
	return fused
}

// lookupVip resolves the customer's VIP flag, defaulting false on any failure.
func (s *Scorer) lookupVip(ctx context.Context, rc domain.RoutingContext) bool {
	if rc.CustomerID == nil {
		return false
	}
	customer, err := s.customers.GetByID(ctx, rc.TenantID, *rc.CustomerID)
	if err != nil {
		s.logger.Debug("vip lookup failed; assuming non-vip", zap.Error(err))
		return false
	}
	return customer.VIP
}

// weightsFor boosts base weights for VIP customers or urgent tickets and
// renormalizes to sum 1. VIP takes precedence over urgency.
func weightsFor(isVip bool, urgency domain.UrgencyLevel) weights {
	w := baseWeights
	switch {
	case isVip:
		w.capacity += 0.05
		w.skills += 0.05
		w.performance += 0.05
	case urgency == domain.UrgencyHigh || urgency == domain.UrgencyCritical:
		w.capacity += 0.10
		w.skills += 0.05
	default:
		return w
	}
	sum := w.capacity + w.skills + w.language + w.team + w.performance
	w.capacity /= sum
	w.skills /= sum
	w.language /= sum
	w.team /= sum
	w.performance /= sum
	return w
}

// mergeSkills unions skill lists, de-duplicating case-insensitively while
// preserving first-seen order.
func mergeSkills(lists ...[]string) []string {
	var merged []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, skill := range list {
			key := strings.ToLower(strings.TrimSpace(skill))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, skill)
		}
	}
	return merged
}

func intersectSkills(required, held []string) (matched, missing []string) {
	heldSet := map[string]bool{}
	for _, skill := range held {
		heldSet[strings.ToLower(skill)] = true
	}
	for _, skill := range required {
		if heldSet[strings.ToLower(skill)] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	return matched, missing
}

func hasLanguage(languages []string, language string) bool {
	for _, l := range languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
