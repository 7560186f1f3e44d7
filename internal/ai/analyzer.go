package ai

import (
	"context"
	"strings"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Signals is the result of content analysis on a ticket's free text.
type Signals struct {
	Language string
	Urgency  domain.UrgencyLevel
	Intents  []string
	Skills   []string
}

// Analyzer is the optional content-analysis collaborator. Callers must
// tolerate a nil analyzer and treat any error as "no signal".
type Analyzer interface {
	Analyze(ctx context.Context, text, languageHint string) (Signals, error)
}

// KeywordAnalyzer is the default analyzer: a deterministic keyword heuristic.
// A deployment can swap in a model-backed implementation behind the same
// interface.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer creates the analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

var urgencyKeywords = map[domain.UrgencyLevel][]string{
	domain.UrgencyCritical: {"outage", "down for everyone", "data loss", "security breach", "cannot access at all"},
	domain.UrgencyHigh:     {"urgent", "asap", "immediately", "broken", "critical", "production"},
	domain.UrgencyLow:      {"question", "how do i", "feature request", "suggestion"},
}

var intentKeywords = map[string][]string{
	"billing_question": {"billing", "invoice", "payment", "charge", "subscription"},
	"bug_report":       {"bug", "error", "crash", "exception", "login", "broken"},
	"cancellation":     {"cancel", "refund", "downgrade", "unsubscribe"},
}

// Analyze derives language, urgency and intents from text. It never fails;
// the error return exists for model-backed implementations.
func (a *KeywordAnalyzer) Analyze(_ context.Context, text, languageHint string) (Signals, error) {
	lowered := strings.ToLower(text)

	signals := Signals{
		Language: languageHint,
		Urgency:  domain.UrgencyMedium,
	}

	for _, level := range []domain.UrgencyLevel{domain.UrgencyCritical, domain.UrgencyHigh, domain.UrgencyLow} {
		if containsAny(lowered, urgencyKeywords[level]) {
			signals.Urgency = level
			break
		}
	}

	for intent, keywords := range intentKeywords {
		if containsAny(lowered, keywords) {
			signals.Intents = append(signals.Intents, intent)
		}
	}

	return signals, nil
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
