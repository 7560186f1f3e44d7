package sla

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// MatchPolicy selects the applicable policy for a ticket snapshot from the
// tenant's policies, which must be ordered by creation time ascending.
//
// A policy matches when all of its conditions hold; a policy with zero
// conditions matches unconditionally. The first full match wins. When no
// policy matches, the first active policy is the fallback; when no policy is
// active the result is nil. This ordering and fallback rule determines
// tie-breaks and must not change.
func MatchPolicy(snapshot map[string]any, policies []domain.SLAPolicy) *domain.SLAPolicy {
	var fallback *domain.SLAPolicy
	for i := range policies {
		policy := &policies[i]
		if !policy.IsActive {
			continue
		}
		if fallback == nil {
			fallback = policy
		}
		if policyMatches(snapshot, policy) {
			return policy
		}
	}
	return fallback
}

func policyMatches(snapshot map[string]any, policy *domain.SLAPolicy) bool {
	for _, cond := range policy.Conditions {
		if !evaluateCondition(snapshot, cond) {
			return false
		}
	}
	return true
}

// evaluateCondition resolves the condition's dotted field path against the
// snapshot and applies the operator. Undefined path segments and unknown
// operators evaluate to false.
func evaluateCondition(snapshot map[string]any, cond domain.PolicyCondition) bool {
	value, ok := resolvePath(snapshot, cond.Field)
	if !ok {
		return false
	}

	switch cond.Operator {
	case domain.OperatorEquals, domain.OperatorEqualsAlias:
		return stringify(value) == stringify(cond.Value)
	case domain.OperatorContains:
		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(stringify(cond.Value)),
		)
	case domain.OperatorIn:
		for _, item := range toSlice(cond.Value) {
			if stringify(value) == stringify(item) {
				return true
			}
		}
		return false
	case domain.OperatorHas:
		for _, item := range toSlice(value) {
			if stringify(item) == stringify(cond.Value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// resolvePath walks dotted segments through nested maps, short-circuiting to
// not-found when any segment is undefined.
func resolvePath(snapshot map[string]any, field string) (any, bool) {
	segments := strings.Split(field, ".")
	var current any = snapshot
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func toSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return items
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
