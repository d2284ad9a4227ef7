// internal/decision/conditions/evaluator.go
package conditions

import (
	"time"

	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/models"
)

// Evaluator decides condition trees against a merchant state snapshot. It is
// stateless apart from the injected registry and clock, so a single instance
// can serve concurrent callers.
type Evaluator struct {
	registry *fields.Registry
	now      func() time.Time
}

func NewEvaluator(registry *fields.Registry) *Evaluator {
	return &Evaluator{registry: registry, now: time.Now}
}

// NewEvaluatorAt pins the clock, used by freshness checks in tests.
func NewEvaluatorAt(registry *fields.Registry, now func() time.Time) *Evaluator {
	return &Evaluator{registry: registry, now: now}
}

// Evaluate is total over the closed condition set: every well-formed tree
// yields true or false, never an error. A nil condition matches everything
// so catch-all rules can omit their guard.
func (e *Evaluator) Evaluate(cond models.Condition, state models.MerchantState) bool {
	switch c := cond.(type) {
	case nil:
		return true
	case models.EqualsCondition:
		return e.evalEquals(c, state)
	case models.MissingAnyCondition:
		return e.evalMissingAny(c.Fields, state)
	case models.ExpiredAnyCondition:
		return e.evalExpiredAny(c.Fields, state)
	case models.NotExpiredAllCondition:
		return e.evalNotExpiredAll(c.Fields, state)
	case models.AndCondition:
		for _, child := range c.Conditions {
			if !e.Evaluate(child, state) {
				return false
			}
		}
		return true
	case models.OrCondition:
		for _, child := range c.Conditions {
			if e.Evaluate(child, state) {
				return true
			}
		}
		return false
	default:
		// Unreachable for trees built from this package's models; kept so
		// the evaluator stays total if a caller smuggles in a foreign type.
		return false
	}
}

func (e *Evaluator) evalEquals(c models.EqualsCondition, state models.MerchantState) bool {
	if v, ok := state.FieldValue(c.Field); ok {
		return v == c.Value
	}
	// Synthetic paths not backed by the field map. Unknown paths are false,
	// not errors.
	switch c.Field {
	case "merchant.status":
		return string(state.Status) == c.Value
	case "merchant.id":
		return state.MerchantID == c.Value
	default:
		return false
	}
}

func (e *Evaluator) evalMissingAny(fieldIDs []string, state models.MerchantState) bool {
	for _, id := range fieldIDs {
		if _, ok := state.FieldValue(id); !ok {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalExpiredAny(fieldIDs []string, state models.MerchantState) bool {
	now := e.now()
	for _, id := range fieldIDs {
		if e.registry.IsExpired(id, state.Fields[id], now) {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalNotExpiredAll(fieldIDs []string, state models.MerchantState) bool {
	now := e.now()
	for _, id := range fieldIDs {
		st, ok := state.Fields[id]
		if !ok || st.Value == nil {
			return false
		}
		if e.registry.IsExpired(id, st, now) {
			return false
		}
	}
	return true
}
