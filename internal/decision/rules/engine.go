// internal/decision/rules/engine.go
package rules

import (
	"sort"

	"uwizard-workers/internal/decision/conditions"
	"uwizard-workers/internal/models"
)

// MatchResult carries the first satisfied rule and its action list. A nil
// Matched with empty Actions is the valid no-match outcome, not an error.
type MatchResult struct {
	Matched *models.Rule    `json:"matched,omitempty"`
	Actions []models.Action `json:"actions"`
}

// Engine selects the next conversational actions for a merchant state.
// It never mutates the rules it is given.
type Engine struct {
	evaluator *conditions.Evaluator
}

func NewEngine(evaluator *conditions.Evaluator) *Engine {
	return &Engine{evaluator: evaluator}
}

// Match filters to enabled rules, stable-sorts ascending by priority so ties
// keep insertion order, and stops at the first rule whose condition holds.
func (e *Engine) Match(catalog []models.Rule, state models.MerchantState) MatchResult {
	candidates := make([]models.Rule, 0, len(catalog))
	for _, r := range catalog {
		if r.Enabled {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	for i := range candidates {
		if e.evaluator.Evaluate(candidates[i].When, state) {
			matched := candidates[i]
			return MatchResult{Matched: &matched, Actions: matched.Then}
		}
	}
	return MatchResult{Actions: []models.Action{}}
}
