// internal/workers/decisioning/match-rule/models.go
package matchrule

import "uwizard-workers/internal/models"

type Input struct {
	MerchantID string `json:"merchantId"`
	// State lets the process pass an in-flight snapshot directly; when nil
	// the handler loads the persisted state for MerchantID.
	State *models.MerchantState `json:"state,omitempty"`
}

type Output struct {
	Matched  bool            `json:"matched"`
	RuleID   string          `json:"ruleId,omitempty"`
	RuleName string          `json:"ruleName,omitempty"`
	Actions  []models.Action `json:"actions"`
}
