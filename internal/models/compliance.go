// internal/models/compliance.go
package models

type ComplianceDecision string

const (
	DecisionApproved     ComplianceDecision = "approved"
	DecisionDeclined     ComplianceDecision = "declined"
	DecisionManualReview ComplianceDecision = "manual_review"
	DecisionConditional  ComplianceDecision = "conditional"
)

type ViolationSeverity string

const (
	SeverityInfo     ViolationSeverity = "info"
	SeverityWarning  ViolationSeverity = "warning"
	SeverityCritical ViolationSeverity = "critical"
)

// RuleViolation records one breached compliance threshold.
type RuleViolation struct {
	RuleID         string            `json:"ruleId"`
	Description    string            `json:"description"`
	Severity       ViolationSeverity `json:"severity"`
	ActualValue    float64           `json:"actualValue"`
	ThresholdValue float64           `json:"thresholdValue"`
	FieldName      string            `json:"fieldName"`
}

// ComplianceReport is the outcome of evaluating metrics against the
// underwriting guardrail catalog.
type ComplianceReport struct {
	Decision       ComplianceDecision `json:"decision"`
	Violations     []RuleViolation    `json:"violations"`
	MaxOfferAmount *float64           `json:"maxOfferAmount,omitempty"`
	RiskScore      float64            `json:"riskScore"`
	Reasons        []string           `json:"reasons"`
	CACompliant    bool               `json:"caCompliant"`
}
