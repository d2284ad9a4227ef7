// internal/underwriting/guardrails.go
package underwriting

import (
	"fmt"
	"math"

	"uwizard-workers/internal/models"
)

// California commercial financing disclosure thresholds.
const (
	caMaxAnnualFeeRate = 0.36
	caMinAnnualRevenue = 50000
	caMaxNSFRatio      = 0.05
	caHighRiskNSFCount = 8
)

type guardrailRule struct {
	threshold float64
	severity  models.ViolationSeverity
}

// complianceRules is the deal eligibility catalog evaluated before any
// pricing happens. It is broader than the offer guardrail gate: offers can
// still be rejected later by the hard NSF and negative-day thresholds.
var complianceRules = map[string]guardrailRule{
	"min_monthly_revenue":      {threshold: 15000, severity: models.SeverityCritical},
	"min_annual_revenue":       {threshold: 180000, severity: models.SeverityCritical},
	"max_nsf_3m":               {threshold: 5, severity: models.SeverityCritical},
	"max_nsf_ratio":            {threshold: 0.03, severity: models.SeverityWarning},
	"min_avg_balance":          {threshold: 5000, severity: models.SeverityWarning},
	"balance_to_revenue_ratio": {threshold: 0.05, severity: models.SeverityWarning},
	"max_negative_days_3m":     {threshold: 15, severity: models.SeverityCritical},
	"max_daily_payment_ratio":  {threshold: 0.15, severity: models.SeverityWarning},
	"max_total_exposure":       {threshold: 2.0, severity: models.SeverityWarning},
}

// EvaluateCompliance scores metrics against the guardrail catalog and the
// state-specific rules, producing a decision band and an approval ceiling.
func EvaluateCompliance(metrics models.Metrics, state string) models.ComplianceReport {
	violations := []models.RuleViolation{}
	reasons := []string{}
	riskScore := 0.3

	monthlyRevenue := metrics.AvgMonthlyRevenue
	annualRevenue := monthlyRevenue * 12
	dailyBalance := metrics.AvgDailyBalance3M
	nsfCount := float64(metrics.TotalNSF3M)
	negativeDays := float64(metrics.TotalDaysNegative3M)

	nsfRatio := 0.0
	if nsfCount > 0 {
		nsfRatio = nsfCount / 90
	}
	balanceToRevenue := 0.0
	if monthlyRevenue > 0 {
		balanceToRevenue = dailyBalance / monthlyRevenue
	}

	if monthlyRevenue < complianceRules["min_monthly_revenue"].threshold {
		violations = append(violations, violation("min_monthly_revenue",
			"Monthly revenue below minimum threshold", monthlyRevenue, "avg_monthly_revenue"))
		riskScore += 0.3
	}
	if annualRevenue < complianceRules["min_annual_revenue"].threshold {
		violations = append(violations, violation("min_annual_revenue",
			"Annual revenue below minimum threshold", annualRevenue, "annual_revenue"))
	}
	if nsfCount > complianceRules["max_nsf_3m"].threshold {
		violations = append(violations, violation("max_nsf_3m",
			"NSF count exceeds maximum threshold", nsfCount, "total_nsf_3m"))
		riskScore += 0.25
	}
	if nsfRatio > complianceRules["max_nsf_ratio"].threshold {
		violations = append(violations, violation("max_nsf_ratio",
			"NSF ratio too high", nsfRatio, "nsf_ratio"))
		riskScore += 0.15
	}
	if dailyBalance < complianceRules["min_avg_balance"].threshold {
		violations = append(violations, violation("min_avg_balance",
			"Average daily balance too low", dailyBalance, "avg_daily_balance_3m"))
		riskScore += 0.2
	}
	if balanceToRevenue < complianceRules["balance_to_revenue_ratio"].threshold {
		violations = append(violations, violation("balance_to_revenue_ratio",
			"Balance to revenue ratio too low", balanceToRevenue, "balance_to_revenue_ratio"))
		riskScore += 0.15
	}
	if negativeDays > complianceRules["max_negative_days_3m"].threshold {
		violations = append(violations, violation("max_negative_days_3m",
			"Too many negative balance days", negativeDays, "total_days_negative_3m"))
		riskScore += 0.3
	}

	caCompliant := true
	if state == "CA" {
		if annualRevenue < caMinAnnualRevenue {
			violations = append(violations, models.RuleViolation{
				RuleID:         "ca_min_revenue",
				Description:    "Does not meet CA minimum revenue requirement",
				Severity:       models.SeverityCritical,
				ActualValue:    annualRevenue,
				ThresholdValue: caMinAnnualRevenue,
				FieldName:      "annual_revenue",
			})
			caCompliant = false
		}
		if nsfRatio > caMaxNSFRatio {
			violations = append(violations, models.RuleViolation{
				RuleID:         "ca_max_nsf_ratio",
				Description:    "NSF ratio exceeds CA compliance limit",
				Severity:       models.SeverityCritical,
				ActualValue:    nsfRatio,
				ThresholdValue: caMaxNSFRatio,
				FieldName:      "nsf_ratio",
			})
			caCompliant = false
		}
		if nsfCount >= caHighRiskNSFCount {
			reasons = append(reasons, "High NSF count triggers CA high-risk classification")
			riskScore += 0.2
		}
	}

	criticalCount := 0
	warningCount := 0
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			criticalCount++
		case models.SeverityWarning:
			warningCount++
		}
	}

	riskScore = math.Min(riskScore, 1.0)

	var decision models.ComplianceDecision
	var maxOffer *float64
	switch {
	case criticalCount > 0 || !caCompliant:
		decision = models.DecisionDeclined
		reasons = append(reasons, "Critical underwriting violations or compliance issues")
	case warningCount >= 3 || riskScore > 0.8:
		decision = models.DecisionManualReview
		reasons = append(reasons, "Multiple warnings or high risk score requires manual review")
		maxOffer = ptr(monthlyRevenue * 0.5)
	case riskScore > 0.6:
		decision = models.DecisionConditional
		reasons = append(reasons, "Moderate risk - conditional approval with limits")
		maxOffer = ptr(monthlyRevenue * 0.8)
	default:
		decision = models.DecisionApproved
		reasons = append(reasons, "Meets all underwriting requirements")
		maxOffer = ptr(monthlyRevenue * 1.2)
	}

	return models.ComplianceReport{
		Decision:       decision,
		Violations:     violations,
		MaxOfferAmount: maxOffer,
		RiskScore:      riskScore,
		Reasons:        reasons,
		CACompliant:    caCompliant,
	}
}

// ValidateDealTerms checks a specific amount/fee/term combination against the
// concentration limits and the CA fee rate ceiling. It returns the list of
// issues; an empty list means the terms pass.
func ValidateDealTerms(dealAmount, feeRate float64, termDays int, monthlyRevenue float64, state string) []string {
	issues := []string{}

	totalPayback := dealAmount * feeRate
	dailyPayment := totalPayback / float64(termDays)
	dailyRevenue := monthlyRevenue / 30

	paymentRatio := 0.0
	if dailyRevenue > 0 {
		paymentRatio = dailyPayment / dailyRevenue
	}
	if limit := complianceRules["max_daily_payment_ratio"].threshold; paymentRatio > limit {
		issues = append(issues, fmt.Sprintf("daily payment ratio (%.2f%%) exceeds limit (%.2f%%)",
			paymentRatio*100, limit*100))
	}

	exposureRatio := 0.0
	if monthlyRevenue > 0 {
		exposureRatio = dealAmount / monthlyRevenue
	}
	if limit := complianceRules["max_total_exposure"].threshold; exposureRatio > limit {
		issues = append(issues, fmt.Sprintf("total exposure ratio (%.1fx) exceeds limit (%.1fx)",
			exposureRatio, limit))
	}

	if state == "CA" {
		approxAPR := ((feeRate - 1) * 365) / float64(termDays)
		if approxAPR > caMaxAnnualFeeRate {
			issues = append(issues, fmt.Sprintf("fee rate may exceed CA APR limits (approx %.2f%% APR)",
				approxAPR*100))
		}
	}

	return issues
}

func violation(ruleID, description string, actual float64, fieldName string) models.RuleViolation {
	rule := complianceRules[ruleID]
	return models.RuleViolation{
		RuleID:         ruleID,
		Description:    description,
		Severity:       rule.severity,
		ActualValue:    actual,
		ThresholdValue: rule.threshold,
		FieldName:      fieldName,
	}
}

func ptr(v float64) *float64 { return &v }
