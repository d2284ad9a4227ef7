// internal/underwriting/guardrails_test.go
package underwriting

import (
	"testing"

	"uwizard-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Compliance Decision Tests
// ==========================

func TestEvaluateCompliance_Approved(t *testing.T) {
	report := EvaluateCompliance(cleanMetrics(), "CA")

	assert.Equal(t, models.DecisionApproved, report.Decision)
	assert.Empty(t, report.Violations)
	assert.True(t, report.CACompliant)
	assert.InDelta(t, 0.3, report.RiskScore, 0.001)
	require.NotNil(t, report.MaxOfferAmount)
	assert.InDelta(t, 96000, *report.MaxOfferAmount, 0.01)
	assert.Contains(t, report.Reasons, "Meets all underwriting requirements")
}

func TestEvaluateCompliance_DeclinedOnLowRevenue(t *testing.T) {
	metrics := models.Metrics{
		AvgMonthlyRevenue:   10000,
		AvgDailyBalance3M:   8000,
		TotalNSF3M:          0,
		TotalDaysNegative3M: 0,
	}

	report := EvaluateCompliance(metrics, "CA")

	assert.Equal(t, models.DecisionDeclined, report.Decision)
	assert.Nil(t, report.MaxOfferAmount)

	ruleIDs := violationIDs(report)
	assert.Contains(t, ruleIDs, "min_monthly_revenue")
	assert.Contains(t, ruleIDs, "min_annual_revenue")
}

func TestEvaluateCompliance_ManualReviewOnStackedWarnings(t *testing.T) {
	// Three warnings and risk exactly 0.8: nsf ratio, low balance, and low
	// balance-to-revenue ratio, with no criticals.
	metrics := models.Metrics{
		AvgMonthlyRevenue:   20000,
		AvgDailyBalance3M:   900,
		TotalNSF3M:          4,
		TotalDaysNegative3M: 10,
	}

	report := EvaluateCompliance(metrics, "CA")

	assert.Equal(t, models.DecisionManualReview, report.Decision)
	require.NotNil(t, report.MaxOfferAmount)
	assert.InDelta(t, 10000, *report.MaxOfferAmount, 0.01)
	assert.True(t, report.CACompliant)
}

func TestEvaluateCompliance_ConditionalOnModerateRisk(t *testing.T) {
	// Two warnings push risk to 0.65: above the conditional band, below
	// manual review.
	metrics := models.Metrics{
		AvgMonthlyRevenue:   20000,
		AvgDailyBalance3M:   900,
		TotalNSF3M:          0,
		TotalDaysNegative3M: 0,
	}

	report := EvaluateCompliance(metrics, "CA")

	assert.Equal(t, models.DecisionConditional, report.Decision)
	require.NotNil(t, report.MaxOfferAmount)
	assert.InDelta(t, 16000, *report.MaxOfferAmount, 0.01)
}

// ==========================
// CA-Specific Tests
// ==========================

func TestEvaluateCompliance_CANSFRatioIsCritical(t *testing.T) {
	// 5 NSF in 90 days is a warning federally but breaches the CA ratio.
	metrics := models.Metrics{
		AvgMonthlyRevenue:   80000,
		AvgDailyBalance3M:   12000,
		TotalNSF3M:          5,
		TotalDaysNegative3M: 2,
	}

	caReport := EvaluateCompliance(metrics, "CA")
	assert.Equal(t, models.DecisionDeclined, caReport.Decision)
	assert.False(t, caReport.CACompliant)
	assert.Contains(t, violationIDs(caReport), "ca_max_nsf_ratio")

	txReport := EvaluateCompliance(metrics, "TX")
	assert.True(t, txReport.CACompliant)
	assert.NotContains(t, violationIDs(txReport), "ca_max_nsf_ratio")
	assert.NotEqual(t, models.DecisionDeclined, txReport.Decision)
}

func TestEvaluateCompliance_HighNSFTriggersCARiskReason(t *testing.T) {
	metrics := models.Metrics{
		AvgMonthlyRevenue:   80000,
		AvgDailyBalance3M:   12000,
		TotalNSF3M:          8,
		TotalDaysNegative3M: 2,
	}

	report := EvaluateCompliance(metrics, "CA")

	assert.Equal(t, models.DecisionDeclined, report.Decision)
	assert.Contains(t, report.Reasons, "High NSF count triggers CA high-risk classification")
}

func TestEvaluateCompliance_RiskScoreIsCapped(t *testing.T) {
	metrics := models.Metrics{
		AvgMonthlyRevenue:   1000,
		AvgDailyBalance3M:   -500,
		TotalNSF3M:          20,
		TotalDaysNegative3M: 60,
	}

	report := EvaluateCompliance(metrics, "CA")
	assert.LessOrEqual(t, report.RiskScore, 1.0)
}

// ==========================
// Deal Term Validation Tests
// ==========================

func TestValidateDealTerms_CleanDeal(t *testing.T) {
	issues := ValidateDealTerms(20000, 1.1, 160, 50000, "CA")
	assert.Empty(t, issues)
}

func TestValidateDealTerms_Violations(t *testing.T) {
	// Daily payment 1540/day against 1666.67/day revenue, 2.2x exposure,
	// and an implied APR far past the CA ceiling.
	issues := ValidateDealTerms(110000, 1.4, 100, 50000, "CA")

	require.Len(t, issues, 3)
	assert.Contains(t, issues[0], "daily payment ratio")
	assert.Contains(t, issues[1], "total exposure ratio")
	assert.Contains(t, issues[2], "CA APR limits")
}

func TestValidateDealTerms_NonCASkipsAPRCheck(t *testing.T) {
	issues := ValidateDealTerms(110000, 1.4, 100, 50000, "TX")

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.NotContains(t, issue, "APR")
	}
}

func TestValidateDealTerms_ZeroRevenue(t *testing.T) {
	// Ratio checks are skipped rather than dividing by zero; the APR check
	// still applies.
	issues := ValidateDealTerms(20000, 1.5, 100, 0, "CA")

	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "APR")
}

// ==========================
// Helpers
// ==========================

func violationIDs(report models.ComplianceReport) []string {
	ids := make([]string, 0, len(report.Violations))
	for _, v := range report.Violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}
