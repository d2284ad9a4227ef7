// internal/workers/underwriting/check-deal-compliance/models.go
package checkdealcompliance

import "uwizard-workers/internal/models"

// DealTerms are the concrete terms of a proposed deal, validated on top of
// the merchant-level compliance gate when present.
type DealTerms struct {
	Amount   float64 `json:"amount"`
	FeeRate  float64 `json:"feeRate"`
	TermDays int     `json:"termDays"`
}

type Input struct {
	MerchantID string          `json:"merchantId"`
	Metrics    *models.Metrics `json:"metrics,omitempty"`
	State      string          `json:"state,omitempty"`
	Deal       *DealTerms      `json:"deal,omitempty"`
}

type Output struct {
	Report     models.ComplianceReport `json:"report"`
	DealIssues []string                `json:"dealIssues,omitempty"`
}
