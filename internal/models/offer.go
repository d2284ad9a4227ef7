// internal/models/offer.go
package models

// OfferTier is one configured pricing point. Factor scales the base funding
// amount, Fee multiplies amount into payback, BuyRate (when positive) is the
// wholesale cost used for margin.
type OfferTier struct {
	Factor   float64 `json:"factor"`
	Fee      float64 `json:"fee"`
	TermDays int     `json:"term_days"`
	BuyRate  float64 `json:"buy_rate,omitempty"`
}

type OfferCaps struct {
	PaybackToMonthlyRev float64 `json:"payback_to_monthly_rev"`
}

type OfferThresholds struct {
	MaxNSF3M          int `json:"max_nsf_3m"`
	MaxNegativeDays3M int `json:"max_negative_days_3m"`
}

// OfferOverrides lets a caller replace tiers, caps, or guardrail thresholds
// for a single request. Nil members fall back to configured defaults.
type OfferOverrides struct {
	Tiers      []OfferTier      `json:"tiers,omitempty"`
	Caps       *OfferCaps       `json:"caps,omitempty"`
	Thresholds *OfferThresholds `json:"thresholds,omitempty"`
}

// Offer is one priced advance. Amount is a multiple of 100; all other
// monetary values are rounded to two decimals.
type Offer struct {
	Amount         float64 `json:"amount"`
	Fee            float64 `json:"fee"`
	TermDays       int     `json:"term_days"`
	Payback        float64 `json:"payback"`
	EstDaily       float64 `json:"est_daily"`
	BuyRate        float64 `json:"buy_rate,omitempty"`
	ExpectedMargin float64 `json:"expected_margin,omitempty"`
}
