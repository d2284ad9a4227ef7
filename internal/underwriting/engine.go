// internal/underwriting/engine.go
package underwriting

import (
	"math"

	"uwizard-workers/internal/models"
)

const (
	// Guardrail defaults. Exceeding either rejects the request outright.
	DefaultMaxNSF3M          = 3
	DefaultMaxNegativeDays3M = 6

	// DefaultPaybackToMonthlyRevCap bounds payback as a fraction of average
	// monthly revenue.
	DefaultPaybackToMonthlyRevCap = 0.25

	// MaxOffers limits how many tiers are emitted even when more are
	// configured.
	MaxOffers = 3

	revenueMultiple = 1.2
	balanceMultiple = 20.0
)

// DefaultTiers returns the standard three pricing points in ascending
// factor order.
func DefaultTiers() []models.OfferTier {
	return []models.OfferTier{
		{Factor: 0.6, Fee: 1.25, TermDays: 120},
		{Factor: 0.8, Fee: 1.30, TermDays: 140},
		{Factor: 1.0, Fee: 1.35, TermDays: 160},
	}
}

// Result wraps the priced offers with the inputs of the decision so callers
// can distinguish "rejected by guardrails" from "no tier passed the cap".
type Result struct {
	Offers          []models.Offer `json:"offers"`
	BaseAmount      float64        `json:"baseAmount"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}

// ProposeOffers turns financial metrics into at most MaxOffers ranked,
// capped advance offers. It is a pure function: deterministic, no I/O, safe
// for concurrent use.
func ProposeOffers(metrics models.Metrics, overrides *models.OfferOverrides) []models.Offer {
	return Propose(metrics, overrides).Offers
}

// Propose is ProposeOffers plus the base amount and rejection reason.
func Propose(metrics models.Metrics, overrides *models.OfferOverrides) Result {
	maxNSF := DefaultMaxNSF3M
	maxNegativeDays := DefaultMaxNegativeDays3M
	paybackCap := DefaultPaybackToMonthlyRevCap
	tiers := DefaultTiers()

	if overrides != nil {
		if overrides.Thresholds != nil {
			maxNSF = overrides.Thresholds.MaxNSF3M
			maxNegativeDays = overrides.Thresholds.MaxNegativeDays3M
		}
		if overrides.Caps != nil && overrides.Caps.PaybackToMonthlyRev > 0 {
			paybackCap = overrides.Caps.PaybackToMonthlyRev
		}
		if len(overrides.Tiers) > 0 {
			tiers = overrides.Tiers
		}
	}

	// Guardrail gate rejects everything, never partial offers.
	if metrics.TotalNSF3M > maxNSF {
		return Result{Offers: []models.Offer{}, RejectionReason: "NSF count exceeds guardrail"}
	}
	if metrics.TotalDaysNegative3M > maxNegativeDays {
		return Result{Offers: []models.Offer{}, RejectionReason: "negative balance days exceed guardrail"}
	}

	// The lesser of an income-based and a liquidity-based estimate bounds
	// exposure against thin-balance or low-revenue distortions.
	base := math.Min(metrics.AvgMonthlyRevenue*revenueMultiple, metrics.AvgDailyBalance3M*balanceMultiple)

	offers := make([]models.Offer, 0, MaxOffers)
	for _, tier := range tiers {
		if len(offers) >= MaxOffers {
			break
		}
		amount := roundToNearest100(base * tier.Factor)
		payback := round2(amount * tier.Fee)

		// Affordability cap. Zero revenue skips the check to avoid dividing
		// by zero; product review pending on whether that should reject.
		if metrics.AvgMonthlyRevenue > 0 && payback/metrics.AvgMonthlyRevenue > paybackCap {
			continue
		}

		offer := models.Offer{
			Amount:   amount,
			Fee:      tier.Fee,
			TermDays: tier.TermDays,
			Payback:  payback,
			EstDaily: round2(payback / float64(tier.TermDays)),
		}
		if tier.BuyRate > 0 {
			marginRate := math.Max(0, tier.Fee-tier.BuyRate)
			offer.BuyRate = tier.BuyRate
			offer.ExpectedMargin = round2(amount * marginRate)
		}
		offers = append(offers, offer)
	}

	return Result{Offers: offers, BaseAmount: round2(base)}
}

func roundToNearest100(v float64) float64 {
	return math.Round(v/100) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
