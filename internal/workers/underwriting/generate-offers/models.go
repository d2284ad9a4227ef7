// internal/workers/underwriting/generate-offers/models.go
package generateoffers

import "uwizard-workers/internal/models"

type Input struct {
	MerchantID string                 `json:"merchantId"`
	Metrics    *models.Metrics        `json:"metrics,omitempty"`
	Overrides  *models.OfferOverrides `json:"overrides,omitempty"`
	Persist    *bool                  `json:"persist,omitempty"`
}

type Output struct {
	Offers          []models.Offer `json:"offers"`
	BaseAmount      float64        `json:"baseAmount"`
	Rejected        bool           `json:"rejected"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}
