// internal/workers/decisioning/check-field-freshness/models.go
package checkfieldfreshness

import "uwizard-workers/internal/models"

type Input struct {
	MerchantID string                `json:"merchantId"`
	Fields     []string              `json:"fields,omitempty"`
	State      *models.MerchantState `json:"state,omitempty"`
}

type Output struct {
	Missing  []string `json:"missing"`
	Expired  []string `json:"expired"`
	Fresh    []string `json:"fresh"`
	Complete bool     `json:"complete"`
}
