// internal/workers/decisioning/render-template/models.go
package rendertemplate

import "uwizard-workers/internal/models"

type Input struct {
	MerchantID string                `json:"merchantId"`
	TemplateID string                `json:"templateId"`
	Persona    *models.Persona       `json:"persona,omitempty"`
	State      *models.MerchantState `json:"state,omitempty"`
}

type Output struct {
	TemplateID string `json:"templateId"`
	Text       string `json:"text"`
}
