// internal/workers/intake/upsert-field-state/models.go
package upsertfieldstate

type Input struct {
	MerchantID string  `json:"merchantId"`
	FieldID    string  `json:"fieldId"`
	Value      string  `json:"value"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type Output struct {
	Updated bool   `json:"updated"`
	FieldID string `json:"fieldId"`
}
