// internal/models/merchant.go
package models

import "time"

type MerchantStatus string

const (
	MerchantStatusNew      MerchantStatus = "new"
	MerchantStatusExisting MerchantStatus = "existing"
)

// Merchant carries the identity columns persisted in the merchants table.
type Merchant struct {
	ID        string         `json:"id"`
	LegalName string         `json:"legalName"`
	DBA       string         `json:"dba,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Email     string         `json:"email,omitempty"`
	EIN       string         `json:"ein,omitempty"`
	Address   string         `json:"address,omitempty"`
	City      string         `json:"city,omitempty"`
	State     string         `json:"state,omitempty"`
	Zip       string         `json:"zip,omitempty"`
	Status    MerchantStatus `json:"status"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// FieldStatus is the per-merchant view of one collectible field. A nil Value
// means the field was never collected; a nil LastVerifiedAt means the value
// can never be treated as expired.
type FieldStatus struct {
	Value          *string    `json:"value,omitempty"`
	LastVerifiedAt *time.Time `json:"lastVerifiedAt,omitempty"`
}

// MerchantState is the caller-owned snapshot both decision engines read.
// The engines never mutate it.
type MerchantState struct {
	MerchantID string                 `json:"merchantId"`
	Status     MerchantStatus         `json:"status"`
	Fields     map[string]FieldStatus `json:"fields"`
	Metrics    *Metrics               `json:"metrics,omitempty"`
}

// FieldValue returns the stored value for a field id, or "" when the
// field is missing.
func (s MerchantState) FieldValue(fieldID string) (string, bool) {
	st, ok := s.Fields[fieldID]
	if !ok || st.Value == nil {
		return "", false
	}
	return *st.Value, true
}

// FieldStateRecord mirrors one row of the field_states table.
type FieldStateRecord struct {
	MerchantID     string     `json:"merchantId"`
	FieldID        string     `json:"fieldId"`
	Value          string     `json:"value"`
	Source         string     `json:"source"`
	Confidence     float64    `json:"confidence"`
	LastVerifiedAt *time.Time `json:"lastVerifiedAt,omitempty"`
}
