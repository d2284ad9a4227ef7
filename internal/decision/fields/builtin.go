// internal/decision/fields/builtin.go
package fields

import (
	"strconv"

	"uwizard-workers/internal/common/validation"
)

// Builtin returns the standard intake field catalog: business identity,
// owner identity, and contact channels.
func Builtin() *Registry {
	return NewRegistry([]Definition{
		{
			ID:         "business.legal_name",
			Label:      "Legal business name",
			Required:   true,
			ExpiryDays: ExpiryNever,
			Validate:   func(v string) bool { return len(v) >= 2 },
		},
		{
			ID:         "business.dba",
			Label:      "Doing business as",
			Required:   false,
			ExpiryDays: ExpiryNever,
		},
		{
			ID:         "business.ein",
			Label:      "Federal EIN",
			Required:   true,
			ExpiryDays: ExpiryNever,
			PII:        true,
			Validate:   validation.ValidateEIN,
		},
		{
			ID:         "business.address",
			Label:      "Business street address",
			Required:   true,
			ExpiryDays: 365,
			Validate:   func(v string) bool { return len(v) >= 5 },
		},
		{
			ID:         "business.city",
			Label:      "Business city",
			Required:   true,
			ExpiryDays: 365,
			Validate:   func(v string) bool { return len(v) >= 2 },
		},
		{
			ID:         "business.state",
			Label:      "Business state",
			Required:   true,
			ExpiryDays: 365,
			Validate:   validation.ValidateStateCode,
		},
		{
			ID:         "business.zip",
			Label:      "Business ZIP code",
			Required:   true,
			ExpiryDays: 365,
			Validate:   validation.ValidateZIP,
		},
		{
			ID:         "business.formation_date",
			Label:      "Business formation date",
			Required:   false,
			ExpiryDays: ExpiryNever,
			Validate:   validation.ValidateISODate,
		},
		{
			ID:         "owner.full_name",
			Label:      "Owner full name",
			Required:   true,
			ExpiryDays: ExpiryNever,
			PII:        true,
			Validate:   func(v string) bool { return len(v) >= 2 },
		},
		{
			ID:         "owner.dob",
			Label:      "Owner date of birth",
			Required:   true,
			ExpiryDays: ExpiryNever,
			PII:        true,
			Validate:   validation.ValidateISODate,
		},
		{
			ID:         "owner.ssn_last4",
			Label:      "Owner SSN last four",
			Required:   true,
			ExpiryDays: 180,
			PII:        true,
			Validate:   validation.ValidateSSNLast4,
		},
		{
			ID:         "owner.ownership_pct",
			Label:      "Owner ownership percentage",
			Required:   false,
			ExpiryDays: ExpiryNever,
			Validate: func(v string) bool {
				pct, err := strconv.ParseFloat(v, 64)
				return err == nil && pct > 0 && pct <= 100
			},
		},
		{
			ID:         "contact.phone",
			Label:      "Contact phone",
			Required:   true,
			ExpiryDays: 180,
			Validate:   validation.ValidatePhone,
		},
		{
			ID:         "contact.email",
			Label:      "Contact email",
			Required:   true,
			ExpiryDays: 180,
			Validate:   validation.ValidateEmail,
		},
		{
			ID:         "bank.statements_3m",
			Label:      "Last three months of bank statements",
			Required:   true,
			ExpiryDays: 90,
		},
	})
}
