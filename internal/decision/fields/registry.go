// internal/decision/fields/registry.go
package fields

import (
	"time"

	"uwizard-workers/internal/models"
)

// ExpiryNever marks a field whose value never goes stale. Any window at or
// above this sentinel disables the expiry check.
const ExpiryNever = 100 * 365

// Definition describes one collectible data field. Definitions are built
// once at startup and never mutated.
type Definition struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Required   bool              `json:"required"`
	ExpiryDays int               `json:"expiryDays"`
	PII        bool              `json:"pii,omitempty"`
	Validate   func(string) bool `json:"-"`
}

// Registry is a read-only catalog of field definitions keyed by dotted id.
type Registry struct {
	defs  map[string]Definition
	order []string
}

func NewRegistry(defs []Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.ID]; !dup {
			r.order = append(r.order, d.ID)
		}
		r.defs[d.ID] = d
	}
	return r
}

// Lookup returns the definition for a field id. Unknown ids report ok=false
// and are treated as not-required and never satisfied.
func (r *Registry) Lookup(id string) (Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

func (r *Registry) IsRequired(id string) bool {
	d, ok := r.defs[id]
	return ok && d.Required
}

// IsExpired reports whether a stored field value is stale. A field with no
// value or no verification timestamp is never expired; neither is a field
// whose window carries the never sentinel or an unknown field id.
func (r *Registry) IsExpired(id string, status models.FieldStatus, now time.Time) bool {
	d, ok := r.defs[id]
	if !ok {
		return false
	}
	if status.Value == nil || status.LastVerifiedAt == nil {
		return false
	}
	if d.ExpiryDays >= ExpiryNever {
		return false
	}
	window := time.Duration(d.ExpiryDays) * 24 * time.Hour
	return now.Sub(*status.LastVerifiedAt) > window
}

// ValidateValue runs the field's syntactic validator. Unknown field ids are
// never satisfied; fields without a validator accept any value.
func (r *Registry) ValidateValue(id, raw string) bool {
	d, ok := r.defs[id]
	if !ok {
		return false
	}
	if d.Validate == nil {
		return true
	}
	return d.Validate(raw)
}

// All returns definitions in registration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}
