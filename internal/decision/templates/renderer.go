// internal/decision/templates/renderer.go
package templates

import (
	"fmt"
	"regexp"

	"uwizard-workers/internal/models"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Renderer resolves {{token}} placeholders against merchant state and applies
// the persona transform pipeline. Rendering is total: unknown templates yield
// a descriptive string and unresolved tokens become empty, never a panic.
type Renderer struct {
	catalog    *Catalog
	synthetics map[string]func(models.MerchantState) string
}

func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{
		catalog: catalog,
		synthetics: map[string]func(models.MerchantState) string{
			"merchant.status": func(s models.MerchantState) string { return string(s.Status) },
			"merchant.id":     func(s models.MerchantState) string { return s.MerchantID },
		},
	}
}

func (r *Renderer) Render(templateID string, state models.MerchantState, persona models.Persona) string {
	tpl, ok := r.catalog.Get(templateID)
	if !ok {
		return fmt.Sprintf("template %q not found", templateID)
	}
	return r.RenderText(tpl.Text, state, persona)
}

// RenderText runs the pipeline over raw template text: token substitution,
// then style, reading level, and emoji density in that order.
func (r *Renderer) RenderText(text string, state models.MerchantState, persona models.Persona) string {
	out := tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		token := tokenPattern.FindStringSubmatch(match)[1]
		return r.resolveToken(token, state)
	})

	out = applyStyle(out, persona.Style)
	out = applyReadingLevel(out, persona.ReadingLevel)
	out = applyEmojiDensity(out, persona.Emoji)
	return out
}

// resolveToken checks the merchant field map first, then the synthetic
// accessors. Unresolved tokens render as empty, never as the literal token.
func (r *Renderer) resolveToken(token string, state models.MerchantState) string {
	if v, ok := state.FieldValue(token); ok {
		return v
	}
	if resolve, ok := r.synthetics[token]; ok {
		return resolve(state)
	}
	return ""
}
