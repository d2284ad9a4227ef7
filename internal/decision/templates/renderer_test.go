// internal/decision/templates/renderer_test.go
package templates

import (
	"testing"
	"time"

	"uwizard-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestCatalog() *Catalog {
	return NewCatalog([]models.Template{
		{ID: "greeting", Label: "Greeting", Text: "Hi {{business.legal_name}}, welcome back!"},
		{ID: "ask_ein", Label: "Ask EIN", Text: "We cannot proceed without your EIN. Please provide it."},
		{ID: "status_line", Label: "Status", Text: "Merchant {{merchant.id}} is {{merchant.status}}."},
		{ID: "celebrate", Label: "Celebrate", Text: "Great news 🎉 your offers are ready!"},
		{ID: "thanks", Label: "Thanks", Text: "Thanks, we will review your statements."},
	})
}

func newTestState() models.MerchantState {
	name := "Acme Coffee LLC"
	verified := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.MerchantState{
		MerchantID: "merchant-123",
		Status:     models.MerchantStatusExisting,
		Fields: map[string]models.FieldStatus{
			"business.legal_name": {Value: &name, LastVerifiedAt: &verified},
		},
	}
}

func neutralPersona() models.Persona {
	return models.Persona{
		Style:        models.StyleProfessional,
		ReadingLevel: models.Reading8th,
		Emoji:        models.EmojiMedium,
	}
}

// ==========================
// Token Resolution Tests
// ==========================

func TestRenderer_TokenResolution(t *testing.T) {
	renderer := NewRenderer(newTestCatalog())
	state := newTestState()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"field token", "Hi {{business.legal_name}}!", "Hi Acme Coffee LLC!"},
		{"synthetic status", "You are {{merchant.status}}.", "You are existing."},
		{"synthetic id", "Ref {{merchant.id}}", "Ref merchant-123"},
		{"unresolved token becomes empty", "EIN: {{business.ein}}.", "EIN: ."},
		{"unknown token becomes empty", "X{{foo.bar}}Y", "XY"},
		{"whitespace inside braces", "Hi {{ business.legal_name }}!", "Hi Acme Coffee LLC!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderer.RenderText(tt.text, state, neutralPersona()))
		})
	}
}

func TestRenderer_FieldMapShadowsSynthetic(t *testing.T) {
	renderer := NewRenderer(newTestCatalog())
	state := newTestState()

	// A stored field with a synthetic path name wins over the accessor.
	v := "overridden"
	state.Fields["merchant.status"] = models.FieldStatus{Value: &v}

	out := renderer.RenderText("{{merchant.status}}", state, neutralPersona())
	assert.Equal(t, "overridden", out)
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	renderer := NewRenderer(newTestCatalog())

	out := renderer.Render("no-such-template", newTestState(), neutralPersona())
	assert.Equal(t, `template "no-such-template" not found`, out)
}

func TestRenderer_EmptyStateNeverPanics(t *testing.T) {
	renderer := NewRenderer(newTestCatalog())
	empty := models.MerchantState{}

	for _, tpl := range newTestCatalog().All() {
		assert.NotPanics(t, func() {
			renderer.Render(tpl.ID, empty, models.DefaultPersona())
		})
	}
}

// ==========================
// Persona Style Tests
// ==========================

func TestApplyStyle(t *testing.T) {
	tests := []struct {
		name     string
		style    models.PersonaStyle
		text     string
		expected string
	}{
		{
			name:     "friendly contracts full forms",
			style:    models.StyleFriendly,
			text:     "We cannot proceed. You will hear from us.",
			expected: "We can't proceed. You'll hear from us.",
		},
		{
			name:     "professional expands contractions",
			style:    models.StyleProfessional,
			text:     "We can't proceed. You'll hear from us.",
			expected: "We cannot proceed. You will hear from us.",
		},
		{
			name:     "concise strips fillers",
			style:    models.StyleConcise,
			text:     "We really need you to just upload the statements.",
			expected: "We need you to upload the statements.",
		},
		{
			name:     "concise leaves clean text alone",
			style:    models.StyleConcise,
			text:     "Upload the statements.",
			expected: "Upload the statements.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, applyStyle(tt.text, tt.style))
		})
	}
}

// ==========================
// Reading Level Tests
// ==========================

func TestApplyReadingLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    models.ReadingLevel
		text     string
		expected string
	}{
		{
			name:     "6th grade simplifies",
			level:    models.Reading6th,
			text:     "We require additional assistance to verify your account.",
			expected: "We need more help to check your account.",
		},
		{
			name:     "10th grade elevates",
			level:    models.Reading10th,
			text:     "We need more help to check your account.",
			expected: "We require additional assistance to verify your account.",
		},
		{
			name:     "8th grade is a no-op",
			level:    models.Reading8th,
			text:     "We require additional assistance.",
			expected: "We require additional assistance.",
		},
		{
			name:     "whole words only",
			level:    models.Reading6th,
			text:     "The requirement stands.",
			expected: "The requirement stands.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, applyReadingLevel(tt.text, tt.level))
		})
	}
}

// ==========================
// Emoji Density Tests
// ==========================

func TestApplyEmojiDensity(t *testing.T) {
	tests := []struct {
		name     string
		density  models.EmojiDensity
		text     string
		expected string
	}{
		{
			name:     "low strips emoji and trims",
			density:  models.EmojiLow,
			text:     "Great news 🎉 your offers are ready!",
			expected: "Great news your offers are ready!",
		},
		{
			name:     "low trims trailing emoji",
			density:  models.EmojiLow,
			text:     "You're all set ✅",
			expected: "You're all set",
		},
		{
			name:     "medium leaves emoji untouched",
			density:  models.EmojiMedium,
			text:     "Great news 🎉",
			expected: "Great news 🎉",
		},
		{
			name:     "high decorates known phrases",
			density:  models.EmojiHigh,
			text:     "Thanks for the documents.",
			expected: "Thanks 🙏 for the documents.",
		},
		{
			name:     "high does not double decorate",
			density:  models.EmojiHigh,
			text:     "Thanks 🙏 for the documents.",
			expected: "Thanks 🙏 for the documents.",
		},
		{
			name:     "high leaves unknown text alone",
			density:  models.EmojiHigh,
			text:     "Your statement is due.",
			expected: "Your statement is due.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, applyEmojiDensity(tt.text, tt.density))
		})
	}
}

// ==========================
// Full Pipeline Tests
// ==========================

func TestRenderer_FullPipeline(t *testing.T) {
	renderer := NewRenderer(newTestCatalog())
	state := newTestState()

	persona := models.Persona{
		Style:        models.StyleFriendly,
		ReadingLevel: models.Reading8th,
		Emoji:        models.EmojiLow,
	}
	out := renderer.Render("celebrate", state, persona)
	assert.Equal(t, "Great news your offers are ready!", out)

	persona = models.Persona{
		Style:        models.StyleFriendly,
		ReadingLevel: models.Reading8th,
		Emoji:        models.EmojiMedium,
	}
	out = renderer.Render("thanks", state, persona)
	assert.Equal(t, "Thanks, we'll review your statements.", out)
}

// ==========================
// Catalog Mutation Tests
// ==========================

func TestCatalog_Mutations(t *testing.T) {
	cat := NewCatalog(nil)

	assert.NoError(t, cat.Add(models.Template{ID: "t1", Label: "One", Text: "one"}))
	assert.Error(t, cat.Add(models.Template{ID: "t1", Label: "Dup", Text: "dup"}))

	assert.NoError(t, cat.Update(models.Template{ID: "t1", Label: "One", Text: "updated"}))
	got, ok := cat.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, "updated", got.Text)

	assert.Error(t, cat.Update(models.Template{ID: "ghost"}))

	assert.NoError(t, cat.Delete("t1"))
	assert.Error(t, cat.Delete("t1"))
	assert.Empty(t, cat.All())
}
