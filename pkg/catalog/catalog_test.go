package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwizard-workers/internal/models"
)

// ==========================
// Test Fixtures
// ==========================

const validDocument = `{
	"version": "1.0.0",
	"lastUpdated": "2025-07-01",
	"rules": [
		{
			"id": "collect-ein",
			"name": "Collect EIN from new merchants",
			"priority": 1,
			"enabled": true,
			"when": {
				"kind": "and",
				"conditions": [
					{"kind": "equals", "field": "merchant.status", "value": "new"},
					{"kind": "missingAny", "fields": ["business.ein"]}
				]
			},
			"then": [
				{"kind": "message", "templateId": "ask_ein"},
				{"kind": "ask", "fields": ["business.ein"]}
			]
		},
		{
			"id": "offer-ready",
			"name": "Generate offers when profile is complete",
			"priority": 2,
			"enabled": true,
			"when": {"kind": "notExpiredAll", "fields": ["business.ein", "owner.ssn_last4"]},
			"then": [{"kind": "generateOffers"}]
		}
	],
	"templates": [
		{"id": "ask_ein", "label": "Ask for EIN", "text": "What is your EIN, {{business.legal_name}}?"}
	]
}`

// ==========================
// Parse Tests
// ==========================

func TestParse_ValidDocument(t *testing.T) {
	doc, err := Parse([]byte(validDocument))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", doc.Version)
	require.Len(t, doc.Rules, 2)
	require.Len(t, doc.Templates, 1)

	and, ok := doc.Rules[0].When.(models.AndCondition)
	require.True(t, ok)
	assert.Len(t, and.Conditions, 2)

	msg, ok := doc.Rules[0].Then[0].(models.MessageAction)
	require.True(t, ok)
	assert.Equal(t, "ask_ein", msg.TemplateID)
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing version",
			doc:     `{"rules": [], "templates": []}`,
			wantErr: "catalog document invalid",
		},
		{
			name: "rule without condition kind",
			doc: `{"version": "1", "rules": [
				{"id": "r1", "name": "r1", "priority": 1, "when": {}, "then": [{"kind": "startPlaid"}]}
			], "templates": []}`,
			wantErr: "catalog document invalid",
		},
		{
			name: "unknown condition kind",
			doc: `{"version": "1", "rules": [
				{"id": "r1", "name": "r1", "priority": 1, "when": {"kind": "matchesRegex"}, "then": [{"kind": "startPlaid"}]}
			], "templates": []}`,
			wantErr: "unknown condition kind",
		},
		{
			name: "duplicate rule id",
			doc: `{"version": "1", "rules": [
				{"id": "r1", "name": "a", "priority": 1, "when": {"kind": "and", "conditions": []}, "then": [{"kind": "startPlaid"}]},
				{"id": "r1", "name": "b", "priority": 2, "when": {"kind": "and", "conditions": []}, "then": [{"kind": "startPlaid"}]}
			], "templates": []}`,
			wantErr: "duplicate rule id",
		},
		{
			name: "dangling template reference",
			doc: `{"version": "1", "rules": [
				{"id": "r1", "name": "a", "priority": 1, "when": {"kind": "and", "conditions": []}, "then": [{"kind": "message", "templateId": "nope"}]}
			], "templates": []}`,
			wantErr: "unknown template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Load Tests
// ==========================

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validDocument), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Rules, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

// ==========================
// Round-Trip Tests
// ==========================

func TestParse_RuleRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(validDocument))
	require.NoError(t, err)

	refs := doc.Rules[0].ReferencedTemplates()
	assert.Equal(t, []string{"ask_ein"}, refs)
	assert.Empty(t, doc.Rules[1].ReferencedTemplates())
}
