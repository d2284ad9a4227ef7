// pkg/catalog/schema.go
package catalog

import "uwizard-workers/internal/models"

// Document is the on-disk catalog format: the versioned rule set and message
// templates an operator edits and the workers load at startup.
type Document struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Rules       []models.Rule     `json:"rules"`
	Templates   []models.Template `json:"templates"`
}

// documentSchema validates the structural shape of a catalog document before
// unmarshalling. Condition and action bodies are checked during decode, where
// the kind discriminator picks the concrete type.
const documentSchema = `{
	"type": "object",
	"required": ["version", "rules", "templates"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"rules": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "priority", "when", "then"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"priority": {"type": "integer", "minimum": 1},
					"enabled": {"type": "boolean"},
					"when": {
						"type": "object",
						"required": ["kind"],
						"properties": {"kind": {"type": "string", "minLength": 1}}
					},
					"then": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["kind"],
							"properties": {"kind": {"type": "string", "minLength": 1}}
						}
					}
				}
			}
		},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "text"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"label": {"type": "string"},
					"text": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`
