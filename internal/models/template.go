// internal/models/template.go
package models

// Template is one catalog entry with {{token}} placeholders resolved at
// render time.
type Template struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}
