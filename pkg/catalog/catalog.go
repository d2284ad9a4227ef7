// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads, validates, and decodes a catalog document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a catalog document from raw JSON.
func Parse(data []byte) (*Document, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := checkReferences(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("catalog document invalid: %s", strings.Join(problems, "; "))
}

// checkReferences catches duplicate ids and rules pointing at templates the
// document does not carry.
func checkReferences(doc *Document) error {
	templateIDs := make(map[string]bool, len(doc.Templates))
	for _, tpl := range doc.Templates {
		if templateIDs[tpl.ID] {
			return fmt.Errorf("duplicate template id %q", tpl.ID)
		}
		templateIDs[tpl.ID] = true
	}

	ruleIDs := make(map[string]bool, len(doc.Rules))
	for _, rule := range doc.Rules {
		if ruleIDs[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		ruleIDs[rule.ID] = true

		for _, tplID := range rule.ReferencedTemplates() {
			if !templateIDs[tplID] {
				return fmt.Errorf("rule %q references unknown template %q", rule.ID, tplID)
			}
		}
	}
	return nil
}
