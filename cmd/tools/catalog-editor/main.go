// cmd/tools/catalog-editor/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"uwizard-workers/internal/models"
	"uwizard-workers/pkg/catalog"
)

var catalogPath string

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	addTemplateCmd := flag.NewFlagSet("add-template", flag.ExitOnError)
	setRuleCmd := flag.NewFlagSet("set-rule", flag.ExitOnError)

	// Validate command flags
	validateCmd.StringVar(&catalogPath, "path", "configs/catalog.json", "Path to catalog file")

	// List command flags
	listCmd.StringVar(&catalogPath, "path", "configs/catalog.json", "Path to catalog file")

	// Add-template command flags
	addTemplateCmd.StringVar(&catalogPath, "path", "configs/catalog.json", "Path to catalog file")
	tplID := addTemplateCmd.String("id", "", "Template ID (e.g., ask_ein)")
	tplLabel := addTemplateCmd.String("label", "", "Display label")
	tplText := addTemplateCmd.String("text", "", "Template text with {{field.id}} tokens")

	// Set-rule command flags
	setRuleCmd.StringVar(&catalogPath, "path", "configs/catalog.json", "Path to catalog file")
	ruleID := setRuleCmd.String("id", "", "Rule ID to update")
	enabled := setRuleCmd.String("enabled", "", "Enable or disable the rule (true/false)")
	priority := setRuleCmd.String("priority", "", "New priority (lower matches first)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		doc, err := catalog.Load(catalogPath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d rules and %d templates.\n", len(doc.Rules), len(doc.Templates))

	case "list":
		listCmd.Parse(os.Args[2:])
		doc, err := catalog.Load(catalogPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog version %s (updated %s)\n\nRules:\n", doc.Version, doc.LastUpdated)
		for _, rule := range doc.Rules {
			state := "enabled"
			if !rule.Enabled {
				state = "disabled"
			}
			fmt.Printf("  [%3d] %-32s %s (%s)\n", rule.Priority, rule.ID, rule.Name, state)
		}
		fmt.Println("\nTemplates:")
		for _, tpl := range doc.Templates {
			fmt.Printf("  %-24s %s\n", tpl.ID, tpl.Label)
		}

	case "add-template":
		addTemplateCmd.Parse(os.Args[2:])
		if *tplID == "" || *tplText == "" {
			fmt.Println("Error: id and text are required for add-template.")
			addTemplateCmd.Usage()
			os.Exit(1)
		}
		err := addTemplate(models.Template{ID: *tplID, Label: *tplLabel, Text: *tplText})
		if err != nil {
			fmt.Printf("Error adding template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added template: %s\n", *tplID)

	case "set-rule":
		setRuleCmd.Parse(os.Args[2:])
		if *ruleID == "" || (*enabled == "" && *priority == "") {
			fmt.Println("Error: id plus enabled or priority are required for set-rule.")
			setRuleCmd.Usage()
			os.Exit(1)
		}
		err := setRule(*ruleID, *enabled, *priority)
		if err != nil {
			fmt.Printf("Error updating rule: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated rule: %s\n", *ruleID)

	case "help":
		fallthrough
	default:
		help()
	}
}

func addTemplate(tpl models.Template) error {
	doc, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	for _, existing := range doc.Templates {
		if existing.ID == tpl.ID {
			return fmt.Errorf("template with ID %s already exists", tpl.ID)
		}
	}

	doc.Templates = append(doc.Templates, tpl)
	doc.LastUpdated = time.Now().Format("2006-01-02")

	return saveCatalog(doc, catalogPath)
}

func setRule(id, enabled, priority string) error {
	doc, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	found := false
	for i := range doc.Rules {
		if doc.Rules[i].ID != id {
			continue
		}
		found = true
		if enabled != "" {
			val, err := strconv.ParseBool(enabled)
			if err != nil {
				return fmt.Errorf("invalid enabled value: %w", err)
			}
			doc.Rules[i].Enabled = val
		}
		if priority != "" {
			val, err := strconv.Atoi(priority)
			if err != nil {
				return fmt.Errorf("invalid priority value: %w", err)
			}
			if val < 1 {
				return fmt.Errorf("priority must be at least 1")
			}
			doc.Rules[i].Priority = val
		}
		break
	}

	if !found {
		return fmt.Errorf("rule with ID %s not found", id)
	}

	doc.LastUpdated = time.Now().Format("2006-01-02")
	return saveCatalog(doc, catalogPath)
}

// saveCatalog writes the document back and re-validates the result so a bad
// edit never lands on disk unnoticed.
func saveCatalog(doc *catalog.Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if _, err := catalog.Parse(data); err != nil {
		return fmt.Errorf("edited catalog failed validation: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	return nil
}

func help() {
	fmt.Print(`
Usage: catalog-editor <command> [flags]

Commands:
  validate      Validate the catalog file
  list          List all rules and templates
  add-template  Add a new message template
  set-rule      Enable/disable a rule or change its priority
  help          Show this help message

Examples:
  catalog-editor validate -path configs/catalog.json
  catalog-editor list
  catalog-editor add-template -id ask_ein -label "Ask for EIN" -text "What is your EIN?"
  catalog-editor set-rule -id dormant-follow-up -enabled false

Use 'catalog-editor <command> -h' for more information about a command.
`)
}
