// internal/decision/rules/catalog.go
package rules

import (
	"fmt"
	"sort"
	"sync"

	"uwizard-workers/internal/models"
)

// Catalog is the operator-editable rule store. Reads take a snapshot so an
// in-flight match never observes a partial mutation.
type Catalog struct {
	mu    sync.RWMutex
	rules []models.Rule
}

func NewCatalog(seed []models.Rule) *Catalog {
	c := &Catalog{rules: make([]models.Rule, len(seed))}
	copy(c.rules, seed)
	return c
}

// Snapshot returns a copy of the current rules for evaluation.
func (c *Catalog) Snapshot() []models.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Catalog) Get(id string) (models.Rule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.rules {
		if r.ID == id {
			return r, true
		}
	}
	return models.Rule{}, false
}

func (c *Catalog) Add(rule models.Rule) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.rules {
		if r.ID == rule.ID {
			return fmt.Errorf("rule %s already exists", rule.ID)
		}
	}
	c.rules = append(c.rules, rule)
	return nil
}

func (c *Catalog) Update(rule models.Rule) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rules {
		if r.ID == rule.ID {
			c.rules[i] = rule
			return nil
		}
	}
	return fmt.Errorf("rule %s not found", rule.ID)
}

func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rules {
		if r.ID == id {
			c.rules = append(c.rules[:i], c.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %s not found", id)
}

func (c *Catalog) SetEnabled(id string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rules {
		if r.ID == id {
			c.rules[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("rule %s not found", id)
}

// Reorder places the listed rules first, in the given order, then the
// remaining rules in their current priority order, and renumbers priorities
// to match the new sequence. Untouched rules keep their relative order.
func (c *Catalog) Reorder(orderedIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[string]int, len(c.rules))
	for i, r := range c.rules {
		byID[r.ID] = i
	}
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("rule %s not found", id)
		}
	}

	listed := make(map[string]bool, len(orderedIDs))
	reordered := make([]models.Rule, 0, len(c.rules))
	for _, id := range orderedIDs {
		if listed[id] {
			return fmt.Errorf("rule %s listed twice", id)
		}
		listed[id] = true
		reordered = append(reordered, c.rules[byID[id]])
	}

	rest := make([]models.Rule, 0, len(c.rules)-len(reordered))
	for _, r := range c.rules {
		if !listed[r.ID] {
			rest = append(rest, r)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Priority < rest[j].Priority })

	reordered = append(reordered, rest...)
	for i := range reordered {
		reordered[i].Priority = i + 1
	}
	c.rules = reordered
	return nil
}
