// internal/decision/templates/catalog.go
package templates

import (
	"fmt"
	"sync"

	"uwizard-workers/internal/models"
)

// Catalog is the message template store. Like the rule catalog, reads take a
// snapshot so rendering never sees a half-applied edit.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]models.Template
	order []string
}

func NewCatalog(seed []models.Template) *Catalog {
	c := &Catalog{byID: make(map[string]models.Template, len(seed))}
	for _, tpl := range seed {
		if _, dup := c.byID[tpl.ID]; !dup {
			c.order = append(c.order, tpl.ID)
		}
		c.byID[tpl.ID] = tpl
	}
	return c
}

func (c *Catalog) Get(id string) (models.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.byID[id]
	return tpl, ok
}

func (c *Catalog) Add(tpl models.Template) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[tpl.ID]; exists {
		return fmt.Errorf("template %s already exists", tpl.ID)
	}
	c.byID[tpl.ID] = tpl
	c.order = append(c.order, tpl.ID)
	return nil
}

func (c *Catalog) Update(tpl models.Template) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[tpl.ID]; !exists {
		return fmt.Errorf("template %s not found", tpl.ID)
	}
	c.byID[tpl.ID] = tpl
	return nil
}

func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[id]; !exists {
		return fmt.Errorf("template %s not found", id)
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Catalog) All() []models.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
