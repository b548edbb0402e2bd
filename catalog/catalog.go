package catalog

import (
	"sort"

	"github.com/kbukum/starschema/errors"
)

// Catalog is an immutable registry of statement templates keyed by name.
type Catalog struct {
	templates map[string]Template
}

// New builds a catalog, rejecting unnamed and duplicate templates.
func New(templates ...Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if t.Name() == "" {
			return nil, errors.InvalidInput("template", "name is required")
		}
		if _, dup := c.templates[t.Name()]; dup {
			return nil, errors.AlreadyExists("template " + t.Name())
		}
		c.templates[t.Name()] = t
	}
	return c, nil
}

// Template returns the template registered under name.
func (c *Catalog) Template(name string) (Template, error) {
	t, ok := c.templates[name]
	if !ok {
		return Template{}, errors.UnknownTemplate(name)
	}
	return t, nil
}

// Lookup resolves names in order, failing on the first unknown one.
func (c *Catalog) Lookup(names ...string) ([]Template, error) {
	out := make([]Template, 0, len(names))
	for _, name := range names {
		t, err := c.Template(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Names returns all template names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }
