package catalog

import (
	"regexp"
	"strings"

	"github.com/kbukum/starschema/errors"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a named SQL statement with {name} placeholders.
type Template struct {
	name         string
	text         string
	placeholders []string
}

// NewTemplate parses the placeholders of text once so Render stays cheap.
func NewTemplate(name, text string) Template {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return Template{name: name, text: text, placeholders: names}
}

// Name returns the catalog name of the template.
func (t Template) Name() string { return t.name }

// Text returns the raw statement text.
func (t Template) Text() string { return t.text }

// Placeholders returns placeholder names in order of first appearance.
func (t Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// IsZero reports whether t was never constructed.
func (t Template) IsZero() bool { return t.name == "" && t.text == "" }

// Render substitutes every placeholder with its bound value.
// Unused params are ignored and values are inserted verbatim.
func Render(t Template, params map[string]string) (string, error) {
	if len(t.placeholders) == 0 {
		return t.text, nil
	}
	for _, name := range t.placeholders {
		if _, ok := params[name]; !ok {
			return "", errors.MissingPlaceholder(t.name, name)
		}
	}
	var b strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(t.text, -1) {
		b.WriteString(t.text[last:loc[0]])
		b.WriteString(params[t.text[loc[2]:loc[3]]])
		last = loc[1]
	}
	b.WriteString(t.text[last:])
	return b.String(), nil
}
