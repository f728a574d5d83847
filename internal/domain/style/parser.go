// Package style converts free-form inline style text into camelCase
// declarations and back.
package style

import (
	"regexp"
	"sort"
	"strings"
)

// Declarations maps camelCase property names to raw values, the shape a
// React-style `style` prop expects.
type Declarations map[string]string

var importantPattern = regexp.MustCompile(`(?i)\s*!\s*important`)

// Parse reads a `property: value;` block. Declarations without a colon, or
// with an empty property or value, are dropped. Property names are not
// checked against any list of known properties.
func Parse(text string) Declarations {
	decls := make(Declarations)
	if strings.TrimSpace(text) == "" {
		return decls
	}

	for _, raw := range strings.Split(text, ";") {
		property, value, found := strings.Cut(raw, ":")
		if !found {
			continue
		}

		property = strings.TrimSpace(property)
		value = strings.TrimSpace(importantPattern.ReplaceAllString(value, ""))
		if property == "" || value == "" {
			continue
		}

		decls[CamelCase(property)] = value
	}

	return decls
}

// CamelCase turns a kebab-case property into its camelCase form:
// background-color -> backgroundColor, -webkit-mask -> WebkitMask.
// Custom properties (--name) are returned untouched.
func CamelCase(property string) string {
	if strings.HasPrefix(property, "--") {
		return property
	}

	property = strings.ToLower(property)
	var b strings.Builder
	b.Grow(len(property))
	upper := false
	for i := 0; i < len(property); i++ {
		c := property[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

// KebabCase is the inverse of CamelCase.
func KebabCase(property string) string {
	if strings.HasPrefix(property, "--") {
		return property
	}

	var b strings.Builder
	b.Grow(len(property) + 4)
	for i := 0; i < len(property); i++ {
		c := property[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('-')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Merge returns a copy of d with every declaration of top applied over it.
func (d Declarations) Merge(top Declarations) Declarations {
	merged := make(Declarations, len(d)+len(top))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range top {
		merged[k] = v
	}
	return merged
}

// Without returns a copy of d with the named properties removed.
func (d Declarations) Without(properties ...string) Declarations {
	out := make(Declarations, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, p := range properties {
		delete(out, p)
	}
	return out
}

// CSS renders the declarations as inline style text with sorted,
// kebab-case property names.
func (d Declarations) CSS() string {
	if len(d) == 0 {
		return ""
	}

	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, KebabCase(k)+": "+d[k]+";")
	}
	return strings.Join(parts, " ")
}
