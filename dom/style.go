package dom

import (
	"strings"
	"unicode"
)

// ClassList returns the element's classes in attribute order, deduplicated.
func (d *Document) ClassList(id NodeID) []string {
	v, _ := d.GetAttribute(id, "class")
	var out []string
	for _, c := range strings.Fields(v) {
		if !containsString(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Document) setClassList(id NodeID, classes []string) {
	d.SetAttribute(id, "class", strings.Join(classes, " "))
}

// AddClass adds classes not already present.
func (d *Document) AddClass(id NodeID, classes ...string) {
	list := d.ClassList(id)
	for _, c := range classes {
		if !containsString(list, c) {
			list = append(list, c)
		}
	}
	d.setClassList(id, list)
}

// RemoveClass removes classes if present.
func (d *Document) RemoveClass(id NodeID, classes ...string) {
	if !d.HasAttribute(id, "class") {
		return
	}
	var kept []string
	for _, c := range d.ClassList(id) {
		if !containsString(classes, c) {
			kept = append(kept, c)
		}
	}
	d.setClassList(id, kept)
}

// ToggleClass flips class and reports whether it is now present. force,
// when non-nil, selects add or remove.
func (d *Document) ToggleClass(id NodeID, class string, force *bool) bool {
	has := containsString(d.ClassList(id), class)
	want := !has
	if force != nil {
		want = *force
	}
	if want && !has {
		d.AddClass(id, class)
	} else if !want && has {
		d.RemoveClass(id, class)
	}
	return want
}

// HasClass reports whether the element carries class.
func (d *Document) HasClass(id NodeID, class string) bool {
	return containsString(d.ClassList(id), class)
}

// StyleDecl is one inline style declaration.
type StyleDecl struct {
	Property string
	Value    string
}

// InlineStyle parses the style attribute into declarations in order.
func (d *Document) InlineStyle(id NodeID) []StyleDecl {
	v, _ := d.GetAttribute(id, "style")
	var out []StyleDecl
	for _, part := range strings.Split(v, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		replaced := false
		for i := range out {
			if out[i].Property == name {
				out[i].Value = value
				replaced = true
			}
		}
		if !replaced {
			out = append(out, StyleDecl{Property: name, Value: value})
		}
	}
	return out
}

// GetStyle returns an inline style property; name may be camelCase.
func (d *Document) GetStyle(id NodeID, name string) string {
	prop := CamelToKebab(name)
	for _, decl := range d.InlineStyle(id) {
		if decl.Property == prop {
			return decl.Value
		}
	}
	return ""
}

// SetStyle sets or, for an empty value, removes an inline style property.
func (d *Document) SetStyle(id NodeID, name, value string) {
	prop := CamelToKebab(name)
	decls := d.InlineStyle(id)
	out := decls[:0]
	found := false
	for _, decl := range decls {
		if decl.Property == prop {
			found = true
			if value == "" {
				continue
			}
			decl.Value = value
		}
		out = append(out, decl)
	}
	if !found && value != "" {
		out = append(out, StyleDecl{Property: prop, Value: value})
	}
	if len(out) == 0 {
		d.RemoveAttribute(id, "style")
		return
	}
	parts := make([]string, len(out))
	for i, decl := range out {
		parts[i] = decl.Property + ": " + decl.Value + ";"
	}
	d.SetAttribute(id, "style", strings.Join(parts, " "))
}

// Dataset returns data-* attributes keyed by their camelCase names.
func (d *Document) Dataset(id NodeID) []Attr {
	var out []Attr
	n := d.Node(id)
	if n == nil {
		return nil
	}
	for _, a := range n.Attrs {
		if strings.HasPrefix(a.Name, "data-") {
			out = append(out, Attr{Name: KebabToCamel(a.Name[5:]), Value: a.Value})
		}
	}
	return out
}

// DataAttributeName maps a dataset key to its attribute name.
func DataAttributeName(key string) string {
	return "data-" + CamelToKebab(key)
}

// CamelToKebab converts backgroundColor to background-color.
func CamelToKebab(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KebabToCamel converts user-id to userId.
func KebabToCamel(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
