package table

import "strings"

// Group is a base field together with its language variants.
type Group struct {
	Base string
	// Columns maps a language tag to the concrete column name.
	Columns map[string]string
	// Languages lists the tags in header order.
	Languages []string
}

// Column returns the column holding lang, if any.
func (g Group) Column(lang string) (string, bool) {
	c, ok := g.Columns[lang]
	return c, ok
}

// SplitColumn splits a column name at the last occurrence of sep into base
// field and language tag. Columns without sep are base columns.
func SplitColumn(name, sep string) (base, lang string, ok bool) {
	if sep == "" {
		return name, "", false
	}
	i := strings.LastIndex(name, sep)
	if i <= 0 || i+len(sep) >= len(name) {
		return name, "", false
	}
	return name[:i], name[i+len(sep):], true
}

// Groups enumerates the column groups of columns, in order of each base
// field's first appearance. Columns without a language tag are ignored.
func Groups(columns []string, sep string) []Group {
	var groups []Group
	pos := make(map[string]int)
	for _, col := range columns {
		base, lang, ok := SplitColumn(col, sep)
		if !ok {
			continue
		}
		i, seen := pos[base]
		if !seen {
			i = len(groups)
			pos[base] = i
			groups = append(groups, Group{Base: base, Columns: make(map[string]string)})
		}
		g := &groups[i]
		if _, dup := g.Columns[lang]; dup {
			continue
		}
		g.Columns[lang] = col
		g.Languages = append(g.Languages, lang)
	}
	return groups
}
