package toml

import (
	"regexp"
	"strings"

	"github.com/dzjyyds666/cq/parse"
)

// Stringify renders a value tree as canonical section-based text. It is
// total: a nil or null top-level value yields an empty string, scalar
// keys come before section headers at every level, arrays of tables emit
// [[path]] headers, and other arrays print inline.
func Stringify(n parse.Node) string {
	if n == nil {
		return ""
	}
	if v, ok := n.(*parse.Value); ok && v.Type == parse.KindNull {
		return ""
	}
	root, ok := n.(*parse.Map)
	if !ok {
		return inlineValue(n) + "\n"
	}
	var b strings.Builder
	writeTable(&b, root, nil)
	return b.String()
}

func writeTable(b *strings.Builder, m *parse.Map, path []string) {
	type entry struct {
		key  string
		node parse.Node
	}
	var tables []entry
	var tableArrays []entry
	for _, k := range m.Keys() {
		child, _ := m.Get(k)
		switch v := child.(type) {
		case *parse.Map:
			tables = append(tables, entry{k, v})
		case *parse.Array:
			if isTableArray(v) {
				tableArrays = append(tableArrays, entry{k, v})
				continue
			}
			writeAssign(b, k, v)
		default:
			writeAssign(b, k, child)
		}
	}
	for _, e := range tables {
		childPath := extendPath(path, e.key)
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + headerPath(childPath) + "]\n")
		writeTable(b, e.node.(*parse.Map), childPath)
	}
	for _, e := range tableArrays {
		childPath := extendPath(path, e.key)
		for _, elem := range e.node.(*parse.Array).Elems {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("[[" + headerPath(childPath) + "]]\n")
			writeTable(b, elem.(*parse.Map), childPath)
		}
	}
}

func writeAssign(b *strings.Builder, key string, n parse.Node) {
	b.WriteString(keyText(key))
	b.WriteString(" = ")
	b.WriteString(inlineValue(n))
	b.WriteString("\n")
}

func inlineValue(n parse.Node) string {
	switch v := n.(type) {
	case *parse.Value:
		switch v.Type {
		case parse.KindBool:
			if v.V.(bool) {
				return "true"
			}
			return "false"
		case parse.KindNumber:
			return parse.FormatNumber(v.V.(float64))
		case parse.KindString:
			return quoteBasic(v.V.(string))
		default:
			// The table format has no null literal; an empty string is
			// the closest total rendering.
			return `""`
		}
	case *parse.Array:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = inlineValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *parse.Map:
		if v.Len() == 0 {
			return "{}"
		}
		parts := make([]string, 0, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			parts = append(parts, keyText(k)+" = "+inlineValue(child))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return `""`
}

// isTableArray reports whether every element is a table, in which case
// the array serializes as repeated [[path]] headers.
func isTableArray(a *parse.Array) bool {
	if len(a.Elems) == 0 {
		return false
	}
	for _, e := range a.Elems {
		if _, ok := e.(*parse.Map); !ok {
			return false
		}
	}
	return true
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func keyText(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return quoteBasic(k)
}

func headerPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = keyText(p)
	}
	return strings.Join(parts, ".")
}

func extendPath(path []string, key string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, key)
}

var basicEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
	"\n", "\\n",
	"\t", "\\t",
	"\r", "\\r",
)

func quoteBasic(s string) string {
	return "\"" + basicEscaper.Replace(s) + "\""
}
