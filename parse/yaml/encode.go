package yaml

import (
	"strings"

	"github.com/dzjyyds666/cq/parse"
)

// Stringify renders a value tree as canonical block-style text with
// 2-space indentation. It is total: a nil or null top-level value yields
// an empty string. Output is not guaranteed byte-identical to the input
// the tree came from.
func Stringify(n parse.Node) string {
	if n == nil {
		return ""
	}
	if v, ok := n.(*parse.Value); ok {
		if v.Type == parse.KindNull {
			return ""
		}
		text, multiline := scalarText(v)
		if multiline {
			var b strings.Builder
			writeLiteralBlock(&b, "", text, 0)
			return b.String()
		}
		return text + "\n"
	}
	var b strings.Builder
	writeBlock(&b, n, 0)
	return b.String()
}

func writeBlock(b *strings.Builder, n parse.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	switch v := n.(type) {
	case *parse.Map:
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			b.WriteString(pad)
			b.WriteString(keyText(k))
			writeEntryValue(b, child, indent)
		}
	case *parse.Array:
		for _, child := range v.Elems {
			b.WriteString(pad)
			b.WriteString("-")
			writeEntryValue(b, child, indent)
		}
	}
}

// writeEntryValue writes the value side of a "key:" or "-" entry,
// choosing inline form for scalars and empty containers and a nested
// block for everything else.
func writeEntryValue(b *strings.Builder, n parse.Node, indent int) {
	switch v := n.(type) {
	case *parse.Map:
		if v.Len() == 0 {
			b.WriteString(" {}\n")
			return
		}
		b.WriteString("\n")
		writeBlock(b, v, indent+1)
	case *parse.Array:
		if len(v.Elems) == 0 {
			b.WriteString(" []\n")
			return
		}
		b.WriteString("\n")
		writeBlock(b, v, indent+1)
	case *parse.Value:
		text, multiline := scalarText(v)
		if multiline {
			writeLiteralBlock(b, " |", text, indent+1)
			return
		}
		b.WriteString(" ")
		b.WriteString(text)
		b.WriteString("\n")
	}
}

// writeLiteralBlock emits a string containing newlines in | style.
func writeLiteralBlock(b *strings.Builder, head, text string, indent int) {
	if head == "" {
		b.WriteString("|\n")
	} else {
		b.WriteString(head)
		b.WriteString("\n")
	}
	pad := strings.Repeat("  ", indent)
	for _, ln := range strings.Split(text, "\n") {
		b.WriteString(pad)
		b.WriteString(ln)
		b.WriteString("\n")
	}
}

// scalarText renders a scalar inline. The second return is true when the
// value contains newlines and must use a literal block instead.
func scalarText(v *parse.Value) (string, bool) {
	switch v.Type {
	case parse.KindNull:
		return "null", false
	case parse.KindBool:
		if v.V.(bool) {
			return "true", false
		}
		return "false", false
	case parse.KindNumber:
		return parse.FormatNumber(v.V.(float64)), false
	default:
		s := v.V.(string)
		if strings.Contains(s, "\n") {
			return s, true
		}
		if needsQuote(s) {
			return quoteString(s), false
		}
		return s, false
	}
}

// needsQuote reports whether a string scalar must be double-quoted to
// survive re-parsing: structural characters, surrounding whitespace, or
// tokens that would coerce to another scalar type.
func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	if strings.ContainsAny(s, ":#[]{},&*\"'") {
		return true
	}
	if s == "-" || strings.HasPrefix(s, "- ") {
		return true
	}
	if s[0] == '|' || s[0] == '>' {
		return true
	}
	return parse.Coerce(s).Kind() != parse.KindString
}

var stringEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
	"\n", "\\n",
	"\t", "\\t",
)

func quoteString(s string) string {
	return "\"" + stringEscaper.Replace(s) + "\""
}

func keyText(k string) string {
	if k == "" || strings.TrimSpace(k) != k || strings.ContainsAny(k, ":#\"'") || strings.HasPrefix(k, "- ") || k == "-" {
		return quoteString(k) + ":"
	}
	return k + ":"
}
