// Package yaml implements a hand-written parser and serializer for an
// indentation-driven block/flow configuration format.
//
// It covers block mappings and sequences driven by leading-space
// indentation, flow collections ([...] and {...}) via a recursive
// mini-parser, double/single-quoted scalars, literal (|) and folded (>)
// block scalars, comments, the document separator, and anchors (&name)
// with aliases (*name). Multi-document streams, tag directives, and
// comment preservation are out of scope.
//
// Aliases resolve to a deep copy of the anchored value, and only to
// anchors defined earlier in the same document; forward references are a
// parse error.
package yaml

import (
	"strconv"
	"strings"

	"github.com/dzjyyds666/cq/parse"
)

// Format is the registry metadata for this parser/serializer pair.
var Format = parse.Format{
	Name:       "yaml",
	Extensions: []string{"yaml", "yml"},
	Priority:   50,
}

// =========================
// Public API
// =========================

// Parse parses block/flow formatted input and returns its value tree.
// Empty or whitespace-only input parses to an empty array. Errors are
// *parse.Error values attributed to sourceName.
func Parse(content, sourceName string) (parse.Node, error) {
	lines, err := scanLines(content, sourceName)
	if err != nil {
		return nil, err
	}
	p := &parser{
		name:    sourceName,
		lines:   lines,
		anchors: make(map[string]parse.Node),
	}
	return p.parseDocument()
}

// =========================
// Line Scanning
// =========================

type line struct {
	no      int    // 1-based
	indent  int    // leading space count
	text    string // content after indentation, CR stripped
	blank   bool
	comment bool // full-line comment
}

func scanLines(content, name string) ([]line, error) {
	raw := strings.Split(content, "\n")
	out := make([]line, 0, len(raw))
	for i, s := range raw {
		s = strings.TrimSuffix(s, "\r")
		indent := 0
		for indent < len(s) && s[indent] == ' ' {
			indent++
		}
		if indent < len(s) && s[indent] == '\t' {
			if strings.TrimSpace(s) == "" {
				out = append(out, line{no: i + 1, blank: true})
				continue
			}
			return nil, parse.Errorf(name, i+1, "tab character in indentation")
		}
		text := s[indent:]
		out = append(out, line{
			no:      i + 1,
			indent:  indent,
			text:    text,
			blank:   strings.TrimSpace(text) == "",
			comment: strings.HasPrefix(text, "#"),
		})
	}
	return out, nil
}

// =========================
// Parser Implementation
// =========================

type parser struct {
	name    string
	lines   []line
	pos     int
	anchors map[string]parse.Node
	stack   []int // indents of the open block containers
}

func (p *parser) parseDocument() (parse.Node, error) {
	p.skipIgnorable()
	if p.pos >= len(p.lines) {
		return parse.NewArray(), nil
	}
	root, err := p.parseBlock(p.lines[p.pos].indent)
	if err != nil {
		return nil, err
	}
	p.skipIgnorable()
	if p.pos < len(p.lines) {
		l := p.lines[p.pos]
		return nil, parse.Errorf(p.name, l.no, "indentation does not match any enclosing block")
	}
	return root, nil
}

// skipIgnorable advances past blank lines, full-line comments, and the
// document separator.
func (p *parser) skipIgnorable() {
	for p.pos < len(p.lines) {
		l := p.lines[p.pos]
		if l.blank || l.comment || (l.indent == 0 && strings.TrimSpace(l.text) == "---") {
			p.pos++
			continue
		}
		break
	}
}

func (p *parser) parseBlock(indent int) (parse.Node, error) {
	p.stack = append(p.stack, indent)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	if isSequenceItem(p.lines[p.pos].text) {
		return p.parseSequence(indent)
	}
	return p.parseMapping(indent)
}

func (p *parser) enclosing(indent int) bool {
	for _, i := range p.stack {
		if i == indent {
			return true
		}
	}
	return false
}

func (p *parser) parseMapping(indent int) (parse.Node, error) {
	m := parse.NewMap()
	for {
		p.skipIgnorable()
		if p.pos >= len(p.lines) {
			break
		}
		l := p.lines[p.pos]
		if l.indent < indent {
			if !p.enclosing(l.indent) {
				return nil, parse.Errorf(p.name, l.no, "indentation does not match any enclosing block")
			}
			break
		}
		if l.indent > indent {
			return nil, parse.Errorf(p.name, l.no, "unexpected indentation")
		}
		if isSequenceItem(l.text) {
			return nil, parse.Errorf(p.name, l.no, "sequence item not allowed in mapping block")
		}
		idx := findKeyColon(l.text)
		if idx < 0 {
			return nil, parse.Errorf(p.name, l.no, "line is neither a key-value pair nor a sequence item")
		}
		key, err := p.decodeKey(l.text[:idx], l.no)
		if err != nil {
			return nil, err
		}
		p.pos++
		v, err := p.parseValue(l.text[idx+1:], l)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	return m, nil
}

func (p *parser) parseSequence(indent int) (parse.Node, error) {
	arr := parse.NewArray()
	for {
		p.skipIgnorable()
		if p.pos >= len(p.lines) {
			break
		}
		l := p.lines[p.pos]
		if l.indent < indent {
			if !p.enclosing(l.indent) {
				return nil, parse.Errorf(p.name, l.no, "indentation does not match any enclosing block")
			}
			break
		}
		if l.indent > indent {
			return nil, parse.Errorf(p.name, l.no, "unexpected indentation")
		}
		if !isSequenceItem(l.text) {
			return nil, parse.Errorf(p.name, l.no, "expected sequence item in sequence block")
		}
		v, err := p.parseItem(l)
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, v)
	}
	return arr, nil
}

// parseItem parses one "- ..." entry. Inline key-value content after the
// dash opens a nested mapping indented at the content column, so later
// lines at that column join the same mapping.
func (p *parser) parseItem(l line) (parse.Node, error) {
	after := l.text[1:]
	trimmed := strings.TrimLeft(after, " ")
	contentIndent := l.indent + 1 + (len(after) - len(trimmed))
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		p.pos++
		return p.parseValue("", l)
	}
	switch trimmed[0] {
	case '[', '{', '&', '*', '|', '>':
		p.pos++
		return p.parseValue(trimmed, l)
	}
	if strings.HasPrefix(trimmed, "- ") || trimmed == "-" {
		p.lines[p.pos] = line{no: l.no, indent: contentIndent, text: trimmed}
		return p.parseBlock(contentIndent)
	}
	if findKeyColon(trimmed) >= 0 {
		p.lines[p.pos] = line{no: l.no, indent: contentIndent, text: trimmed}
		return p.parseBlock(contentIndent)
	}
	p.pos++
	return p.parseValue(trimmed, l)
}

// parseValue parses the value portion of a key-value line or sequence
// item. An empty value means either a nested block on the following
// deeper lines or null.
func (p *parser) parseValue(raw string, l line) (parse.Node, error) {
	tok := stripInlineComment(raw)
	if tok == "" {
		p.skipIgnorable()
		if p.pos < len(p.lines) && p.lines[p.pos].indent > l.indent {
			return p.parseBlock(p.lines[p.pos].indent)
		}
		return parse.Null(), nil
	}
	if tok[0] == '&' {
		name, rest := splitAnchor(tok)
		if name == "" {
			return nil, parse.Errorf(p.name, l.no, "empty anchor name")
		}
		v, err := p.parseValue(rest, l)
		if err != nil {
			return nil, err
		}
		p.anchors[name] = v
		return v, nil
	}
	if tok[0] == '*' {
		return p.resolveAlias(tok, l.no)
	}
	if tok == "|" || tok == ">" {
		return p.parseBlockScalar(tok[0], l.indent)
	}
	if tok[0] == '[' || tok[0] == '{' {
		return p.parseFlow(tok, l.no)
	}
	if tok[0] == '"' || tok[0] == '\'' {
		s, rest, err := p.cutQuoted(tok, l.no)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rest) != "" {
			return nil, parse.Errorf(p.name, l.no, "unexpected content after closing quote")
		}
		return parse.String(s), nil
	}
	return parse.Coerce(tok), nil
}

func (p *parser) resolveAlias(tok string, ln int) (parse.Node, error) {
	name := tok[1:]
	if name == "" || strings.ContainsAny(name, " \t") {
		return nil, parse.Errorf(p.name, ln, "malformed alias %q", tok)
	}
	v, ok := p.anchors[name]
	if !ok {
		return nil, parse.Errorf(p.name, ln, "undefined alias *%s", name)
	}
	return parse.DeepCopy(v), nil
}

// =========================
// Block Scalars
// =========================

// parseBlockScalar consumes the lines of a | or > scalar: every following
// line that is blank or indented deeper than the declaring line. Content
// indentation is stripped relative to the first content line.
func (p *parser) parseBlockScalar(style byte, declIndent int) (parse.Node, error) {
	var collected []line
	for p.pos < len(p.lines) {
		l := p.lines[p.pos]
		if !l.blank && l.indent <= declIndent {
			break
		}
		collected = append(collected, l)
		p.pos++
	}
	for len(collected) > 0 && collected[len(collected)-1].blank {
		collected = collected[:len(collected)-1]
	}
	if len(collected) == 0 {
		return parse.String(""), nil
	}
	base := -1
	for _, l := range collected {
		if !l.blank {
			base = l.indent
			break
		}
	}
	content := make([]string, 0, len(collected))
	for _, l := range collected {
		if l.blank {
			content = append(content, "")
			continue
		}
		rel := l.indent - base
		if rel < 0 {
			rel = 0
		}
		content = append(content, strings.Repeat(" ", rel)+l.text)
	}
	if style == '|' {
		return parse.String(strings.Join(content, "\n")), nil
	}
	var b strings.Builder
	prevContent := false
	for _, t := range content {
		if t == "" {
			b.WriteByte('\n')
			prevContent = false
			continue
		}
		if prevContent {
			b.WriteByte(' ')
		}
		b.WriteString(t)
		prevContent = true
	}
	return parse.String(b.String()), nil
}

// =========================
// Flow Collections
// =========================

// parseFlow parses an inline [...] or {...} value. The whole token must
// be consumed; an unmatched bracket or trailing content is an error.
func (p *parser) parseFlow(s string, ln int) (parse.Node, error) {
	v, rest, err := p.parseFlowValue(s, ln, 0)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, parse.Errorf(p.name, ln, "unexpected content after flow collection")
	}
	return v, nil
}

func (p *parser) parseFlowValue(s string, ln, depth int) (parse.Node, string, error) {
	if depth > parse.MaxDepth {
		return nil, "", parse.Errorf(p.name, ln, "maximum nesting depth exceeded")
	}
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return nil, "", parse.Errorf(p.name, ln, "missing value in flow collection")
	}
	switch s[0] {
	case '[':
		return p.parseFlowSequence(s[1:], ln, depth)
	case '{':
		return p.parseFlowMapping(s[1:], ln, depth)
	case '"', '\'':
		str, rest, err := p.cutQuoted(s, ln)
		if err != nil {
			return nil, "", err
		}
		return parse.String(str), rest, nil
	}
	// Only , ] } end a plain scalar here; flow mapping keys scan for
	// their own ':' so URLs and timestamps survive as sequence elements.
	end := strings.IndexAny(s, ",]}")
	if end < 0 {
		end = len(s)
	}
	tok := strings.TrimSpace(s[:end])
	rest := s[end:]
	if strings.HasPrefix(tok, "*") {
		v, err := p.resolveAlias(tok, ln)
		return v, rest, err
	}
	return parse.Coerce(tok), rest, nil
}

func (p *parser) parseFlowSequence(s string, ln, depth int) (parse.Node, string, error) {
	arr := parse.NewArray()
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return nil, "", parse.Errorf(p.name, ln, "missing closing bracket in flow sequence")
		}
		if s[0] == ']' {
			return arr, s[1:], nil
		}
		v, rest, err := p.parseFlowValue(s, ln, depth+1)
		if err != nil {
			return nil, "", err
		}
		arr.Elems = append(arr.Elems, v)
		s = strings.TrimLeft(rest, " \t")
		if s == "" {
			return nil, "", parse.Errorf(p.name, ln, "missing closing bracket in flow sequence")
		}
		switch s[0] {
		case ',':
			s = s[1:]
		case ']':
			return arr, s[1:], nil
		default:
			return nil, "", parse.Errorf(p.name, ln, "unexpected character %q in flow sequence", s[0])
		}
	}
}

func (p *parser) parseFlowMapping(s string, ln, depth int) (parse.Node, string, error) {
	m := parse.NewMap()
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return nil, "", parse.Errorf(p.name, ln, "missing closing brace in flow mapping")
		}
		if s[0] == '}' {
			return m, s[1:], nil
		}
		var key string
		if s[0] == '"' || s[0] == '\'' {
			k, rest, err := p.cutQuoted(s, ln)
			if err != nil {
				return nil, "", err
			}
			key = k
			s = strings.TrimLeft(rest, " \t")
		} else {
			end := strings.IndexAny(s, ":,}")
			if end < 0 {
				return nil, "", parse.Errorf(p.name, ln, "missing closing brace in flow mapping")
			}
			key = strings.TrimSpace(s[:end])
			s = s[end:]
		}
		if s == "" || s[0] != ':' {
			return nil, "", parse.Errorf(p.name, ln, "missing ':' in flow mapping entry")
		}
		v, rest, err := p.parseFlowValue(s[1:], ln, depth+1)
		if err != nil {
			return nil, "", err
		}
		m.Set(key, v)
		s = strings.TrimLeft(rest, " \t")
		if s == "" {
			return nil, "", parse.Errorf(p.name, ln, "missing closing brace in flow mapping")
		}
		switch s[0] {
		case ',':
			s = s[1:]
		case '}':
			return m, s[1:], nil
		default:
			return nil, "", parse.Errorf(p.name, ln, "unexpected character %q in flow mapping", s[0])
		}
	}
}

// =========================
// Scalar Utilities
// =========================

func isSequenceItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

// findKeyColon returns the index of the first colon outside quotes, or -1
// when the line has no key-value shape before a comment starts.
func findKeyColon(s string) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inDouble {
			if ch == '\\' {
				i++
				continue
			}
			if ch == '"' {
				inDouble = false
			}
			continue
		}
		if inSingle {
			if ch == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inSingle = false
			}
			continue
		}
		switch ch {
		case '"':
			inDouble = true
		case '\'':
			inSingle = true
		case ':':
			return i
		case '#':
			if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
				return -1
			}
		}
	}
	return -1
}

// stripInlineComment drops a trailing "# ..." comment outside quotes and
// trims the remainder.
func stripInlineComment(s string) string {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inDouble {
			if ch == '\\' {
				i++
				continue
			}
			if ch == '"' {
				inDouble = false
			}
			continue
		}
		if inSingle {
			if ch == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inSingle = false
			}
			continue
		}
		switch ch {
		case '"':
			inDouble = true
		case '\'':
			inSingle = true
		case '#':
			if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s)
}

func splitAnchor(tok string) (name, rest string) {
	idx := strings.IndexAny(tok, " \t")
	if idx < 0 {
		return tok[1:], ""
	}
	return tok[1:idx], strings.TrimSpace(tok[idx:])
}

func (p *parser) decodeKey(raw string, ln int) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') {
		s, rest, err := p.cutQuoted(raw, ln)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(rest) != "" {
			return "", parse.Errorf(p.name, ln, "unexpected content after quoted key")
		}
		return s, nil
	}
	return raw, nil
}

// cutQuoted decodes the quoted string at the start of s and returns the
// decoded content plus the remainder after the closing quote.
// Double-quoted strings honor \n, \t, \\, \" and \uXXXX escapes;
// single-quoted strings treat '' as a literal quote and nothing else.
func (p *parser) cutQuoted(s string, ln int) (string, string, error) {
	quote := s[0]
	var b strings.Builder
	if quote == '\'' {
		for i := 1; i < len(s); i++ {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				return b.String(), s[i+1:], nil
			}
			b.WriteByte(s[i])
		}
		return "", "", parse.Errorf(p.name, ln, "unterminated single-quoted string")
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if ch == '"' {
			return b.String(), s[i+1:], nil
		}
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", "", parse.Errorf(p.name, ln, "unterminated double-quoted string")
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'u':
			if i+4 >= len(s) {
				return "", "", parse.Errorf(p.name, ln, "invalid unicode escape")
			}
			r, err := parseHexRune(s[i+1 : i+5])
			if err != nil {
				return "", "", parse.Errorf(p.name, ln, "invalid unicode escape")
			}
			b.WriteRune(r)
			i += 4
		default:
			return "", "", parse.Errorf(p.name, ln, "unsupported escape \\%c", s[i])
		}
	}
	return "", "", parse.Errorf(p.name, ln, "unterminated double-quoted string")
}

func parseHexRune(h string) (rune, error) {
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}
