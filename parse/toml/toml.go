// Package toml implements a hand-written parser and serializer for a
// section-based table configuration format.
//
// It covers table headers ([a.b]) and array-of-tables headers ([[a.b]]),
// bare, quoted, and dotted keys, the four string styles (basic, literal,
// multi-line basic, multi-line literal), integers with underscores and
// 0x/0o/0b bases, floats, inf/nan, lowercase booleans, arrays spanning
// multiple lines, inline tables, and date/time-shaped tokens kept as raw
// strings. Comment preservation and byte-identical round-tripping are out
// of scope.
//
// Assignments are last-write-wins at the leaf level, and re-opening a
// plain table is allowed; only a path collision with a non-table value is
// an error. This keeps parsed trees merge-friendly.
package toml

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dzjyyds666/cq/parse"
)

// Format is the registry metadata for this parser/serializer pair.
var Format = parse.Format{
	Name:       "toml",
	Extensions: []string{"toml", "tml"},
	Priority:   40,
}

// =========================
// Public API
// =========================

// Parse parses table-formatted input and returns its value tree. The
// root is always a map; empty input parses to an empty map. Errors are
// *parse.Error values attributed to sourceName.
func Parse(content, sourceName string) (*parse.Map, error) {
	p := &parser{
		scanner: bufio.NewScanner(strings.NewReader(content)),
		name:    sourceName,
		root:    parse.NewMap(),
	}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	p.cur = p.root

	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		p.lineNo++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "["):
			if err := p.parseTableHeader(line); err != nil {
				return nil, err
			}
		default:
			idx := findUnquotedEqual(line)
			if idx < 0 {
				return nil, p.errf("line is neither a key-value pair nor a table header")
			}
			if err := p.parseKeyValue(line, idx); err != nil {
				return nil, err
			}
		}
	}

	if err := p.scanner.Err(); err != nil {
		return nil, parse.Errorf(sourceName, 0, "%s", err)
	}

	return p.root, nil
}

// =========================
// Parser Implementation
// =========================

type parser struct {
	scanner *bufio.Scanner
	name    string
	root    *parse.Map
	cur     *parse.Map // table the current path points at
	lineNo  int
}

func (p *parser) errf(format string, args ...any) *parse.Error {
	return parse.Errorf(p.name, p.lineNo, format, args...)
}

func (p *parser) parseTableHeader(line string) error {
	s := strings.TrimSpace(stripComment(line))
	isArray := strings.HasPrefix(s, "[[")
	if isArray {
		if !strings.HasSuffix(s, "]]") {
			return p.errf("missing closing bracket in array-of-tables header")
		}
	} else {
		if !strings.HasSuffix(s, "]") {
			return p.errf("missing closing bracket in table header")
		}
	}
	var name string
	if isArray {
		name = strings.TrimSpace(s[2 : len(s)-2])
	} else {
		name = strings.TrimSpace(s[1 : len(s)-1])
	}
	parts, err := parseKeyParts(name)
	if err != nil {
		return p.errf("%s", err)
	}
	if len(parts) == 0 {
		return p.errf("empty table header")
	}

	if !isArray {
		t, err := p.descend(p.root, parts)
		if err != nil {
			return err
		}
		p.cur = t
		return nil
	}

	parent, err := p.descend(p.root, parts[:len(parts)-1])
	if err != nil {
		return err
	}
	last := parts[len(parts)-1]
	var arr *parse.Array
	if existing, ok := parent.Get(last); ok {
		arr, ok = existing.(*parse.Array)
		if !ok {
			return p.errf("key %q already holds a non-array value", last)
		}
	} else {
		arr = parse.NewArray()
		parent.Set(last, arr)
	}
	tbl := parse.NewMap()
	arr.Elems = append(arr.Elems, tbl)
	p.cur = tbl
	return nil
}

// descend walks the key path from t, creating intermediate tables as
// needed. A segment holding an array of tables continues in its most
// recent element, so [a.b] after [[a]] lands inside the last a. Any
// other non-table value on the path is an error.
func (p *parser) descend(t *parse.Map, parts []string) (*parse.Map, error) {
	for _, part := range parts {
		n, ok := t.Get(part)
		if !ok {
			next := parse.NewMap()
			t.Set(part, next)
			t = next
			continue
		}
		switch v := n.(type) {
		case *parse.Map:
			t = v
		case *parse.Array:
			if len(v.Elems) == 0 {
				return nil, p.errf("key %q already holds a non-table value", part)
			}
			last, ok := v.Elems[len(v.Elems)-1].(*parse.Map)
			if !ok {
				return nil, p.errf("key %q already holds a non-table value", part)
			}
			t = last
		default:
			return nil, p.errf("key %q already holds a non-table value", part)
		}
	}
	return t, nil
}

func (p *parser) parseKeyValue(line string, idx int) error {
	key := strings.TrimSpace(line[:idx])
	val := strings.TrimSpace(line[idx+1:])

	parts, err := parseKeyParts(key)
	if err != nil {
		return p.errf("%s", err)
	}
	if len(parts) == 0 {
		return p.errf("missing key before '='")
	}

	t, err := p.descend(p.cur, parts[:len(parts)-1])
	if err != nil {
		return err
	}

	fullVal, err := p.consumeValue(val)
	if err != nil {
		return p.errf("%s", err)
	}
	v, err := parseValue(fullVal, 0)
	if err != nil {
		return p.errf("%s", err)
	}

	t.Set(parts[len(parts)-1], v)
	return nil
}

// consumeValue accumulates continuation lines for values that span more
// than one line: multi-line strings and unbalanced arrays/inline tables.
func (p *parser) consumeValue(initial string) (string, error) {
	sTrim := strings.TrimSpace(stripComment(initial))
	if sTrim == "" {
		return "", errors.New("missing value after '='")
	}
	if strings.HasPrefix(sTrim, `"""`) && !strings.Contains(sTrim[3:], `"""`) {
		return p.consumeUntil(initial, `"""`)
	}
	if strings.HasPrefix(sTrim, `'''`) && !strings.Contains(sTrim[3:], `'''`) {
		return p.consumeUntil(initial, `'''`)
	}
	if strings.HasPrefix(sTrim, "[") || strings.HasPrefix(sTrim, "{") {
		var q quoteState
		depth := q.bracketDelta(initial)
		var b strings.Builder
		b.WriteString(initial)
		for depth > 0 {
			if !p.scanner.Scan() {
				return "", errors.New("missing closing bracket in multi-line value")
			}
			line := p.scanner.Text()
			p.lineNo++
			b.WriteString("\n")
			b.WriteString(line)
			depth += q.bracketDelta(line)
		}
		return b.String(), nil
	}
	return initial, nil
}

// consumeUntil keeps appending lines until delim appears after the
// opening delimiter.
func (p *parser) consumeUntil(initial, delim string) (string, error) {
	var b strings.Builder
	b.WriteString(initial)
	for {
		if !p.scanner.Scan() {
			return "", fmt.Errorf("unterminated multi-line string (missing closing %s)", delim)
		}
		line := p.scanner.Text()
		p.lineNo++
		b.WriteString("\n")
		b.WriteString(line)
		if strings.Contains(b.String()[len(initial):], delim) {
			return b.String(), nil
		}
	}
}

// =========================
// Value Parsing
// =========================

func parseValue(s string, depth int) (parse.Node, error) {
	if depth > parse.MaxDepth {
		return nil, errors.New("maximum nesting depth exceeded")
	}
	s = strings.TrimSpace(stripComment(s))
	if s == "" {
		return nil, errors.New("missing value")
	}
	if strings.HasPrefix(s, `"""`) {
		content, ok := extractTripleQuoted(s, '"')
		if !ok {
			return nil, errors.New("unterminated multi-line basic string")
		}
		decoded, err := decodeBasicString(content, true)
		if err != nil {
			return nil, err
		}
		return parse.String(decoded), nil
	}
	if strings.HasPrefix(s, `'''`) {
		content, ok := extractTripleQuoted(s, '\'')
		if !ok {
			return nil, errors.New("unterminated multi-line literal string")
		}
		return parse.String(content), nil
	}
	if strings.HasPrefix(s, `"`) {
		content, ok := extractSingleQuoted(s, '"')
		if !ok {
			return nil, errors.New("unterminated basic string")
		}
		decoded, err := decodeBasicString(content, false)
		if err != nil {
			return nil, err
		}
		return parse.String(decoded), nil
	}
	if strings.HasPrefix(s, `'`) {
		content, ok := extractSingleQuoted(s, '\'')
		if !ok {
			return nil, errors.New("unterminated literal string")
		}
		return parse.String(content), nil
	}
	if strings.HasPrefix(s, "[") {
		return parseArrayToken(s, depth)
	}
	if strings.HasPrefix(s, "{") {
		return parseInlineTableToken(s, depth)
	}
	// Booleans are lowercase only, stricter than the block format's
	// plain-scalar coercion.
	if s == "true" || s == "false" {
		return parse.Bool(s == "true"), nil
	}
	if s == "inf" || s == "+inf" {
		return parse.Number(math.Inf(+1)), nil
	}
	if s == "-inf" {
		return parse.Number(math.Inf(-1)), nil
	}
	if strings.EqualFold(s, "nan") {
		return parse.Number(math.NaN()), nil
	}
	if isDateTimeToken(s) {
		return parse.String(s), nil
	}
	if i, err := parseIntToken(s); err == nil {
		return parse.Number(float64(i)), nil
	}
	if f, err := parseFloatToken(s); err == nil {
		return parse.Number(f), nil
	}
	return nil, fmt.Errorf("unrecognized value %q", s)
}

func parseArrayToken(s string, depth int) (parse.Node, error) {
	content := strings.TrimSpace(stripComment(s))
	if !strings.HasPrefix(content, "[") || !strings.HasSuffix(content, "]") {
		return nil, errors.New("missing closing bracket in array")
	}
	content = strings.TrimSpace(content[1 : len(content)-1])
	arr := parse.NewArray()
	for _, part := range splitTopLevel(content, ',') {
		if strings.TrimSpace(part) == "" {
			continue // trailing comma
		}
		v, err := parseValue(part, depth+1)
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, v)
	}
	return arr, nil
}

func parseInlineTableToken(s string, depth int) (parse.Node, error) {
	content := strings.TrimSpace(stripComment(s))
	if !strings.HasPrefix(content, "{") || !strings.HasSuffix(content, "}") {
		return nil, errors.New("missing closing brace in inline table")
	}
	inner := strings.TrimSpace(content[1 : len(content)-1])
	t := parse.NewMap()
	for _, pair := range splitTopLevel(inner, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := findUnquotedEqual(pair)
		if idx < 0 {
			return nil, errors.New("missing '=' in inline table entry")
		}
		parts, err := parseKeyParts(strings.TrimSpace(pair[:idx]))
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return nil, errors.New("missing key in inline table entry")
		}
		cur := t
		for i := 0; i < len(parts)-1; i++ {
			n, ok := cur.Get(parts[i])
			if !ok {
				next := parse.NewMap()
				cur.Set(parts[i], next)
				cur = next
				continue
			}
			next, ok := n.(*parse.Map)
			if !ok {
				return nil, fmt.Errorf("key %q already holds a non-table value", parts[i])
			}
			cur = next
		}
		v, err := parseValue(strings.TrimSpace(pair[idx+1:]), depth+1)
		if err != nil {
			return nil, err
		}
		cur.Set(parts[len(parts)-1], v)
	}
	return t, nil
}

// =========================
// Line Scanning Utilities
// =========================

// quoteState tracks whether a scan position is inside one of the four
// string styles, across line boundaries for multi-line values.
type quoteState struct {
	inBasic      bool
	inLiteral    bool
	basicMulti   bool
	literalMulti bool
}

// step consumes the token starting at i and returns the index of its
// last byte plus whether that token is quoted material (including the
// delimiters themselves).
func (q *quoteState) step(s string, i int) (int, bool) {
	ch := s[i]
	if q.inBasic {
		if ch == '\\' && i+1 < len(s) {
			return i + 1, true
		}
		if q.basicMulti {
			if strings.HasPrefix(s[i:], `"""`) {
				q.inBasic, q.basicMulti = false, false
				return i + 2, true
			}
		} else if ch == '"' {
			q.inBasic = false
		}
		return i, true
	}
	if q.inLiteral {
		if q.literalMulti {
			if strings.HasPrefix(s[i:], `'''`) {
				q.inLiteral, q.literalMulti = false, false
				return i + 2, true
			}
		} else if ch == '\'' {
			q.inLiteral = false
		}
		return i, true
	}
	if ch == '"' {
		if strings.HasPrefix(s[i:], `"""`) {
			q.inBasic, q.basicMulti = true, true
			return i + 2, true
		}
		q.inBasic = true
		return i, true
	}
	if ch == '\'' {
		if strings.HasPrefix(s[i:], `'''`) {
			q.inLiteral, q.literalMulti = true, true
			return i + 2, true
		}
		q.inLiteral = true
		return i, true
	}
	return i, false
}

// bracketDelta returns the net bracket/brace depth change of s, ignoring
// brackets inside strings. State carries across calls for multi-line
// values.
func (q *quoteState) bracketDelta(s string) int {
	d := 0
	for i := 0; i < len(s); i++ {
		j, quoted := q.step(s, i)
		if !quoted {
			switch s[i] {
			case '[', '{':
				d++
			case ']', '}':
				d--
			}
		}
		i = j
	}
	return d
}

// stripComment drops a '#' comment, preserving '#' inside strings.
func stripComment(s string) string {
	var q quoteState
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		j, quoted := q.step(s, i)
		if !quoted && s[i] == '#' {
			break
		}
		b.WriteString(s[i : j+1])
		i = j
	}
	return b.String()
}

// findUnquotedEqual returns the index of the first '=' outside strings.
func findUnquotedEqual(s string) int {
	var q quoteState
	for i := 0; i < len(s); i++ {
		j, quoted := q.step(s, i)
		if !quoted && s[i] == '=' {
			return i
		}
		i = j
	}
	return -1
}

// splitTopLevel splits s on sep at bracket depth zero, outside strings.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	var q quoteState
	for i := 0; i < len(s); i++ {
		j, quoted := q.step(s, i)
		if !quoted {
			switch s[i] {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
			if depth == 0 && s[i] == sep {
				parts = append(parts, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteString(s[i : j+1])
		i = j
	}
	if cur.Len() > 0 {
		parts = append(parts, strings.TrimSpace(cur.String()))
	}
	return parts
}

// parseKeyParts splits a bare, quoted, or dotted key into its segments.
// An empty bare segment (a.., a., a leading dot) is an error; a quoted
// segment may be empty and keeps its whitespace verbatim.
func parseKeyParts(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty key")
	}
	var parts []string
	var cur strings.Builder
	quoted := false
	inQuote := byte(0)
	escape := false
	flush := func() error {
		part := cur.String()
		if !quoted {
			part = strings.TrimSpace(part)
			if part == "" {
				return errors.New("empty key segment")
			}
		}
		parts = append(parts, part)
		cur.Reset()
		quoted = false
		return nil
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuote != 0 {
			if inQuote == '"' && ch == '\\' && !escape {
				escape = true
				continue
			}
			if escape {
				cur.WriteByte(ch)
				escape = false
				continue
			}
			if ch == inQuote {
				inQuote = 0
				continue
			}
			cur.WriteByte(ch)
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			if quoted || strings.TrimSpace(cur.String()) != "" {
				return nil, errors.New("quote in the middle of a bare key")
			}
			cur.Reset()
			inQuote = ch
			quoted = true
		case ch == '.':
			if err := flush(); err != nil {
				return nil, err
			}
		case quoted:
			if ch != ' ' && ch != '\t' {
				return nil, errors.New("unexpected content after quoted key")
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote != 0 {
		return nil, errors.New("unterminated quoted key")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return parts, nil
}

// =========================
// String Decoding
// =========================

func extractTripleQuoted(s string, quote byte) (string, bool) {
	delim := strings.Repeat(string(quote), 3)
	if len(s) < 6 || !strings.HasPrefix(s, delim) {
		return "", false
	}
	idx := strings.Index(s[3:], delim)
	if idx < 0 {
		return "", false
	}
	content := s[3 : 3+idx]
	if len(content) > 0 && content[0] == '\n' {
		content = content[1:]
	}
	return content, true
}

func extractSingleQuoted(s string, quote byte) (string, bool) {
	if len(s) < 2 || s[0] != quote || s[len(s)-1] != quote {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// decodeBasicString interprets backslash escapes. In multi-line strings
// a backslash at the end of a line eats the newline and following
// whitespace.
func decodeBasicString(s string, multiline bool) (string, error) {
	if multiline {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
				i++
				for i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\t') {
					i++
				}
				continue
			}
			b.WriteByte(s[i])
		}
		s = b.String()
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			out.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", errors.New("dangling backslash in basic string")
		}
		i++
		switch s[i] {
		case 'b':
			out.WriteByte('\b')
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'f':
			out.WriteByte('\f')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case 'u':
			if i+4 >= len(s) {
				return "", errors.New("invalid unicode escape")
			}
			r, err := parseHexRune(s[i+1 : i+5])
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			i += 4
		case 'U':
			if i+8 >= len(s) {
				return "", errors.New("invalid unicode escape")
			}
			r, err := parseHexRune(s[i+1 : i+9])
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			i += 8
		default:
			return "", fmt.Errorf("unsupported escape \\%c", s[i])
		}
	}
	return out.String(), nil
}

func parseHexRune(h string) (rune, error) {
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}

// =========================
// Number and Date Tokens
// =========================

// isDateTimeToken reports whether s is shaped like an offset or local
// date/time. Such tokens are accepted and kept as strings; they are not
// required to round-trip as a dedicated type.
func isDateTimeToken(s string) bool {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
		"15:04:05",
		"15:04:05.999999999",
	}
	for _, l := range layouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}

func parseIntToken(s string) (int64, error) {
	s = strings.ReplaceAll(s, "_", "")
	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0o"):
		base, s = 8, s[2:]
	case strings.HasPrefix(s, "0b"):
		base, s = 2, s[2:]
	}
	if base != 10 {
		v, err := strconv.ParseUint(s, base, 64)
		if err != nil {
			return 0, err
		}
		return int64(v) * sign, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return i * sign, nil
}

func parseFloatToken(s string) (float64, error) {
	s = strings.ReplaceAll(s, "_", "")
	return strconv.ParseFloat(s, 64)
}
