package parse

import "strings"

// Format is the constant metadata each parser/serializer pair exposes to
// the format registry: a format identifier, the file extensions it
// recognizes, and a priority used to disambiguate overlapping extensions
// (higher wins). The registry consumes this; the core never reads it.
type Format struct {
	Name       string
	Extensions []string
	Priority   int
}

// Recognizes reports whether ext (with or without a leading dot) is one
// of the format's extensions.
func (f Format) Recognizes(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range f.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
