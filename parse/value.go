// Package parse defines the value tree shared by the format parsers and
// serializers: a small tagged union of null, bool, number, string, array,
// and insertion-ordered map. Each Parse call produces one tree it
// exclusively owns; trees carry no back-references and no I/O.
package parse

import "strconv"

// MaxDepth bounds recursive nesting of flow collections, arrays, and
// inline tables in both format parsers. Exceeding it is a parse error,
// never a stack overflow.
const MaxDepth = 1000

// =========================
// Tree Definitions
// =========================

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
)

type Node interface {
	Kind() Kind
}

// -------- Scalar --------

// Value is a scalar leaf. Numbers are stored as float64; integral values
// are represented exactly up to 2^53.
type Value struct {
	Type Kind
	V    any
}

func (v *Value) Kind() Kind { return v.Type }

func Null() *Value { return &Value{Type: KindNull} }

func Bool(b bool) *Value { return &Value{Type: KindBool, V: b} }

func Number(f float64) *Value { return &Value{Type: KindNumber, V: f} }

func String(s string) *Value { return &Value{Type: KindString, V: s} }

// -------- Array --------

type Array struct {
	Elems []Node
}

func NewArray(elems ...Node) *Array {
	return &Array{Elems: append(make([]Node, 0, len(elems)), elems...)}
}

func (*Array) Kind() Kind { return KindArray }

// -------- Map --------

// Map preserves key insertion order. Setting an existing key replaces the
// value in place without moving the key.
type Map struct {
	keys  []string
	items map[string]Node
}

func NewMap() *Map {
	return &Map{items: make(map[string]Node)}
}

func (*Map) Kind() Kind { return KindMap }

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) Keys() []string { return m.keys }

func (m *Map) Get(key string) (Node, bool) {
	n, ok := m.items[key]
	return n, ok
}

func (m *Map) Set(key string, v Node) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// =========================
// Tree Operations
// =========================

// DeepCopy returns an independent copy of n. Alias resolution relies on
// this so that mutating a resolved alias cannot alter its anchor origin.
func DeepCopy(n Node) Node {
	switch v := n.(type) {
	case *Value:
		return &Value{Type: v.Type, V: v.V}
	case *Array:
		out := &Array{Elems: make([]Node, len(v.Elems))}
		for i := range v.Elems {
			out.Elems[i] = DeepCopy(v.Elems[i])
		}
		return out
	case *Map:
		out := NewMap()
		for _, k := range v.keys {
			out.Set(k, DeepCopy(v.items[k]))
		}
		return out
	default:
		return nil
	}
}

// =========================
// Safe Access Helpers
// =========================

// Get walks a tree by path segments. Map segments are keys; Array
// segments are decimal indexes.
func Get(root Node, path ...string) (Node, bool) {
	cur := root
	for _, seg := range path {
		if len(seg) == 0 {
			continue
		}
		switch c := cur.(type) {
		case *Map:
			n, ok := c.Get(seg)
			if !ok {
				return nil, false
			}
			cur = n
		case *Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c.Elems) {
				return nil, false
			}
			cur = c.Elems[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func GetUntyped(root Node, path ...string) (any, bool) {
	n, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	return ToUntyped(n), true
}

func ToUntyped(n Node) any {
	switch v := n.(type) {
	case *Value:
		return v.V
	case *Array:
		out := make([]any, len(v.Elems))
		for i := range v.Elems {
			out[i] = ToUntyped(v.Elems[i])
		}
		return out
	case *Map:
		m := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			m[k] = ToUntyped(v.items[k])
		}
		return m
	default:
		return nil
	}
}

func MustString(n Node) string {
	v := n.(*Value)
	return v.V.(string)
}

func MustInt(n Node) int64 {
	v := n.(*Value)
	return int64(v.V.(float64))
}

func MustFloat(n Node) float64 {
	v := n.(*Value)
	return v.V.(float64)
}

func MustBool(n Node) bool {
	v := n.(*Value)
	return v.V.(bool)
}
