// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structval

import "fmt"

// Kind identifies the variant of a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindSequence
	KindMapping
)

// String returns the lowercase variant name.
func (kind Kind) String() string {
	switch kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Value is one node of a structured value tree. The set of
// implementations is closed: [Null], [Bool], [Int], [Float], [Text],
// [Sequence], and *[Mapping].
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Int is a 64-bit signed integer scalar.
type Int int64

// Float is a 64-bit floating point scalar.
type Float float64

// Text is a string scalar.
type Text string

// Sequence is an ordered list of values.
type Sequence []Value

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Float) Kind() Kind    { return KindFloat }
func (Text) Kind() Kind     { return KindText }
func (Sequence) Kind() Kind { return KindSequence }
func (*Mapping) Kind() Kind { return KindMapping }

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Float) isValue()    {}
func (Text) isValue()     {}
func (Sequence) isValue() {}
func (*Mapping) isValue() {}

// Entry is one key/value pair of a [Mapping].
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an insertion-ordered collection of uniquely keyed values.
// The zero value is an empty mapping ready to use.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping returns a mapping holding entries in the given order. A
// repeated key replaces the earlier value at the earlier position.
func NewMapping(entries ...Entry) *Mapping {
	mapping := &Mapping{}
	for _, entry := range entries {
		mapping.Set(entry.Key, entry.Value)
	}
	return mapping
}

// Set stores value under key. A new key is appended; an existing key
// keeps its position and takes the new value. A nil value is stored
// as [Null].
func (m *Mapping) Set(key string, value Value) {
	if value == nil {
		value = Null{}
	}
	if m.index == nil {
		m.index = make(map[string]int, len(m.entries)+1)
		for i, entry := range m.entries {
			m.index[entry.Key] = i
		}
	}
	if position, ok := m.index[key]; ok {
		m.entries[position].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	position, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[position].Value, true
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in insertion order. The returned slice
// is shared with the mapping and must not be modified.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, entry := range m.entries {
		keys[i] = entry.Key
	}
	return keys
}

// Equal reports whether a and b are the same tree. Mapping equality is
// order-sensitive. NaN floats compare equal to each other so that a
// tree always equals itself.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		bv := b.(Float)
		if av != av && bv != bv {
			return true
		}
		return av == bv
	case Text:
		return av == b.(Text)
	case Sequence:
		bv := b.(Sequence)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv := b.(*Mapping)
		if av.Len() != bv.Len() {
			return false
		}
		bEntries := bv.Entries()
		for i, entry := range av.Entries() {
			if entry.Key != bEntries[i].Key || !Equal(entry.Value, bEntries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
