// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structval

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FromAny converts a Go value into a structured value tree.
//
// Recognized inputs are Value itself, nil, bool, signed and unsigned
// integers, float32/float64, string, slices and arrays, maps, and
// pointers or interfaces to any of these. Map keys that are not
// strings are converted with their fmt display form; because Go maps
// are unordered, their entries are sorted by the converted key. When
// two keys convert to the same text (1 and "1" in a map[any]any), the
// entry whose key type name sorts last wins.
// Unsigned integers above math.MaxInt64 become [Float]. Byte slices
// are sequences of integers like any other slice.
//
// Any other input (structs, channels, functions) is converted to
// [Null] rather than rejected.
func FromAny(input any) Value {
	switch typed := input.(type) {
	case nil:
		return Null{}
	case Value:
		if mapping, ok := typed.(*Mapping); ok && mapping == nil {
			return Null{}
		}
		return typed
	case bool:
		return Bool(typed)
	case int:
		return Int(typed)
	case int8:
		return Int(typed)
	case int16:
		return Int(typed)
	case int32:
		return Int(typed)
	case int64:
		return Int(typed)
	case uint8:
		return Int(typed)
	case uint16:
		return Int(typed)
	case uint32:
		return Int(typed)
	case uint:
		return fromUnsigned(uint64(typed))
	case uint64:
		return fromUnsigned(typed)
	case float32:
		return Float(typed)
	case float64:
		return Float(typed)
	case string:
		return Text(typed)
	case []any:
		sequence := make(Sequence, len(typed))
		for i, element := range typed {
			sequence[i] = FromAny(element)
		}
		return sequence
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		mapping := &Mapping{}
		for _, key := range keys {
			mapping.Set(key, FromAny(typed[key]))
		}
		return mapping
	}
	return fromReflect(reflect.ValueOf(input))
}

func fromUnsigned(value uint64) Value {
	if value > math.MaxInt64 {
		return Float(value)
	}
	return Int(value)
}

func fromReflect(value reflect.Value) Value {
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return Null{}
		}
		return FromAny(value.Elem().Interface())
	case reflect.Bool:
		return Bool(value.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUnsigned(value.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(value.Float())
	case reflect.String:
		return Text(value.String())
	case reflect.Slice:
		if value.IsNil() {
			return Null{}
		}
		return fromList(value)
	case reflect.Array:
		return fromList(value)
	case reflect.Map:
		if value.IsNil() {
			return Null{}
		}
		type pair struct {
			key   string
			order string
			value reflect.Value
		}
		pairs := make([]pair, 0, value.Len())
		iterator := value.MapRange()
		for iterator.Next() {
			key, entry := iterator.Key(), iterator.Value()
			pairs = append(pairs, pair{
				key:   displayKey(key),
				order: tieBreak(key, entry),
				value: entry,
			})
		}
		// Map iteration order is random, so colliding keys need a
		// total order or Set would keep an arbitrary one.
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].key != pairs[j].key {
				return pairs[i].key < pairs[j].key
			}
			return pairs[i].order < pairs[j].order
		})
		mapping := &Mapping{}
		for _, entry := range pairs {
			mapping.Set(entry.key, FromAny(entry.value.Interface()))
		}
		return mapping
	}
	return Null{}
}

func fromList(value reflect.Value) Value {
	sequence := make(Sequence, value.Len())
	for i := range sequence {
		sequence[i] = FromAny(value.Index(i).Interface())
	}
	return sequence
}

// tieBreak orders entries whose keys share a display form: by key type
// name, then by the Go syntax of the key and the value (NaN keys of
// one type differ only in their values).
func tieBreak(key, value reflect.Value) string {
	if key.Kind() == reflect.Interface && !key.IsNil() {
		key = key.Elem()
	}
	return fmt.Sprintf("%s\x00%#v\x00%#v", key.Type(), key.Interface(), value.Interface())
}

// displayKey renders a map key as text. String kinds are used as-is
// so that named string types do not pick up a Stringer rendering.
func displayKey(key reflect.Value) string {
	if key.Kind() == reflect.Interface && !key.IsNil() {
		key = key.Elem()
	}
	if key.Kind() == reflect.String {
		return key.String()
	}
	return fmt.Sprint(key.Interface())
}
