// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointfield

import "fmt"

// TypeTag identifies the element type of one point field. The values
// are the sensor_msgs/PointField datatype constants and are part of
// the host message format.
type TypeTag uint8

const (
	Int8    TypeTag = 1
	Uint8   TypeTag = 2
	Int16   TypeTag = 3
	Uint16  TypeTag = 4
	Int32   TypeTag = 5
	Uint32  TypeTag = 6
	Float32 TypeTag = 7
	// Float64 is recognized by name but not supported by [Repack].
	Float64 TypeTag = 8
)

// String returns the lowercase type name, or "unknown(N)".
func (tag TypeTag) String() string {
	switch tag {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// Width returns the encoded size in bytes, or 0 for tags the repacker
// does not support.
func (tag TypeTag) Width() int {
	switch tag {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	default:
		return 0
	}
}

// Supported reports whether the repacker can copy fields of this type.
func (tag TypeTag) Supported() bool {
	return tag.Width() > 0
}

// Signed reports whether the type is a signed integer.
func (tag TypeTag) Signed() bool {
	return tag == Int8 || tag == Int16 || tag == Int32
}

// PCDType returns the PCD TYPE letter: "I" for signed integers, "U"
// for unsigned integers, "F" for floating point.
func (tag TypeTag) PCDType() string {
	switch {
	case tag == Float32 || tag == Float64:
		return "F"
	case tag.Signed():
		return "I"
	default:
		return "U"
	}
}

// ParseTypeTag parses a type name as returned by [TypeTag.String].
// The uppercase PointField constant names (FLOAT32, UINT8, ...) are
// accepted too. Unknown names yield an *[UnsupportedTypeError].
func ParseTypeTag(name string) (TypeTag, error) {
	switch name {
	case "int8", "INT8":
		return Int8, nil
	case "uint8", "UINT8":
		return Uint8, nil
	case "int16", "INT16":
		return Int16, nil
	case "uint16", "UINT16":
		return Uint16, nil
	case "int32", "INT32":
		return Int32, nil
	case "uint32", "UINT32":
		return Uint32, nil
	case "float32", "FLOAT32":
		return Float32, nil
	case "float64", "FLOAT64":
		return Float64, nil
	default:
		return 0, &UnsupportedTypeError{Field: -1, Name: name}
	}
}

// ParseFormat converts a single-character struct format code (as
// found in field descriptors that describe records by unpack format)
// into a type tag: B H I for unsigned, b h i for signed, f for
// float32, d for float64.
func ParseFormat(format string) (TypeTag, error) {
	switch format {
	case "B":
		return Uint8, nil
	case "H":
		return Uint16, nil
	case "I":
		return Uint32, nil
	case "b":
		return Int8, nil
	case "h":
		return Int16, nil
	case "i":
		return Int32, nil
	case "f":
		return Float32, nil
	case "d":
		return Float64, nil
	default:
		return 0, &UnsupportedTypeError{Field: -1, Name: format}
	}
}
