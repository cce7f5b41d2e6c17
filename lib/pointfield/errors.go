// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointfield

import (
	"errors"
	"fmt"
)

// FieldMismatchError reports offset and type lists of different
// lengths.
type FieldMismatchError struct {
	Offsets int
	Types   int
}

func (err *FieldMismatchError) Error() string {
	return fmt.Sprintf("pointfield: %d offsets but %d type tags", err.Offsets, err.Types)
}

// InvalidStrideError reports a point step that is zero or negative.
type InvalidStrideError struct {
	PointStep int
}

func (err *InvalidStrideError) Error() string {
	return fmt.Sprintf("pointfield: point step must be positive, got %d", err.PointStep)
}

// OutOfBoundsError reports a field whose bytes do not lie inside its
// record, or inside the buffer during the copy. Record is -1 when the
// descriptor itself was rejected before any record was read.
type OutOfBoundsError struct {
	Field     int
	Record    int
	Offset    int
	Width     int
	PointStep int
	BufferLen int
}

func (err *OutOfBoundsError) Error() string {
	if err.Record < 0 {
		return fmt.Sprintf("pointfield: field %d at offset %d with width %d does not fit in point step %d",
			err.Field, err.Offset, err.Width, err.PointStep)
	}
	start := err.Record*err.PointStep + err.Offset
	return fmt.Sprintf("pointfield: record %d field %d reads bytes [%d, %d) beyond buffer of %d bytes",
		err.Record, err.Field, start, start+err.Width, err.BufferLen)
}

// UnsupportedTypeError reports a type tag the repacker cannot copy.
// Field is -1 when the error comes from parsing a type name rather
// than from a descriptor; Name then holds the rejected text.
type UnsupportedTypeError struct {
	Field int
	Tag   TypeTag
	Name  string
}

func (err *UnsupportedTypeError) Error() string {
	name := err.Name
	if name == "" {
		name = err.Tag.String()
	}
	if err.Field < 0 {
		return fmt.Sprintf("pointfield: unsupported point field type %q", name)
	}
	return fmt.Sprintf("pointfield: field %d: unsupported point field type %s", err.Field, name)
}

// IsFieldMismatch reports whether err is a *FieldMismatchError.
func IsFieldMismatch(err error) bool {
	var target *FieldMismatchError
	return errors.As(err, &target)
}

// IsInvalidStride reports whether err is an *InvalidStrideError.
func IsInvalidStride(err error) bool {
	var target *InvalidStrideError
	return errors.As(err, &target)
}

// IsOutOfBounds reports whether err is an *OutOfBoundsError.
func IsOutOfBounds(err error) bool {
	var target *OutOfBoundsError
	return errors.As(err, &target)
}

// IsUnsupportedType reports whether err is an *UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	var target *UnsupportedTypeError
	return errors.As(err, &target)
}
