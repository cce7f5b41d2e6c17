// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pointfield repacks fixed-stride point records into a dense
// little-endian layout.
//
// A point cloud message carries its points as one byte buffer of
// consecutive records, each PointStep bytes long, with named fields at
// arbitrary offsets and possibly padding between them. Exporters want
// a subset of those fields packed back to back in a chosen order.
// [Repack] does exactly that:
//
//	packed, err := pointfield.Repack(data, []int{0, 4, 8, 16},
//	    []pointfield.TypeTag{pointfield.Float32, pointfield.Float32,
//	        pointfield.Float32, pointfield.Uint8}, 32)
//
// The output holds floor(len(data)/pointStep) records of
// sum(width) bytes each; trailing bytes that do not fill a whole record
// are ignored. The input buffer is never modified.
//
// Descriptors are validated before anything is allocated, in this
// order: list lengths ([FieldMismatchError]), stride
// ([InvalidStrideError]), type tags ([UnsupportedTypeError]), and
// field extents ([OutOfBoundsError]). A field must fit inside one
// record (offset+width <= pointStep), so a malformed descriptor fails
// deterministically instead of reading the neighbouring record. Every
// read is bounds-checked again against the buffer during the copy.
//
// [NewLayout] validates a descriptor once for reuse across many
// messages of the same topic; [Layout.RepackParallel] splits the
// records across goroutines and produces byte-identical output.
//
// [TypeTag] values are the sensor_msgs/PointField datatype codes, so
// host descriptors convert without a lookup table. FLOAT64 is a valid
// tag but is not supported by the repacker.
package pointfield
