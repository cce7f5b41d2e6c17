// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointfield

import (
	"encoding/binary"
	"math"
	"strconv"
)

// ReadFloat64 decodes the little-endian value of type tag at the start
// of raw, widened to float64. raw must hold at least tag.Width() bytes;
// unsupported tags return NaN.
func ReadFloat64(tag TypeTag, raw []byte) float64 {
	switch tag {
	case Uint8:
		return float64(raw[0])
	case Int8:
		return float64(int8(raw[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(raw))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(raw)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(raw))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(raw)))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	}
	return math.NaN()
}

// AppendText appends the decimal text of the value of type tag at the
// start of raw. Integers are written exactly; float32 values use the
// shortest representation that round-trips at 32-bit precision.
func AppendText(dst []byte, tag TypeTag, raw []byte) []byte {
	switch tag {
	case Uint8:
		return strconv.AppendUint(dst, uint64(raw[0]), 10)
	case Int8:
		return strconv.AppendInt(dst, int64(int8(raw[0])), 10)
	case Uint16:
		return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint16(raw)), 10)
	case Int16:
		return strconv.AppendInt(dst, int64(int16(binary.LittleEndian.Uint16(raw))), 10)
	case Uint32:
		return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint32(raw)), 10)
	case Int32:
		return strconv.AppendInt(dst, int64(int32(binary.LittleEndian.Uint32(raw))), 10)
	case Float32:
		value := math.Float32frombits(binary.LittleEndian.Uint32(raw))
		return strconv.AppendFloat(dst, float64(value), 'g', -1, 32)
	}
	return append(dst, "nan"...)
}
