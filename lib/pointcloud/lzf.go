// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointcloud

// LZF block compression as used by PCD "binary_compressed" bodies.
// A control byte below 32 starts a literal run of control+1 bytes.
// Otherwise the top three bits hold the match length minus two (7
// means a length byte follows) and the low five bits with the next
// byte hold the back-reference distance minus one.

const (
	lzfHashLog    = 14
	lzfMaxLiteral = 1 << 5
	lzfMaxOffset  = 1 << 13
	lzfMaxMatch   = (1 << 8) + (1 << 3)
)

func lzfHash(data []byte) uint32 {
	v := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
	return (v * 2654435761) >> (32 - lzfHashLog)
}

// lzfCompress returns the LZF encoding of input. Incompressible input
// grows by one byte per 32.
func lzfCompress(input []byte) []byte {
	output := make([]byte, 0, len(input)+len(input)/lzfMaxLiteral+1)
	table := make([]int, 1<<lzfHashLog)

	literalStart := 0
	flushLiterals := func(end int) {
		for literalStart < end {
			n := min(end-literalStart, lzfMaxLiteral)
			output = append(output, byte(n-1))
			output = append(output, input[literalStart:literalStart+n]...)
			literalStart += n
		}
	}

	position := 0
	for position+2 < len(input) {
		slot := lzfHash(input[position:])
		// Table entries are positions plus one; zero means empty.
		candidate := table[slot] - 1
		table[slot] = position + 1

		distance := position - candidate
		if candidate < 0 || distance > lzfMaxOffset ||
			input[candidate] != input[position] ||
			input[candidate+1] != input[position+1] ||
			input[candidate+2] != input[position+2] {
			position++
			continue
		}

		length := 3
		limit := min(lzfMaxMatch, len(input)-position)
		for length < limit && input[candidate+length] == input[position+length] {
			length++
		}

		flushLiterals(position)
		offset := distance - 1
		encoded := length - 2
		if encoded < 7 {
			output = append(output, byte(encoded<<5|offset>>8))
		} else {
			output = append(output, byte(7<<5|offset>>8), byte(encoded-7))
		}
		output = append(output, byte(offset))

		position += length
		literalStart = position
	}
	flushLiterals(len(input))
	return output
}
