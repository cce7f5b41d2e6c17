// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

// lzfDecompress decodes an LZF block that expands to exactly size bytes.
func lzfDecompress(input []byte, size int) ([]byte, error) {
	errCorrupt := errors.New("corrupt LZF block")
	output := make([]byte, 0, size)
	for i := 0; i < len(input); {
		control := int(input[i])
		i++
		if control < lzfMaxLiteral {
			n := control + 1
			if i+n > len(input) || len(output)+n > size {
				return nil, errCorrupt
			}
			output = append(output, input[i:i+n]...)
			i += n
			continue
		}

		length := control >> 5
		if length == 7 {
			if i >= len(input) {
				return nil, errCorrupt
			}
			length += int(input[i])
			i++
		}
		if i >= len(input) {
			return nil, errCorrupt
		}
		distance := ((control&0x1f)<<8 | int(input[i])) + 1
		i++
		start := len(output) - distance
		if start < 0 || len(output)+length+2 > size {
			return nil, errCorrupt
		}
		for k := 0; k < length+2; k++ {
			output = append(output, output[start+k])
		}
	}
	if len(output) != size {
		return nil, errCorrupt
	}
	return output, nil
}

func TestLZFRoundtrip(t *testing.T) {
	random := make([]byte, 5000)
	source := rand.New(rand.NewPCG(1, 2))
	for i := range random {
		random[i] = byte(source.Uint32())
	}
	long := bytes.Repeat([]byte{0x42}, 10000)
	// Repeats within the 8 KiB back-reference window.
	near := append(append(bytes.Clone(random[:300]), random[:4000]...), random[:300]...)

	tests := []struct {
		name       string
		input      []byte
		compresses bool
	}{
		{"empty", nil, false},
		{"short", []byte("ab"), false},
		{"run", long, true},
		{"pattern", bytes.Repeat([]byte("x y z 1.5 "), 500), true},
		{"random", random, false},
		{"repeat in window", near, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := lzfCompress(tt.input)
			if tt.compresses && len(compressed) >= len(tt.input)/4 {
				t.Errorf("compressed %d bytes to %d", len(tt.input), len(compressed))
			}
			if limit := len(tt.input) + len(tt.input)/lzfMaxLiteral + 1; len(compressed) > limit {
				t.Errorf("compressed size %d exceeds bound %d", len(compressed), limit)
			}
			decoded, err := lzfDecompress(compressed, len(tt.input))
			if err != nil {
				t.Fatalf("lzfDecompress: %v", err)
			}
			if !bytes.Equal(decoded, tt.input) {
				t.Error("roundtrip changed the data")
			}
		})
	}
}
