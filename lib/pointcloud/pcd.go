// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bureau-foundation/unbag/lib/pointfield"
)

// Encoding selects the PCD body format.
type Encoding string

const (
	// EncodingASCII writes one space-separated line per point.
	EncodingASCII Encoding = "ascii"
	// EncodingBinary writes the packed records verbatim.
	EncodingBinary Encoding = "binary"
	// EncodingBinaryCompressed writes the records field by field (all
	// values of the first field, then the second, ...) as one LZF
	// block behind little-endian u32 compressed and uncompressed sizes.
	EncodingBinaryCompressed Encoding = "binary_compressed"
)

// ParseEncoding parses a PCD DATA value.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(name) {
	case EncodingASCII, EncodingBinary, EncodingBinaryCompressed:
		return Encoding(name), nil
	default:
		return "", fmt.Errorf("unsupported PCD encoding %q (want ascii, binary or binary_compressed)", name)
	}
}

// WritePCD writes the cloud as a PCD v0.7 file containing the named
// fields (all fields when names is empty).
func WritePCD(w io.Writer, cloud *Cloud, encoding Encoding, names ...string) error {
	if _, err := ParseEncoding(string(encoding)); err != nil {
		return err
	}
	projection, err := cloud.Project(names...)
	if err != nil {
		return err
	}
	packed, err := projection.Repack(cloud)
	if err != nil {
		return err
	}

	points := projection.Layout.RecordCount(len(cloud.Data))
	width, height := uint64(cloud.Width), uint64(cloud.Height)
	if width*height != uint64(points) {
		width, height = uint64(points), 1
	}

	var fieldNames, sizes, types, counts []string
	for _, field := range projection.Fields {
		fieldNames = append(fieldNames, field.Name)
		sizes = append(sizes, strconv.Itoa(field.Datatype.Width()))
		types = append(types, field.Datatype.PCDType())
		counts = append(counts, strconv.Itoa(field.count()))
	}

	buffered := bufio.NewWriter(w)
	fmt.Fprintf(buffered, "# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(buffered, "VERSION 0.7\n")
	fmt.Fprintf(buffered, "FIELDS %s\n", strings.Join(fieldNames, " "))
	fmt.Fprintf(buffered, "SIZE %s\n", strings.Join(sizes, " "))
	fmt.Fprintf(buffered, "TYPE %s\n", strings.Join(types, " "))
	fmt.Fprintf(buffered, "COUNT %s\n", strings.Join(counts, " "))
	fmt.Fprintf(buffered, "WIDTH %d\n", width)
	fmt.Fprintf(buffered, "HEIGHT %d\n", height)
	fmt.Fprintf(buffered, "VIEWPOINT 0 0 0 1 0 0 0\n")
	fmt.Fprintf(buffered, "POINTS %d\n", points)
	fmt.Fprintf(buffered, "DATA %s\n", encoding)

	switch encoding {
	case EncodingBinary:
		buffered.Write(packed)
	case EncodingBinaryCompressed:
		if err := writeCompressedBody(buffered, packed, projection, points); err != nil {
			return err
		}
	case EncodingASCII:
		writeRecordLines(buffered, packed, projection.Layout)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("writing PCD: %w", err)
	}
	return nil
}

// writeCompressedBody writes the binary_compressed body: the packed
// records transposed to field-major order, LZF-compressed.
func writeCompressedBody(w *bufio.Writer, packed []byte, projection *Projection, points int) error {
	if uint64(len(packed)) > 0xFFFFFFFF {
		return fmt.Errorf("PCD body of %d bytes exceeds binary_compressed size limit", len(packed))
	}
	recordWidth := projection.Layout.RecordWidth()
	columns := make([]byte, 0, len(packed))
	fieldOffset := 0
	for _, field := range projection.Fields {
		size := field.Datatype.Width() * field.count()
		for point := 0; point < points; point++ {
			start := point*recordWidth + fieldOffset
			columns = append(columns, packed[start:start+size]...)
		}
		fieldOffset += size
	}

	compressed := lzfCompress(columns)
	var sizes [8]byte
	binary.LittleEndian.PutUint32(sizes[0:4], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(sizes[4:8], uint32(len(columns)))
	w.Write(sizes[:])
	w.Write(compressed)
	return nil
}

// writeRecordLines writes each packed record as one line of
// space-separated values.
func writeRecordLines(w *bufio.Writer, packed []byte, layout *pointfield.Layout) {
	tags := layout.Tags()
	recordWidth := layout.RecordWidth()
	line := make([]byte, 0, 16*len(tags))
	for start := 0; start+recordWidth <= len(packed) && recordWidth > 0; start += recordWidth {
		line = line[:0]
		position := start
		for j, tag := range tags {
			if j > 0 {
				line = append(line, ' ')
			}
			line = pointfield.AppendText(line, tag, packed[position:])
			position += tag.Width()
		}
		line = append(line, '\n')
		w.Write(line)
	}
}

// WriteXYZ writes one "x y z" line per point. The cloud must have x, y
// and z fields.
func WriteXYZ(w io.Writer, cloud *Cloud) error {
	projection, err := cloud.Project("x", "y", "z")
	if err != nil {
		return err
	}
	for _, field := range projection.Fields {
		if field.count() != 1 {
			return fmt.Errorf("xyz export: field %q has %d elements", field.Name, field.count())
		}
	}
	packed, err := projection.Repack(cloud)
	if err != nil {
		return err
	}

	buffered := bufio.NewWriter(w)
	writeRecordLines(buffered, packed, projection.Layout)
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("writing xyz: %w", err)
	}
	return nil
}
