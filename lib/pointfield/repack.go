// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointfield

import (
	"encoding/binary"
	"math"
	"sync"
)

// field is one validated descriptor entry.
type field struct {
	offset int
	tag    TypeTag
	width  int
}

// Layout is a validated field descriptor for records of a fixed
// stride. A Layout is immutable and safe for concurrent use.
type Layout struct {
	fields      []field
	pointStep   int
	recordWidth int
}

// Repack copies the fields described by offsets and tags out of every
// whole record in buffer and packs them back to back, in descriptor
// order, as little-endian values. It is shorthand for [NewLayout]
// followed by [Layout.Repack].
func Repack(buffer []byte, offsets []int, tags []TypeTag, pointStep int) ([]byte, error) {
	layout, err := NewLayout(offsets, tags, pointStep)
	if err != nil {
		return nil, err
	}
	return layout.Repack(buffer)
}

// NewLayout validates a field descriptor. offsets[j] is the byte
// offset of field j inside a record and tags[j] its element type.
func NewLayout(offsets []int, tags []TypeTag, pointStep int) (*Layout, error) {
	if len(offsets) != len(tags) {
		return nil, &FieldMismatchError{Offsets: len(offsets), Types: len(tags)}
	}
	if pointStep <= 0 {
		return nil, &InvalidStrideError{PointStep: pointStep}
	}
	for j, tag := range tags {
		if !tag.Supported() {
			return nil, &UnsupportedTypeError{Field: j, Tag: tag}
		}
	}

	layout := &Layout{
		fields:    make([]field, len(tags)),
		pointStep: pointStep,
	}
	for j, tag := range tags {
		width := tag.Width()
		offset := offsets[j]
		if offset < 0 || offset > pointStep-width {
			return nil, &OutOfBoundsError{
				Field:     j,
				Record:    -1,
				Offset:    offset,
				Width:     width,
				PointStep: pointStep,
			}
		}
		layout.fields[j] = field{offset: offset, tag: tag, width: width}
		layout.recordWidth += width
	}
	return layout, nil
}

// PointStep returns the source record stride in bytes.
func (l *Layout) PointStep() int {
	return l.pointStep
}

// RecordWidth returns the size of one packed output record.
func (l *Layout) RecordWidth() int {
	return l.recordWidth
}

// RecordCount returns the number of whole records in a buffer of
// bufferLen bytes.
func (l *Layout) RecordCount(bufferLen int) int {
	return bufferLen / l.pointStep
}

// Tags returns the field types in output order.
func (l *Layout) Tags() []TypeTag {
	tags := make([]TypeTag, len(l.fields))
	for j, f := range l.fields {
		tags[j] = f.tag
	}
	return tags
}

// Repack packs every whole record of buffer. The result has
// RecordCount(len(buffer))*RecordWidth() bytes; buffer is not
// modified.
func (l *Layout) Repack(buffer []byte) ([]byte, error) {
	records := l.RecordCount(len(buffer))
	output := make([]byte, records*l.recordWidth)
	if err := l.packRange(output, buffer, 0, records); err != nil {
		return nil, err
	}
	return output, nil
}

// minRecordsPerWorker keeps goroutine overhead below the copy cost for
// small clouds.
const minRecordsPerWorker = 4096

// RepackParallel is [Layout.Repack] with the record range split into
// contiguous chunks packed by up to workers goroutines. Each chunk
// writes a disjoint region of the output, so the result is identical to
// the serial form.
func (l *Layout) RepackParallel(buffer []byte, workers int) ([]byte, error) {
	records := l.RecordCount(len(buffer))
	if workers > records/minRecordsPerWorker {
		workers = records / minRecordsPerWorker
	}
	if workers <= 1 {
		return l.Repack(buffer)
	}

	output := make([]byte, records*l.recordWidth)
	chunk := (records + workers - 1) / workers
	errs := make([]error, workers)

	var group sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		first := worker * chunk
		last := min(first+chunk, records)
		if first >= last {
			break
		}
		group.Add(1)
		go func() {
			defer group.Done()
			errs[worker] = l.packRange(output, buffer, first, last)
		}()
	}
	group.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return output, nil
}

// packRange packs records [first, last) into their slots of output.
func (l *Layout) packRange(output, buffer []byte, first, last int) error {
	position := first * l.recordWidth
	for record := first; record < last; record++ {
		base := record * l.pointStep
		for j, f := range l.fields {
			start := base + f.offset
			if start+f.width > len(buffer) {
				return &OutOfBoundsError{
					Field:     j,
					Record:    record,
					Offset:    f.offset,
					Width:     f.width,
					PointStep: l.pointStep,
					BufferLen: len(buffer),
				}
			}
			copyField(output[position:position+f.width], buffer[start:start+f.width], f.tag)
			position += f.width
		}
	}
	return nil
}

// copyField decodes one little-endian value of type tag from source
// and encodes it into destination. Both slices are exactly the type's
// width.
func copyField(destination, source []byte, tag TypeTag) {
	switch tag {
	case Uint8:
		destination[0] = source[0]
	case Int8:
		destination[0] = byte(int8(source[0]))
	case Uint16:
		binary.LittleEndian.PutUint16(destination, binary.LittleEndian.Uint16(source))
	case Int16:
		value := int16(binary.LittleEndian.Uint16(source))
		binary.LittleEndian.PutUint16(destination, uint16(value))
	case Uint32:
		binary.LittleEndian.PutUint32(destination, binary.LittleEndian.Uint32(source))
	case Int32:
		value := int32(binary.LittleEndian.Uint32(source))
		binary.LittleEndian.PutUint32(destination, uint32(value))
	case Float32:
		value := math.Float32frombits(binary.LittleEndian.Uint32(source))
		binary.LittleEndian.PutUint32(destination, math.Float32bits(value))
	}
}
