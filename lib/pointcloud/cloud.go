// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"fmt"

	"github.com/bureau-foundation/unbag/lib/pointfield"
)

// Field describes one named field of a point record.
type Field struct {
	Name     string             `cbor:"name"`
	Offset   int                `cbor:"offset"`
	Datatype pointfield.TypeTag `cbor:"datatype"`
	// Count is the number of consecutive elements. Zero is treated
	// as one.
	Count int `cbor:"count"`
}

func (f Field) count() int {
	if f.Count < 1 {
		return 1
	}
	return f.Count
}

// Cloud is a point cloud message as handed over by the export host.
type Cloud struct {
	Height      uint32  `cbor:"height"`
	Width       uint32  `cbor:"width"`
	Fields      []Field `cbor:"fields"`
	IsBigEndian bool    `cbor:"is_bigendian"`
	PointStep   int     `cbor:"point_step"`
	RowStep     int     `cbor:"row_step"`
	Data        []byte  `cbor:"data"`
}

// Points returns the number of whole records in Data.
func (c *Cloud) Points() int {
	if c.PointStep <= 0 {
		return 0
	}
	return len(c.Data) / c.PointStep
}

// Field returns the field with the given name.
func (c *Cloud) Field(name string) (Field, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Projection is a validated selection of fields in output order.
type Projection struct {
	// Fields are the selected fields, in the order their elements
	// appear in each packed record.
	Fields []Field

	Layout *pointfield.Layout
}

// Project selects fields by name, in the given order. With no names
// every field is selected in message order.
func (c *Cloud) Project(names ...string) (*Projection, error) {
	if c.IsBigEndian {
		return nil, fmt.Errorf("big-endian point clouds are not supported")
	}

	selected := c.Fields
	if len(names) > 0 {
		selected = make([]Field, 0, len(names))
		for _, name := range names {
			field, ok := c.Field(name)
			if !ok {
				return nil, fmt.Errorf("point cloud has no field %q", name)
			}
			selected = append(selected, field)
		}
	}

	var offsets []int
	var tags []pointfield.TypeTag
	for _, field := range selected {
		width := field.Datatype.Width()
		for element := 0; element < field.count(); element++ {
			offsets = append(offsets, field.Offset+element*width)
			tags = append(tags, field.Datatype)
		}
	}

	layout, err := pointfield.NewLayout(offsets, tags, c.PointStep)
	if err != nil {
		return nil, fmt.Errorf("projecting point cloud fields: %w", err)
	}
	return &Projection{Fields: selected, Layout: layout}, nil
}

// Repack packs the projected fields of every point in c.
func (p *Projection) Repack(c *Cloud) ([]byte, error) {
	return p.Layout.Repack(c.Data)
}
