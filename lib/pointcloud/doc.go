// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pointcloud describes PointCloud2-shaped messages and writes
// them in file formats point cloud tooling reads directly.
//
// [Cloud] mirrors the sensor_msgs/PointCloud2 fields the exporters
// need: named fields with offsets, datatypes and element counts, the
// record stride, and the raw data buffer. It carries cbor tags because
// the unbag-codec CLI receives clouds as CBOR request files.
//
// [Cloud.Project] turns a list of field names into a validated
// pointfield layout, expanding multi-element fields (count > 1) into
// consecutive scalars. Exports are built on that projection:
//
//   - [WritePCD] writes a PCD v0.7 file, with either the repacked
//     binary body or one ASCII line per point.
//   - [WriteXYZ] writes "x y z" lines for the x, y and z fields.
//
// Only little-endian clouds are accepted.
package pointcloud
