// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package packfile stores repacked point records in a small
// self-describing container.
//
// A pack file is a 68-byte little-endian header followed by the
// (optionally compressed) body:
//
//	offset  size  field
//	0       4     magic "UNBP"
//	4       1     format version (1)
//	5       1     compression tag
//	6       2     reserved, zero
//	8       4     record width in bytes
//	12      8     record count
//	20      8     uncompressed body size
//	28      32    BLAKE3 keyed digest of the uncompressed body
//	60      8     compressed body size
//
// The digest is keyed with the domain "unbag.pack.records" so pack
// digests never collide with other BLAKE3 uses of the same bytes.
// [Read] verifies sizes and the digest after decompression.
//
// Compression is one of none, lz4, zstd or bg4_lz4. The writer falls
// back to none when the requested algorithm does not shrink the body;
// the header always records the algorithm actually used.
package packfile
