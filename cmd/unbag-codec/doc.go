// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// unbag-codec is the command-line front end for the unbag codecs.
//
// Subcommands:
//
//   - yaml: decode a JSON, CBOR or MessagePack message and print it as
//     YAML, optionally syntax-highlighted
//   - export: append a timestamped message to a YAML, JSON or CSV file
//   - repack: extract selected record fields into a compressed,
//     checksummed pack file
//   - pcd, xyz: write point cloud messages in point cloud file formats
//   - inspect: print (and optionally verify) a pack file header
//
// Configuration comes from --config or UNBAG_CONFIG; without either
// the built-in defaults apply. Logs are written to stderr as text when
// it is a terminal and as JSON otherwise.
//
// Exit status is 0 on success, 1 when an operation fails and 2 for
// usage or configuration errors.
package main
