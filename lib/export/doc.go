// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package export renders timestamped messages as appendable text
// lines.
//
// A [Record] pairs a message (a structval tree) with its header stamp.
// Three line shapes are produced:
//
//   - YAML: the timestamp as a top-level key with the serialized
//     message indented beneath it, followed by a blank line.
//   - JSON: one object per line, {"<timestamp>": <message>}, with
//     mapping order preserved.
//   - CSV: the message flattened into dotted column names, with a
//     "timestamp" column first. The header row is written only for the
//     first record of a file.
//
// [Appender] owns the file side: it appends one record at a time under
// an exclusive flock so several exporters can share an output path,
// and truncates the file when told a record is the first of a run.
package export
