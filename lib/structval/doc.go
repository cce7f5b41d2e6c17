// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package structval defines the structured value model shared by the
// unbag export codecs: a closed set of variants (mapping, sequence,
// boolean, integer, floating point, text, null) that fully determines
// how a value is rendered.
//
// Host data enters the model exactly once, at the boundary:
//
//   - [FromAny] converts arbitrary Go values (maps, slices, scalars).
//     Anything it does not recognize becomes [Null]; there is no
//     string fallback.
//   - [DecodeJSON], [DecodeCBOR], and [DecodeMsgpack] convert message
//     payloads that the host already serialized. JSON and msgpack
//     decoding preserve mapping key order; CBOR decoding goes through
//     lib/codec and therefore yields sorted keys.
//
// After construction, consumers dispatch with a type switch over the
// concrete variant types. [Mapping] preserves insertion order and keeps
// keys unique: [Mapping.Set] on an existing key replaces the value in
// place.
//
// This package depends only on lib/codec.
package structval
