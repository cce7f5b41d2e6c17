// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration used for
// unbag request envelopes.
//
// The export host hands the codecs already-extracted message data. When
// that handoff crosses a process boundary (the unbag-codec CLI reading a
// request file, a host writing one), the envelope is CBOR: byte strings
// carry raw point buffers without base64 inflation, and integer widths
// survive intact.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same request always produces identical bytes. The decoder targets
// map[string]any for untyped maps so that decoded payloads can be
// handed straight to structval.FromAny.
//
//	data, err := codec.Marshal(request)
//	err = codec.Unmarshal(data, &request)
//
// Envelope types carry `cbor` struct tags. Types that are also written
// as JSON use `json` tags only; fxamacker/cbor falls back to them.
package codec
