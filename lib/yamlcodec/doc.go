// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package yamlcodec renders structured values as YAML text.
//
// The serializer is one-directional and total over the structval
// variants: mappings and sequences become block collections in their
// original order, booleans and integers become native YAML literals,
// text uses yaml.v3's default quoting, and null becomes `null`.
//
// Floating point values are written as YAML strings holding
// [FormatFloat]'s rendering ("2.5", "1e+20", "NaN"), never as native
// floats. Consumers of exported bags parse float literals
// inconsistently (precision loss, .inf vs inf); a quoted decimal
// string survives every parser unchanged.
//
// [Serialize] returns the document as a string; [Encode] streams it to
// a writer. Both report failures as *[SerializationError], which names
// the path of the offending node. A tree is rejected before anything
// is written when a mapping carries the same key twice or when a key
// or text value is not valid UTF-8.
package yamlcodec
