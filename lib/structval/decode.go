// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/jsonc"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/bureau-foundation/unbag/lib/codec"
)

// DecodeJSON converts a JSON or JSONC document into a value tree.
// Comments and trailing commas are stripped first. Object key order
// is preserved. Numbers that parse as int64 become [Int]; all other
// numbers become [Float].
func DecodeJSON(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	value, err := decodeJSONValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding JSON: trailing data after top-level value")
	}
	return value, nil
}

func decodeJSONValue(decoder *json.Decoder) (Value, error) {
	token, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch typed := token.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(typed), nil
	case string:
		return Text(typed), nil
	case json.Number:
		if integer, err := strconv.ParseInt(typed.String(), 10, 64); err == nil {
			return Int(integer), nil
		}
		float, err := typed.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", typed, err)
		}
		return Float(float), nil
	case json.Delim:
		switch typed {
		case '{':
			mapping := &Mapping{}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyToken)
				}
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				mapping.Set(key, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return mapping, nil
		case '[':
			sequence := Sequence{}
			for decoder.More() {
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, fmt.Errorf("index %d: %w", len(sequence), err)
				}
				sequence = append(sequence, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return sequence, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", token)
}

// DecodeCBOR converts a CBOR data item into a value tree using the
// project CBOR decoding mode. CBOR maps decode into Go maps, so the
// resulting mapping keys are sorted.
func DecodeCBOR(data []byte) (Value, error) {
	var decoded any
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding CBOR: %w", err)
	}
	return FromAny(decoded), nil
}

// DecodeMsgpack converts a msgpack object into a value tree. Map
// entries keep their encoded order; non-string keys are converted
// with their fmt display form.
func DecodeMsgpack(data []byte) (Value, error) {
	decoder := msgpack.GetDecoder()
	defer msgpack.PutDecoder(decoder)
	decoder.Reset(bytes.NewReader(data))

	value, err := decodeMsgpackValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding msgpack: %w", err)
	}
	if _, err := decoder.PeekCode(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding msgpack: trailing data after top-level value")
	}
	return value, nil
}

func decodeMsgpackValue(decoder *msgpack.Decoder) (Value, error) {
	code, err := decoder.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		length, err := decoder.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		mapping := &Mapping{}
		for i := 0; i < length; i++ {
			key, err := decoder.DecodeInterfaceLoose()
			if err != nil {
				return nil, fmt.Errorf("map key %d: %w", i, err)
			}
			keyText, ok := key.(string)
			if !ok {
				keyText = fmt.Sprint(key)
			}
			value, err := decodeMsgpackValue(decoder)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", keyText, err)
			}
			mapping.Set(keyText, value)
		}
		return mapping, nil

	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		length, err := decoder.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		sequence := make(Sequence, 0, length)
		for i := 0; i < length; i++ {
			value, err := decodeMsgpackValue(decoder)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			sequence = append(sequence, value)
		}
		return sequence, nil

	default:
		scalar, err := decoder.DecodeInterfaceLoose()
		if err != nil {
			return nil, err
		}
		return FromAny(scalar), nil
	}
}
