// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/unbag/lib/codec"
	"github.com/bureau-foundation/unbag/lib/pointcloud"
	"github.com/bureau-foundation/unbag/lib/pointfield"
	"github.com/bureau-foundation/unbag/lib/structval"
)

// readInput reads a whole file, or stdin for "-".
func (env *environment) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(env.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

// nopCloser keeps stdout open when an output writer is closed.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens path for writing, or stdout for "-". Binary
// output is refused when stdout is a terminal.
func (env *environment) createOutput(path string, binary bool) (io.WriteCloser, error) {
	if path == "-" {
		if binary && isTerminal(env.stdout) {
			return nil, usagef("refusing to write binary output to a terminal; use --output FILE")
		}
		return nopCloser{env.stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return file, nil
}

// inputFormat names a structured message encoding.
type inputFormat string

const (
	inputJSON    inputFormat = "json"
	inputCBOR    inputFormat = "cbor"
	inputMsgpack inputFormat = "msgpack"
)

// resolveInputFormat returns the explicit format, or infers one from
// the file extension. JSON is the fallback.
func resolveInputFormat(explicit, path string) (inputFormat, error) {
	switch strings.ToLower(explicit) {
	case "json", "jsonc":
		return inputJSON, nil
	case "cbor":
		return inputCBOR, nil
	case "msgpack", "mpk":
		return inputMsgpack, nil
	case "":
	default:
		return "", usagef("unknown input format %q (want json, cbor or msgpack)", explicit)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return inputCBOR, nil
	case ".msgpack", ".mpk":
		return inputMsgpack, nil
	default:
		return inputJSON, nil
	}
}

func decodeMessage(format inputFormat, data []byte) (structval.Value, error) {
	switch format {
	case inputCBOR:
		return structval.DecodeCBOR(data)
	case inputMsgpack:
		return structval.DecodeMsgpack(data)
	default:
		return structval.DecodeJSON(data)
	}
}

// cloudRequest is the CBOR document read by repack, pcd and xyz. It
// carries either a point cloud message with the fields to select, or
// a raw record descriptor.
type cloudRequest struct {
	Cloud  *pointcloud.Cloud `cbor:"cloud,omitempty"`
	Fields []string          `cbor:"fields,omitempty"`

	Data      []byte   `cbor:"data,omitempty"`
	Offsets   []int    `cbor:"offsets,omitempty"`
	Types     []string `cbor:"types,omitempty"`
	PointStep int      `cbor:"point_step,omitempty"`
}

func (env *environment) readCloudRequest(path string) (*cloudRequest, error) {
	data, err := env.readInput(path)
	if err != nil {
		return nil, err
	}
	var request cloudRequest
	if err := codec.Unmarshal(data, &request); err != nil {
		// Well-formed CBOR of the wrong shape: show what was sent.
		if notation, diagnoseErr := codec.Diagnose(data); diagnoseErr == nil {
			env.logger.Warn("request does not match the expected shape", "path", path, "cbor", notation)
		}
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return &request, nil
}

// layout builds the record layout and returns it with the source
// buffer it applies to.
func (r *cloudRequest) layout() (*pointfield.Layout, []byte, error) {
	if r.Cloud != nil {
		projection, err := r.Cloud.Project(r.Fields...)
		if err != nil {
			return nil, nil, err
		}
		return projection.Layout, r.Cloud.Data, nil
	}

	tags := make([]pointfield.TypeTag, len(r.Types))
	for i, name := range r.Types {
		tag, err := parseTypeName(name)
		if err != nil {
			return nil, nil, fmt.Errorf("field %d: %w", i, err)
		}
		tags[i] = tag
	}
	layout, err := pointfield.NewLayout(r.Offsets, tags, r.PointStep)
	if err != nil {
		return nil, nil, err
	}
	return layout, r.Data, nil
}

// parseTypeName accepts a type name ("float32", "UINT16") or a single
// struct format character ("f", "H").
func parseTypeName(name string) (pointfield.TypeTag, error) {
	if len(name) == 1 {
		return pointfield.ParseFormat(name)
	}
	return pointfield.ParseTypeTag(name)
}
