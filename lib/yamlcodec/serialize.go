// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package yamlcodec

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/unbag/lib/structval"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 2

// Options controls the textual layout of the output. The zero value
// selects [DefaultIndent].
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
}

// SerializationError reports a value tree that could not be rendered.
type SerializationError struct {
	// Path locates the failing node, e.g. "header.stamp" or "b[1]".
	// Empty for the document root and for writer failures.
	Path string

	Err error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("yaml serialization: %v", e.Err)
	}
	return fmt.Sprintf("yaml serialization at %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Serialize renders value as a YAML document with default options.
func Serialize(value structval.Value) (string, error) {
	return SerializeWith(value, Options{})
}

// SerializeWith renders value as a YAML document.
func SerializeWith(value structval.Value, options Options) (string, error) {
	var buffer bytes.Buffer
	if err := Encode(&buffer, value, options); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// Encode writes value as a YAML document to w. Nothing is written when
// the tree is rejected.
func Encode(w io.Writer, value structval.Value, options Options) error {
	node, err := Node(value)
	if err != nil {
		return err
	}

	indent := options.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(indent)
	if err := encoder.Encode(node); err != nil {
		return &SerializationError{Err: err}
	}
	if err := encoder.Close(); err != nil {
		return &SerializationError{Err: err}
	}
	return nil
}

// Node converts value into a yaml.v3 node tree without encoding it.
func Node(value structval.Value) (*yaml.Node, error) {
	return buildNode(value, "")
}

func buildNode(value structval.Value, path string) (*yaml.Node, error) {
	switch typed := value.(type) {
	case *structval.Mapping:
		if typed == nil {
			return nullNode(), nil
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		seen := make(map[string]struct{}, typed.Len())
		for _, entry := range typed.Entries() {
			childPath := joinKey(path, entry.Key)
			if _, duplicate := seen[entry.Key]; duplicate {
				return nil, &SerializationError{Path: childPath, Err: fmt.Errorf("duplicate mapping key %q", entry.Key)}
			}
			seen[entry.Key] = struct{}{}
			if !utf8.ValidString(entry.Key) {
				return nil, &SerializationError{Path: childPath, Err: fmt.Errorf("mapping key %q is not valid UTF-8", entry.Key)}
			}

			child, err := buildNode(entry.Value, childPath)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, stringNode(entry.Key), child)
		}
		return node, nil

	case structval.Sequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, element := range typed {
			child, err := buildNode(element, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil

	case structval.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(typed))}, nil

	case structval.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(typed), 10)}, nil

	case structval.Float:
		return stringNode(FormatFloat(float64(typed))), nil

	case structval.Text:
		if !utf8.ValidString(string(typed)) {
			return nil, &SerializationError{Path: path, Err: fmt.Errorf("text %q is not valid UTF-8", string(typed))}
		}
		return stringNode(string(typed)), nil
	}

	// Null, nil, and anything outside the closed variant set.
	return nullNode(), nil
}

// FormatFloat returns the text a float is serialized as: the shortest
// decimal that round-trips, in Go's default %v form ("2.5", "1",
// "1e+20", "+Inf", "-Inf", "NaN").
func FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// stringNode is tagged !!str so yaml.v3 quotes values that would
// otherwise resolve as numbers, booleans, or null ("2.5", "true").
func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
