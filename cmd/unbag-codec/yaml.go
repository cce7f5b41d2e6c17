// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unbag/lib/yamlcodec"
)

func yamlCommand(env *environment) *Command {
	var inputFormatName string
	var color string
	var indent int

	return &Command{
		Name:    "yaml",
		Summary: "Serialize a structured message as YAML",
		Description: `Decode a JSON, CBOR or MessagePack message and print it as YAML.

Mapping order is preserved. Floating-point values are written as
quoted strings holding their shortest decimal form, so they survive
round trips through tools that would otherwise reformat them.`,
		Usage: "unbag-codec yaml [flags] FILE|-",
		Examples: []Example{
			{Description: "Convert a JSON message", Command: "unbag-codec yaml imu.json"},
			{Description: "Read MessagePack from stdin", Command: "unbag-codec yaml --input-format msgpack -"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("yaml", pflag.ContinueOnError)
			flagSet.StringVar(&inputFormatName, "input-format", "", "input encoding: json, cbor or msgpack (default: from file extension)")
			flagSet.StringVar(&color, "color", "auto", "syntax highlighting: auto, always or never")
			flagSet.IntVar(&indent, "indent", 0, "spaces per nesting level (default: serializer.indent from config)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("yaml takes exactly one input (FILE or -)")
			}
			format, err := resolveInputFormat(inputFormatName, args[0])
			if err != nil {
				return err
			}
			highlight, err := env.wantColor(color)
			if err != nil {
				return err
			}
			if indent == 0 {
				indent = env.config.Serializer.Indent
			}
			if indent < 2 || indent > 9 {
				return usagef("--indent must be between 2 and 9")
			}

			data, err := env.readInput(args[0])
			if err != nil {
				return err
			}
			message, err := decodeMessage(format, data)
			if err != nil {
				return err
			}

			var output bytes.Buffer
			if err := yamlcodec.Encode(&output, message, yamlcodec.Options{Indent: indent}); err != nil {
				return err
			}
			return writeYAML(env.stdout, output.String(), highlight)
		},
	}
}

// wantColor resolves a --color value against whether stdout is a
// terminal.
func (env *environment) wantColor(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return isTerminal(env.stdout), nil
	default:
		return false, usagef("--color must be auto, always or never, got %q", mode)
	}
}

// writeYAML writes text, highlighted for a 256-colour terminal when
// highlight is set. Highlighting failures fall back to plain output.
func writeYAML(w io.Writer, text string, highlight bool) error {
	if highlight {
		var buffer bytes.Buffer
		if err := quick.Highlight(&buffer, text, "yaml", "terminal256", "monokai"); err == nil {
			text = buffer.String()
		}
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
