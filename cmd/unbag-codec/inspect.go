// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unbag/lib/packfile"
	"github.com/bureau-foundation/unbag/lib/structval"
	"github.com/bureau-foundation/unbag/lib/yamlcodec"
)

func inspectCommand(env *environment) *Command {
	var verify bool
	var color string

	return &Command{
		Name:    "inspect",
		Summary: "Print the header of a pack file",
		Description: `Print a pack file's header as YAML. With --verify the body is also
decompressed and checked against the header digest.`,
		Usage: "unbag-codec inspect [--verify] FILE|-",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&verify, "verify", false, "decompress the body and verify its digest")
			flagSet.StringVar(&color, "color", "auto", "syntax highlighting: auto, always or never")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("inspect takes exactly one pack file (FILE or -)")
			}
			highlight, err := env.wantColor(color)
			if err != nil {
				return err
			}

			data, err := env.readInput(args[0])
			if err != nil {
				return err
			}
			var header packfile.Header
			if verify {
				_, header, err = packfile.Read(bytes.NewReader(data))
			} else {
				header, err = packfile.ReadHeader(bytes.NewReader(data))
			}
			if err != nil {
				return err
			}

			var output bytes.Buffer
			if err := yamlcodec.Encode(&output, headerValue(header, verify), yamlcodec.Options{Indent: env.config.Serializer.Indent}); err != nil {
				return err
			}
			return writeYAML(env.stdout, output.String(), highlight)
		},
	}
}

// headerValue describes a pack header as an ordered mapping.
func headerValue(header packfile.Header, verified bool) structval.Value {
	mapping := structval.NewMapping(
		structval.Entry{Key: "version", Value: structval.Int(header.Version)},
		structval.Entry{Key: "compression", Value: structval.Text(header.Compression.String())},
		structval.Entry{Key: "record_width", Value: structval.Int(header.RecordWidth)},
		structval.Entry{Key: "records", Value: structval.FromAny(header.Records)},
		structval.Entry{Key: "uncompressed_size", Value: structval.FromAny(header.UncompressedSize)},
		structval.Entry{Key: "compressed_size", Value: structval.FromAny(header.CompressedSize)},
		structval.Entry{Key: "digest", Value: structval.Text(header.Digest.String())},
	)
	if verified {
		mapping.Set("verified", structval.Bool(true))
	}
	return mapping
}
