// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unbag/lib/pointcloud"
)

func pcdCommand(env *environment) *Command {
	var requestPath string
	var output string
	var encodingName string

	return &Command{
		Name:    "pcd",
		Summary: "Write a point cloud message as a PCD file",
		Description: `Write the point cloud in a CBOR request as a PCD v0.7 file.

The request's "fields" list selects and orders the exported fields;
without it every field is written. Multi-element fields keep their
COUNT. binary_compressed stores the fields column by column in one LZF
block. Big-endian clouds are rejected.`,
		Usage: "unbag-codec pcd --request FILE --output FILE [--encoding ascii|binary|binary_compressed]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pcd", pflag.ContinueOnError)
			flagSet.StringVar(&requestPath, "request", "", "CBOR request file, or - for stdin (required)")
			flagSet.StringVarP(&output, "output", "o", "", "PCD file to write, or - for stdout (required)")
			flagSet.StringVar(&encodingName, "encoding", string(pointcloud.EncodingBinary), "PCD body encoding: ascii, binary or binary_compressed")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return usagef("unexpected argument: %s", args[0])
			}
			if requestPath == "" || output == "" {
				return usagef("--request and --output are required")
			}
			encoding, err := pointcloud.ParseEncoding(encodingName)
			if err != nil {
				return &usageError{err: err}
			}

			request, err := env.readCloudRequest(requestPath)
			if err != nil {
				return err
			}
			if request.Cloud == nil {
				return usagef("request has no point cloud")
			}

			writer, err := env.createOutput(output, encoding != pointcloud.EncodingASCII)
			if err != nil {
				return err
			}
			err = pointcloud.WritePCD(writer, request.Cloud, encoding, request.Fields...)
			if closeErr := writer.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("closing output: %w", closeErr)
			}
			if err != nil {
				return err
			}

			env.logger.Info("wrote PCD",
				"output", output,
				"encoding", string(encoding),
				"points", request.Cloud.Points(),
			)
			return nil
		},
	}
}

func xyzCommand(env *environment) *Command {
	var requestPath string
	var output string

	return &Command{
		Name:    "xyz",
		Summary: "Write point coordinates as x y z text lines",
		Usage:   "unbag-codec xyz --request FILE --output FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("xyz", pflag.ContinueOnError)
			flagSet.StringVar(&requestPath, "request", "", "CBOR request file, or - for stdin (required)")
			flagSet.StringVarP(&output, "output", "o", "", "text file to write, or - for stdout (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return usagef("unexpected argument: %s", args[0])
			}
			if requestPath == "" || output == "" {
				return usagef("--request and --output are required")
			}

			request, err := env.readCloudRequest(requestPath)
			if err != nil {
				return err
			}
			if request.Cloud == nil {
				return usagef("request has no point cloud")
			}

			writer, err := env.createOutput(output, false)
			if err != nil {
				return err
			}
			err = pointcloud.WriteXYZ(writer, request.Cloud)
			if closeErr := writer.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("closing output: %w", closeErr)
			}
			if err != nil {
				return err
			}

			env.logger.Info("wrote xyz", "output", output, "points", request.Cloud.Points())
			return nil
		},
	}
}
