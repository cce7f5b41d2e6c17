// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unbag/lib/packfile"
	"github.com/bureau-foundation/unbag/lib/pointfield"
)

func repackCommand(env *environment) *Command {
	var requestPath string
	var output string
	var compressionName string
	var workers int

	return &Command{
		Name:    "repack",
		Summary: "Extract selected record fields into a dense pack file",
		Description: `Repack a point record buffer into a dense buffer holding only the
selected fields, and write it as a checksummed pack file.

The request is a CBOR document holding either a point cloud message
("cloud") with optional field names ("fields"), or a raw descriptor
("data", "offsets", "types", "point_step"). Types are names such as
float32 or UINT16, or struct format characters (B H I b h i f).

Buffers with at least repack.parallel_threshold records are split
across worker goroutines.`,
		Usage: "unbag-codec repack --request FILE --output FILE [flags]",
		Examples: []Example{
			{Description: "Pack xyz with zstd", Command: "unbag-codec repack --request cloud.cbor --output xyz.unbp --compression zstd"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("repack", pflag.ContinueOnError)
			flagSet.StringVar(&requestPath, "request", "", "CBOR request file, or - for stdin (required)")
			flagSet.StringVarP(&output, "output", "o", "", "pack file to write, or - for stdout (required)")
			flagSet.StringVar(&compressionName, "compression", "", "none, lz4, zstd or bg4_lz4 (default: pack.compression from config)")
			flagSet.IntVar(&workers, "workers", -1, "parallel workers, 0 for GOMAXPROCS (default: repack.workers from config)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return usagef("unexpected argument: %s", args[0])
			}
			if requestPath == "" || output == "" {
				return usagef("--request and --output are required")
			}
			compression := env.config.PackCompression()
			if compressionName != "" {
				parsed, err := packfile.ParseCompressionTag(compressionName)
				if err != nil {
					return &usageError{err: err}
				}
				compression = parsed
			}
			if workers < 0 {
				workers = env.config.Repack.Workers
			}
			if workers == 0 {
				workers = runtime.GOMAXPROCS(0)
			}

			request, err := env.readCloudRequest(requestPath)
			if err != nil {
				return err
			}
			layout, buffer, err := request.layout()
			if err != nil {
				return err
			}

			start := time.Now()
			packed, err := repackBuffer(layout, buffer, workers, env.config.Repack.ParallelThreshold)
			if err != nil {
				return err
			}
			records := layout.RecordCount(len(buffer))
			elapsed := time.Since(start)

			writer, err := env.createOutput(output, true)
			if err != nil {
				return err
			}
			header, err := packfile.Write(writer, packfile.Pack{
				RecordWidth: layout.RecordWidth(),
				Records:     records,
				Data:        packed,
			}, compression)
			if closeErr := writer.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("closing output: %w", closeErr)
			}
			if err != nil {
				return err
			}

			env.logger.Info("repacked records",
				"records", records,
				"record_width", layout.RecordWidth(),
				"point_step", layout.PointStep(),
				"compression", header.Compression.String(),
				"compressed_bytes", header.CompressedSize,
				"digest", header.Digest.String(),
				"duration", elapsed,
			)
			return nil
		},
	}
}

// repackBuffer uses the parallel repacker when the buffer holds at
// least threshold records. A zero threshold disables it.
func repackBuffer(layout *pointfield.Layout, buffer []byte, workers, threshold int) ([]byte, error) {
	if threshold > 0 && workers > 1 && layout.RecordCount(len(buffer)) >= threshold {
		return layout.RepackParallel(buffer, workers)
	}
	return layout.Repack(buffer)
}
