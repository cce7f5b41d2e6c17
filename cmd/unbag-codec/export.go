// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unbag/lib/export"
	"github.com/bureau-foundation/unbag/lib/structval"
	"github.com/bureau-foundation/unbag/lib/yamlcodec"
)

func exportCommand(env *environment) *Command {
	var formatName string
	var inputFormatName string
	var stampText string
	var output string
	var first bool

	return &Command{
		Name:    "export",
		Summary: "Append a timestamped message to a YAML, JSON or CSV file",
		Description: `Append one message to BASE.yaml, BASE.json or BASE.csv.

The timestamp comes from --stamp, or else from the message's
header.stamp or stamp mapping (sec and nanosec keys). With --first
the file is truncated before writing and CSV files get a header row.
Writers hold an exclusive lock on the file while appending, so
several processes may export to the same file.

Relative --output paths are resolved against export.output_dir.`,
		Usage: "unbag-codec export --output BASE [flags] FILE|-",
		Examples: []Example{
			{Description: "Start a CSV export", Command: "unbag-codec export --format csv --output imu --first msg0.json"},
			{Description: "Append with an explicit stamp", Command: "unbag-codec export --output imu --stamp 1700000000.25 msg1.cbor"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flagSet.StringVar(&formatName, "format", "", "yaml, json or csv (default: export.format from config)")
			flagSet.StringVar(&inputFormatName, "input-format", "", "input encoding: json, cbor or msgpack (default: from file extension)")
			flagSet.StringVar(&stampText, "stamp", "", "message time as SEC.NSEC (default: from the message header)")
			flagSet.StringVarP(&output, "output", "o", "", "output path without extension (required)")
			flagSet.BoolVar(&first, "first", false, "truncate the file and start a new export")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("export takes exactly one input (FILE or -)")
			}
			if output == "" {
				return usagef("--output is required")
			}
			format := env.config.ExportFormat()
			if formatName != "" {
				parsed, err := export.ParseFormat(formatName)
				if err != nil {
					return &usageError{err: err}
				}
				format = parsed
			}
			inputFormat, err := resolveInputFormat(inputFormatName, args[0])
			if err != nil {
				return err
			}

			data, err := env.readInput(args[0])
			if err != nil {
				return err
			}
			message, err := decodeMessage(inputFormat, data)
			if err != nil {
				return err
			}

			var stamp time.Time
			if stampText != "" {
				stamp, err = parseStamp(stampText)
				if err != nil {
					return &usageError{err: err}
				}
			} else {
				var ok bool
				stamp, ok = messageStamp(message)
				if !ok {
					return usagef("message has no header.stamp or stamp; pass --stamp")
				}
			}

			base := output
			if !filepath.IsAbs(base) {
				if err := env.config.EnsureOutputDir(); err != nil {
					return err
				}
				base = filepath.Join(env.config.Export.OutputDir, base)
			}

			appender, err := export.OpenAppender(base, format, yamlcodec.Options{Indent: env.config.Serializer.Indent})
			if err != nil {
				return err
			}
			defer appender.Close()

			if err := appender.Append(export.Record{Time: stamp, Message: message}, first); err != nil {
				return err
			}
			env.logger.Info("exported message",
				"path", appender.Path(),
				"format", string(format),
				"timestamp", export.FormatTimestamp(stamp),
				"first", first,
			)
			return nil
		},
	}
}

// parseStamp parses "SEC" or "SEC.FRACTION"; the fraction is decimal
// seconds with at most nine digits.
func parseStamp(text string) (time.Time, error) {
	secText, fraction, _ := strings.Cut(text, ".")
	sec, err := strconv.ParseInt(secText, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --stamp %q: %w", text, err)
	}
	if len(fraction) > 9 {
		return time.Time{}, fmt.Errorf("invalid --stamp %q: more than nine fractional digits", text)
	}
	var nanosec uint64
	if fraction != "" {
		nanosec, err = strconv.ParseUint(fraction+strings.Repeat("0", 9-len(fraction)), 10, 32)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --stamp %q: %w", text, err)
		}
	}
	return export.Stamp(sec, uint32(nanosec)), nil
}

// messageStamp finds header.stamp, falling back to a top-level stamp.
func messageStamp(message structval.Value) (time.Time, bool) {
	root, ok := message.(*structval.Mapping)
	if !ok || root == nil {
		return time.Time{}, false
	}
	if header, ok := root.Get("header"); ok {
		if headerMapping, ok := header.(*structval.Mapping); ok && headerMapping != nil {
			if stamp, ok := headerMapping.Get("stamp"); ok {
				if t, ok := stampValue(stamp); ok {
					return t, true
				}
			}
		}
	}
	if stamp, ok := root.Get("stamp"); ok {
		return stampValue(stamp)
	}
	return time.Time{}, false
}

func stampValue(value structval.Value) (time.Time, bool) {
	mapping, ok := value.(*structval.Mapping)
	if !ok || mapping == nil {
		return time.Time{}, false
	}
	secValue, ok := mapping.Get("sec")
	if !ok {
		return time.Time{}, false
	}
	sec, ok := secValue.(structval.Int)
	if !ok {
		return time.Time{}, false
	}
	var nanosec structval.Int
	if nanosecValue, ok := mapping.Get("nanosec"); ok {
		nanosec, ok = nanosecValue.(structval.Int)
		if !ok || nanosec < 0 || nanosec >= 1e9 {
			return time.Time{}, false
		}
	}
	return export.Stamp(int64(sec), uint32(nanosec)), true
}
