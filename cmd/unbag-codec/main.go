// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/unbag/lib/config"
	"github.com/bureau-foundation/unbag/lib/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// environment carries the process streams and loaded configuration to
// every subcommand.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	config *config.Config
	logger *slog.Logger
}

// run executes the command line and returns the exit status: 0 on
// success, 1 when an operation fails, 2 for usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("unbag-codec", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to unbag.yaml (default: $UNBAG_CONFIG, else built-in defaults)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			rootCommand(&environment{stdout: stdout, stderr: stderr}).PrintHelp(stderr)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "unbag-codec %s\n", version.Info())
		return 0
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	env := &environment{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		config: cfg,
		logger: newLogger(stderr),
	}

	if err := rootCommand(env).Execute(flagSet.Args()); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// loadConfig resolves configuration from --config, then UNBAG_CONFIG,
// then the built-in defaults, and validates the result.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("UNBAG_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes human-readable text when stderr is a terminal and
// JSON records otherwise.
func newLogger(stderr io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if isTerminal(stderr) {
		return slog.New(slog.NewTextHandler(stderr, options))
	}
	return slog.New(slog.NewJSONHandler(stderr, options))
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func rootCommand(env *environment) *Command {
	return &Command{
		Name: "unbag-codec",
		Description: `unbag-codec converts exported robot log messages.

Messages arrive as JSON, CBOR or MessagePack documents and leave as
YAML, timestamped export lines, PCD/XYZ point cloud files, or dense
repacked record buffers in a checksummed pack file.`,
		Subcommands: []*Command{
			yamlCommand(env),
			exportCommand(env),
			repackCommand(env),
			pcdCommand(env),
			xyzCommand(env),
			inspectCommand(env),
		},
		help: env.stderr,
	}
}
