// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/unbag/lib/export"
	"github.com/bureau-foundation/unbag/lib/packfile"
)

// Config is the configuration for unbag-codec.
type Config struct {
	// Serializer configures YAML output.
	Serializer SerializerConfig `yaml:"serializer"`

	// Repack configures the record repacker.
	Repack RepackConfig `yaml:"repack"`

	// Pack configures pack file output.
	Pack PackConfig `yaml:"pack"`

	// Export configures message export lines.
	Export ExportConfig `yaml:"export"`
}

// SerializerConfig configures YAML output.
type SerializerConfig struct {
	// Indent is the number of spaces per nesting level, 2 through 9.
	// Default: 2
	Indent int `yaml:"indent"`
}

// RepackConfig configures the record repacker.
type RepackConfig struct {
	// Workers is the number of goroutines used for large buffers.
	// Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// ParallelThreshold is the record count at or above which the
	// parallel repacker is used. Zero disables parallel repacking.
	// Default: 65536
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// PackConfig configures pack file output.
type PackConfig struct {
	// Compression is the default compression for pack bodies: none,
	// lz4, zstd or bg4_lz4.
	// Default: bg4_lz4
	Compression string `yaml:"compression"`
}

// ExportConfig configures message export lines.
type ExportConfig struct {
	// Format is the default export format: yaml, json or csv.
	// Default: yaml
	Format string `yaml:"format"`

	// OutputDir is where relative --output paths are resolved.
	// ${HOME} and ${VAR:-default} are expanded.
	// Default: current directory
	OutputDir string `yaml:"output_dir"`
}

// Default returns the configuration used when no file is given, and
// the base that a loaded file is merged over.
func Default() *Config {
	return &Config{
		Serializer: SerializerConfig{
			Indent: 2,
		},
		Repack: RepackConfig{
			Workers:           0,
			ParallelThreshold: 65536,
		},
		Pack: PackConfig{
			Compression: packfile.CompressionBG4LZ4.String(),
		},
		Export: ExportConfig{
			Format:    string(export.FormatYAML),
			OutputDir: ".",
		},
	}
}

// Load loads configuration from the file named by UNBAG_CONFIG.
// It fails when the variable is unset; there is no discovery.
func Load() (*Config, error) {
	configPath := os.Getenv("UNBAG_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("UNBAG_CONFIG environment variable not set; " +
			"set it to the path of your unbag.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, merged over [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Export.OutputDir = expandVars(c.Export.OutputDir, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Serializer.Indent < 2 || c.Serializer.Indent > 9 {
		errs = append(errs, fmt.Errorf("serializer.indent must be between 2 and 9, got %d", c.Serializer.Indent))
	}
	if c.Repack.Workers < 0 {
		errs = append(errs, fmt.Errorf("repack.workers must not be negative, got %d", c.Repack.Workers))
	}
	if c.Repack.ParallelThreshold < 0 {
		errs = append(errs, fmt.Errorf("repack.parallel_threshold must not be negative, got %d", c.Repack.ParallelThreshold))
	}
	if _, err := packfile.ParseCompressionTag(c.Pack.Compression); err != nil {
		errs = append(errs, fmt.Errorf("pack.compression: %w", err))
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	if c.Export.OutputDir == "" {
		errs = append(errs, fmt.Errorf("export.output_dir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PackCompression returns the configured pack compression. Call
// Validate first; an invalid name yields CompressionNone.
func (c *Config) PackCompression() packfile.CompressionTag {
	tag, _ := packfile.ParseCompressionTag(c.Pack.Compression)
	return tag
}

// ExportFormat returns the configured export format. Call Validate
// first; an invalid name yields the empty format.
func (c *Config) ExportFormat() export.Format {
	format, _ := export.ParseFormat(c.Export.Format)
	return format
}

// EnsureOutputDir creates Export.OutputDir if it does not exist.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.Export.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Export.OutputDir, err)
	}
	return nil
}
