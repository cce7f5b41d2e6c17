// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/unbag/lib/export"
	"github.com/bureau-foundation/unbag/lib/packfile"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Serializer.Indent != 2 {
		t.Errorf("expected indent=2, got %d", cfg.Serializer.Indent)
	}
	if cfg.Repack.ParallelThreshold != 65536 {
		t.Errorf("expected parallel_threshold=65536, got %d", cfg.Repack.ParallelThreshold)
	}
	if cfg.PackCompression() != packfile.CompressionBG4LZ4 {
		t.Errorf("expected compression=bg4_lz4, got %s", cfg.PackCompression())
	}
	if cfg.ExportFormat() != export.FormatYAML {
		t.Errorf("expected format=yaml, got %s", cfg.ExportFormat())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_RequiresUnbagConfig(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when UNBAG_CONFIG not set, got nil")
	}

	expectedMsg := "UNBAG_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithUnbagConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "unbag.yaml")
	configContent := `
serializer:
  indent: 4
pack:
  compression: zstd
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("UNBAG_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Serializer.Indent != 4 {
		t.Errorf("expected indent=4, got %d", cfg.Serializer.Indent)
	}
	if cfg.PackCompression() != packfile.CompressionZstd {
		t.Errorf("expected compression=zstd, got %s", cfg.PackCompression())
	}
	// Unset fields keep their defaults.
	if cfg.Repack.ParallelThreshold != 65536 {
		t.Errorf("expected default parallel_threshold, got %d", cfg.Repack.ParallelThreshold)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("UNBAG_TEST_EXPORTS", "")
	configPath := filepath.Join(t.TempDir(), "unbag.yaml")
	configContent := `
repack:
  workers: 3
  parallel_threshold: 0

export:
  format: csv
  output_dir: ${HOME}/exports/${UNBAG_TEST_EXPORTS:-bags}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Repack.Workers != 3 {
		t.Errorf("expected workers=3, got %d", cfg.Repack.Workers)
	}
	if cfg.Repack.ParallelThreshold != 0 {
		t.Errorf("expected parallel_threshold=0, got %d", cfg.Repack.ParallelThreshold)
	}
	if cfg.ExportFormat() != export.FormatCSV {
		t.Errorf("expected format=csv, got %s", cfg.ExportFormat())
	}
	want := os.Getenv("HOME") + "/exports/bags"
	if cfg.Export.OutputDir != want {
		t.Errorf("expected output_dir=%s, got %s", want, cfg.Export.OutputDir)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	configPath := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(configPath, []byte("serializer: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/unbag",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/unbag",
		},
		{
			input:    "${UNBAG_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "indent too small",
			modify:  func(c *Config) { c.Serializer.Indent = 1 },
			wantErr: "serializer.indent",
		},
		{
			name:    "indent too large",
			modify:  func(c *Config) { c.Serializer.Indent = 10 },
			wantErr: "serializer.indent",
		},
		{
			name:    "negative workers",
			modify:  func(c *Config) { c.Repack.Workers = -1 },
			wantErr: "repack.workers",
		},
		{
			name:    "negative threshold",
			modify:  func(c *Config) { c.Repack.ParallelThreshold = -5 },
			wantErr: "repack.parallel_threshold",
		},
		{
			name:    "unknown compression",
			modify:  func(c *Config) { c.Pack.Compression = "gzip" },
			wantErr: "pack.compression",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Export.Format = "xml" },
			wantErr: "export.format",
		},
		{
			name:    "empty output dir",
			modify:  func(c *Config) { c.Export.OutputDir = "" },
			wantErr: "export.output_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Serializer.Indent = 0
	cfg.Pack.Compression = "brotli"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"serializer.indent", "pack.compression"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestEnsureOutputDir(t *testing.T) {
	cfg := Default()
	cfg.Export.OutputDir = filepath.Join(t.TempDir(), "exports", "nested")

	if err := cfg.EnsureOutputDir(); err != nil {
		t.Fatalf("EnsureOutputDir failed: %v", err)
	}
	info, err := os.Stat(cfg.Export.OutputDir)
	if err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", cfg.Export.OutputDir)
	}
}
