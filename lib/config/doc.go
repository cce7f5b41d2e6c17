// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for unbag-codec.
//
// Configuration is loaded from a single file specified by either the
// UNBAG_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without either, commands run on [Default].
//
// The file sets defaults that command-line flags may still override:
// serializer indentation, repack parallelism, pack compression, and
// the export format and output directory. Export.OutputDir supports
// ${HOME} and ${VAR:-default} expansion; no other environment
// variables override config values.
//
// [Config.Validate] reports every invalid field at once through
// errors.Join.
package config
