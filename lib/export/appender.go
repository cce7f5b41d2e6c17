// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package export

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/unbag/lib/yamlcodec"
)

// Appender appends rendered records to "<base><extension>". Each
// Append holds an exclusive flock on the file for the duration of the
// write, so independent processes exporting to the same base path
// interleave whole records.
type Appender struct {
	file    *os.File
	format  Format
	options yamlcodec.Options
}

// OpenAppender opens (creating if needed) base plus the format's
// extension for appending. Existing content is kept until a record is
// appended with first set.
func OpenAppender(base string, format Format, options yamlcodec.Options) (*Appender, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	path := base + format.Extension()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	return &Appender{file: file, format: format, options: options}, nil
}

// Path returns the path of the underlying file.
func (a *Appender) Path() string {
	return a.file.Name()
}

// Append renders record and writes it under the file lock. When first
// is true the file is truncated before writing and, for CSV, the header
// row is written. The record is rendered before the lock is taken, so a
// serialization error leaves the file untouched.
func (a *Appender) Append(record Record, first bool) error {
	line, err := Line(a.format, record, a.options, first)
	if err != nil {
		return err
	}

	fd := int(a.file.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking %s: %w", a.file.Name(), err)
	}
	defer unix.Flock(fd, unix.LOCK_UN)

	if first {
		if err := a.file.Truncate(0); err != nil {
			return fmt.Errorf("truncating %s: %w", a.file.Name(), err)
		}
	}
	if _, err := a.file.WriteString(line); err != nil {
		return fmt.Errorf("writing %s: %w", a.file.Name(), err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", a.file.Name(), err)
	}
	return nil
}

// Close closes the underlying file.
func (a *Appender) Close() error {
	return a.file.Close()
}
