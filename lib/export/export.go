// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/unbag/lib/structval"
	"github.com/bureau-foundation/unbag/lib/yamlcodec"
)

// Format is an export line format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "yaml", "json" and "csv", and the MIME-style
// "text/yaml", "text/json", "text/csv" spellings.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), "text/") {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want yaml, json or csv)", name)
	}
}

// Extension returns the file extension for the format, including the
// leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Record is one message with its header time.
type Record struct {
	Time    time.Time
	Message structval.Value
}

// Stamp converts a sec/nanosec header stamp to a UTC time.
func Stamp(sec int64, nanosec uint32) time.Time {
	return time.Unix(sec, int64(nanosec)).UTC()
}

// FormatTimestamp renders t as "2006-01-02 15:04:05", with a six-digit
// microsecond fraction appended only when it is non-zero. Sub-microsecond
// precision is truncated.
func FormatTimestamp(t time.Time) string {
	base := t.Format("2006-01-02 15:04:05")
	micros := t.Nanosecond() / 1000
	if micros == 0 {
		return base
	}
	return fmt.Sprintf("%s.%06d", base, micros)
}

// YAML renders the record as a YAML block keyed by its timestamp. The
// returned text ends with a blank line so consecutive records stay
// visually separated when appended.
func YAML(record Record, options yamlcodec.Options) (string, error) {
	body, err := yamlcodec.SerializeWith(record.Message, options)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(FormatTimestamp(record.Time))
	builder.WriteString(":\n")
	for _, line := range strings.SplitAfter(body, "\n") {
		if strings.TrimSpace(line) != "" {
			builder.WriteString("  ")
		}
		builder.WriteString(line)
	}
	builder.WriteString("\n")
	return builder.String(), nil
}

// JSON renders the record as a single-line JSON object mapping the
// timestamp to the message, terminated by a newline.
func JSON(record Record) (string, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	if err := writeJSONString(&buffer, FormatTimestamp(record.Time)); err != nil {
		return "", err
	}
	buffer.WriteString(": ")
	if err := writeJSON(&buffer, record.Message); err != nil {
		return "", err
	}
	buffer.WriteString("}\n")
	return buffer.String(), nil
}

func writeJSON(buffer *bytes.Buffer, value structval.Value) error {
	switch typed := value.(type) {
	case *structval.Mapping:
		if typed == nil {
			buffer.WriteString("null")
			return nil
		}
		buffer.WriteByte('{')
		for i, entry := range typed.Entries() {
			if i > 0 {
				buffer.WriteString(", ")
			}
			if err := writeJSONString(buffer, entry.Key); err != nil {
				return err
			}
			buffer.WriteString(": ")
			if err := writeJSON(buffer, entry.Value); err != nil {
				return err
			}
		}
		buffer.WriteByte('}')
	case structval.Sequence:
		buffer.WriteByte('[')
		for i, element := range typed {
			if i > 0 {
				buffer.WriteString(", ")
			}
			if err := writeJSON(buffer, element); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	case structval.Bool:
		buffer.WriteString(strconv.FormatBool(bool(typed)))
	case structval.Int:
		buffer.WriteString(strconv.FormatInt(int64(typed), 10))
	case structval.Float:
		number := float64(typed)
		if math.IsInf(number, 0) || math.IsNaN(number) {
			return writeJSONString(buffer, yamlcodec.FormatFloat(number))
		}
		buffer.WriteString(strconv.FormatFloat(number, 'g', -1, 64))
	case structval.Text:
		return writeJSONString(buffer, string(typed))
	default:
		buffer.WriteString("null")
	}
	return nil
}

func writeJSONString(buffer *bytes.Buffer, text string) error {
	encoded, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("encoding JSON string: %w", err)
	}
	buffer.Write(encoded)
	return nil
}

// Column is one flattened message entry.
type Column struct {
	Key   string
	Value structval.Value
}

// Flatten walks nested mappings depth-first and returns their leaves in
// order, keyed by the path of mapping keys joined with separator.
// Sequences are leaves. A non-mapping root yields a single column with
// an empty key.
func Flatten(value structval.Value, separator string) []Column {
	mapping, ok := value.(*structval.Mapping)
	if !ok || mapping == nil {
		return []Column{{Key: "", Value: value}}
	}
	var columns []Column
	flattenInto(&columns, mapping, "", separator)
	return columns
}

func flattenInto(columns *[]Column, mapping *structval.Mapping, prefix, separator string) {
	for _, entry := range mapping.Entries() {
		key := entry.Key
		if prefix != "" {
			key = prefix + separator + entry.Key
		}
		if nested, ok := entry.Value.(*structval.Mapping); ok && nested != nil {
			flattenInto(columns, nested, key, separator)
			continue
		}
		*columns = append(*columns, Column{Key: key, Value: entry.Value})
	}
}

// CSV renders the record as a CSV values row, preceded by a header row
// ("timestamp" followed by the flattened keys) when header is true.
// Scalars use their plain text; sequences are written as JSON arrays
// and null as an empty cell.
func CSV(record Record, header bool) (string, error) {
	columns := Flatten(record.Message, ".")

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if header {
		row := make([]string, 0, len(columns)+1)
		row = append(row, "timestamp")
		for _, column := range columns {
			row = append(row, column.Key)
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV header: %w", err)
		}
	}

	row := make([]string, 0, len(columns)+1)
	row = append(row, FormatTimestamp(record.Time))
	for _, column := range columns {
		cell, err := cellText(column.Value)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", column.Key, err)
		}
		row = append(row, cell)
	}
	if err := writer.Write(row); err != nil {
		return "", fmt.Errorf("writing CSV row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("writing CSV row: %w", err)
	}
	return buffer.String(), nil
}

func cellText(value structval.Value) (string, error) {
	switch typed := value.(type) {
	case structval.Bool:
		return strconv.FormatBool(bool(typed)), nil
	case structval.Int:
		return strconv.FormatInt(int64(typed), 10), nil
	case structval.Float:
		return yamlcodec.FormatFloat(float64(typed)), nil
	case structval.Text:
		return string(typed), nil
	case structval.Sequence, *structval.Mapping:
		var buffer bytes.Buffer
		if err := writeJSON(&buffer, typed); err != nil {
			return "", err
		}
		return buffer.String(), nil
	default:
		return "", nil
	}
}

// Line renders the record in the given format. header only affects CSV.
func Line(format Format, record Record, options yamlcodec.Options, header bool) (string, error) {
	switch format {
	case FormatYAML:
		return YAML(record, options)
	case FormatJSON:
		return JSON(record)
	case FormatCSV:
		return CSV(record, header)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}
