// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bureau-foundation/unbag/lib/codec"
	"github.com/bureau-foundation/unbag/lib/packfile"
	"github.com/bureau-foundation/unbag/lib/pointcloud"
	"github.com/bureau-foundation/unbag/lib/pointfield"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCommand(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// threePointCloud has x, y, z float32 and a uint8 ring at stride 16.
func threePointCloud() *pointcloud.Cloud {
	data := make([]byte, 48)
	for i := 0; i < 3; i++ {
		record := data[i*16:]
		binary.LittleEndian.PutUint32(record[0:], math.Float32bits(float32(i)+0.5))
		binary.LittleEndian.PutUint32(record[4:], math.Float32bits(float32(-i)))
		binary.LittleEndian.PutUint32(record[8:], math.Float32bits(2))
		record[12] = byte(10 + i)
	}
	return &pointcloud.Cloud{
		Height: 1,
		Width:  3,
		Fields: []pointcloud.Field{
			{Name: "x", Offset: 0, Datatype: pointfield.Float32, Count: 1},
			{Name: "y", Offset: 4, Datatype: pointfield.Float32, Count: 1},
			{Name: "z", Offset: 8, Datatype: pointfield.Float32, Count: 1},
			{Name: "ring", Offset: 12, Datatype: pointfield.Uint8, Count: 1},
		},
		PointStep: 16,
		RowStep:   48,
		Data:      data,
	}
}

func writeRequest(t *testing.T, request cloudRequest) string {
	t.Helper()
	data, err := codec.Marshal(request)
	if err != nil {
		t.Fatalf("encoding request: %v", err)
	}
	return writeFile(t, "request.cbor", data)
}

func TestVersion(t *testing.T) {
	got := runCommand(t, "", "--version")
	if got.code != 0 || !strings.HasPrefix(got.stdout, "unbag-codec ") {
		t.Errorf("--version = %d %q", got.code, got.stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", nil},
		{"unknown subcommand", []string{"frobnicate"}},
		{"unknown flag", []string{"yaml", "--bogus", "x.json"}},
		{"missing input", []string{"yaml"}},
		{"bad color", []string{"yaml", "--color", "sometimes", "-"}},
		{"bad indent", []string{"yaml", "--indent", "12", "-"}},
		{"export without output", []string{"export", "-"}},
		{"repack without request", []string{"repack", "--output", "x"}},
		{"bad compression", []string{"repack", "--request", "r", "--output", "o", "--compression", "gzip"}},
		{"bad encoding", []string{"pcd", "--request", "r", "--output", "o", "--encoding", "binary_lzma"}},
		{"missing config", []string{"--config", "/nonexistent/unbag.yaml", "yaml", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runCommand(t, "{}", tt.args...)
			if got.code != 2 {
				t.Errorf("exit code = %d, want 2 (stderr: %s)", got.code, got.stderr)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	got := runCommand(t, "", "--help")
	if got.code != 0 || !strings.Contains(got.stderr, "Commands:") {
		t.Errorf("--help = %d, stderr %q", got.code, got.stderr)
	}

	got = runCommand(t, "", "repack", "--help")
	if got.code != 0 || !strings.Contains(got.stderr, "--compression") {
		t.Errorf("repack --help = %d, stderr %q", got.code, got.stderr)
	}
}

func TestYAMLFromJSON(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	input := writeFile(t, "message.json", []byte(`{"a": 1, "b": [true, 2.5]}`))

	got := runCommand(t, "", "yaml", "--color", "never", input)
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	want := "a: 1\nb:\n  - true\n  - \"2.5\"\n"
	if got.stdout != want {
		t.Errorf("stdout = %q, want %q", got.stdout, want)
	}
}

func TestYAMLFromMsgpackStdin(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	data, err := msgpack.Marshal(map[string]any{"range": 1.5})
	if err != nil {
		t.Fatal(err)
	}

	got := runCommand(t, string(data), "yaml", "--input-format", "msgpack", "-")
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if got.stdout != "range: \"1.5\"\n" {
		t.Errorf("stdout = %q", got.stdout)
	}
}

func TestYAMLIndentFromConfig(t *testing.T) {
	configPath := writeFile(t, "unbag.yaml", []byte("serializer:\n  indent: 4\n"))
	input := writeFile(t, "message.json", []byte(`{"outer": {"inner": 1}}`))

	got := runCommand(t, "", "--config", configPath, "yaml", input)
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if got.stdout != "outer:\n    inner: 1\n" {
		t.Errorf("stdout = %q", got.stdout)
	}
}

func TestYAMLColor(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	got := runCommand(t, `{"a": "b"}`, "yaml", "--color", "always", "-")
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if !strings.Contains(got.stdout, "\x1b[") {
		t.Errorf("--color always produced no escape sequences: %q", got.stdout)
	}
}

func TestYAMLDecodeFailure(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	got := runCommand(t, `{"a": `, "yaml", "-")
	if got.code != 1 {
		t.Errorf("exit code = %d, want 1", got.code)
	}
}

func TestExport(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	base := filepath.Join(t.TempDir(), "imu")
	first := writeFile(t, "m0.json", []byte(`{"header": {"stamp": {"sec": 1700000000, "nanosec": 500000000}}, "value": 1}`))
	second := writeFile(t, "m1.json", []byte(`{"header": {"stamp": {"sec": 1700000001, "nanosec": 0}}, "value": 2}`))

	got := runCommand(t, "", "export", "--format", "json", "--output", base, "--first", first)
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if !strings.Contains(got.stderr, `"msg":"exported message"`) {
		t.Errorf("expected a JSON log record on stderr, got %q", got.stderr)
	}
	got = runCommand(t, "", "export", "--format", "json", "--output", base, second)
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}

	content, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	want := `{"2023-11-14 22:13:20.500000": {"header": {"stamp": {"sec": 1700000000, "nanosec": 500000000}}, "value": 1}}` + "\n" +
		`{"2023-11-14 22:13:21": {"header": {"stamp": {"sec": 1700000001, "nanosec": 0}}, "value": 2}}` + "\n"
	if string(content) != want {
		t.Errorf("export file =\n%s\nwant\n%s", content, want)
	}
}

func TestExportRelativeToOutputDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "exports")
	configPath := writeFile(t, "unbag.yaml", []byte("export:\n  format: csv\n  output_dir: "+outputDir+"\n"))

	got := runCommand(t, `{"v": 3}`, "--config", configPath, "export", "--output", "scan", "--stamp", "12.25", "--first", "-")
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	content, err := os.ReadFile(filepath.Join(outputDir, "scan.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "timestamp,v\n1970-01-01 00:00:12.250000,3\n" {
		t.Errorf("csv = %q", content)
	}
}

func TestExportRequiresStamp(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	base := filepath.Join(t.TempDir(), "out")
	got := runCommand(t, `{"value": 1}`, "export", "--output", base, "-")
	if got.code != 2 {
		t.Errorf("exit code = %d, want 2", got.code)
	}
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		input   string
		sec     int64
		nanosec int
		wantErr bool
	}{
		{input: "12", sec: 12},
		{input: "12.5", sec: 12, nanosec: 500000000},
		{input: "12.000000001", sec: 12, nanosec: 1},
		{input: "12.0000000001", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "12.x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseStamp(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseStamp(%q) should fail", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseStamp(%q): %v", tt.input, err)
			continue
		}
		if got.Unix() != tt.sec || got.Nanosecond() != tt.nanosec {
			t.Errorf("parseStamp(%q) = %d.%09d", tt.input, got.Unix(), got.Nanosecond())
		}
	}
}

func TestRepackCloud(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	cloud := threePointCloud()
	request := writeRequest(t, cloudRequest{Cloud: cloud, Fields: []string{"ring", "x"}})
	output := filepath.Join(t.TempDir(), "out.unbp")

	got := runCommand(t, "", "repack", "--request", request, "--output", output, "--compression", "zstd")
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}

	file, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	pack, _, err := packfile.Read(file)
	if err != nil {
		t.Fatalf("reading pack: %v", err)
	}

	want, err := pointfield.Repack(cloud.Data, []int{12, 0},
		[]pointfield.TypeTag{pointfield.Uint8, pointfield.Float32}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if pack.RecordWidth != 5 || pack.Records != 3 || !bytes.Equal(pack.Data, want) {
		t.Errorf("pack = %d x %d %x, want 3 x 5 %x", pack.Records, pack.RecordWidth, pack.Data, want)
	}
}

func TestRepackDescriptorParallel(t *testing.T) {
	configPath := writeFile(t, "unbag.yaml", []byte("repack:\n  workers: 3\n  parallel_threshold: 2\npack:\n  compression: none\n"))

	data := []byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3F,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
		0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x40,
	}
	request := writeRequest(t, cloudRequest{
		Data:      data,
		Offsets:   []int{4, 0},
		Types:     []string{"f", "uint32"},
		PointStep: 8,
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", configPath, "repack", "--request", request, "--output", "-"}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	pack, header, err := packfile.Read(&stdout)
	if err != nil {
		t.Fatalf("reading pack: %v", err)
	}
	if header.Compression != packfile.CompressionNone {
		t.Errorf("compression = %s, want none", header.Compression)
	}
	want := []byte{
		0x00, 0x00, 0x80, 0x3F, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x40, 0x02, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x40, 0x40, 0x03, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(pack.Data, want) {
		t.Errorf("pack data = %x, want %x", pack.Data, want)
	}
}

func TestRepackInvalidDescriptor(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	request := writeRequest(t, cloudRequest{
		Data:      make([]byte, 16),
		Offsets:   []int{6},
		Types:     []string{"float32"},
		PointStep: 8,
	})
	output := filepath.Join(t.TempDir(), "out.unbp")

	got := runCommand(t, "", "repack", "--request", request, "--output", output)
	if got.code != 1 {
		t.Fatalf("exit code = %d, want 1", got.code)
	}
	if !strings.Contains(got.stderr, "does not fit in point step") {
		t.Errorf("stderr = %q, want an out-of-bounds error", got.stderr)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output file should not be created on failure")
	}
}

func TestPCDAndXYZ(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	request := writeRequest(t, cloudRequest{Cloud: threePointCloud(), Fields: []string{"x", "ring"}})

	got := runCommand(t, "", "pcd", "--request", request, "--output", "-", "--encoding", "ascii")
	if got.code != 0 {
		t.Fatalf("pcd exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if !strings.Contains(got.stdout, "FIELDS x ring\n") || !strings.HasSuffix(got.stdout, "DATA ascii\n0.5 10\n1.5 11\n2.5 12\n") {
		t.Errorf("pcd output =\n%s", got.stdout)
	}

	got = runCommand(t, "", "pcd", "--request", request, "--output", "-", "--encoding", "binary_compressed")
	if got.code != 0 {
		t.Fatalf("pcd binary_compressed exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if !strings.Contains(got.stdout, "POINTS 3\nDATA binary_compressed\n") {
		t.Errorf("pcd binary_compressed output =\n%q", got.stdout)
	}

	got = runCommand(t, "", "xyz", "--request", request, "--output", "-")
	if got.code != 0 {
		t.Fatalf("xyz exit code = %d, stderr: %s", got.code, got.stderr)
	}
	if got.stdout != "0.5 0 2\n1.5 -1 2\n2.5 -2 2\n" {
		t.Errorf("xyz output = %q", got.stdout)
	}
}

func TestInspectRejectsOversizedBody(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	var pack bytes.Buffer
	if _, err := packfile.Write(&pack, packfile.Pack{RecordWidth: 4, Records: 1, Data: []byte{1, 2, 3, 4}}, packfile.CompressionNone); err != nil {
		t.Fatal(err)
	}
	data := pack.Bytes()
	// Compressed size field, the last eight header bytes.
	binary.LittleEndian.PutUint64(data[60:68], 1<<62)
	path := writeFile(t, "oversized.unbp", data)

	got := runCommand(t, "", "inspect", "--verify", path)
	if got.code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr: %s", got.code, got.stderr)
	}
	if !strings.Contains(got.stderr, "reading pack body") {
		t.Errorf("stderr = %q, want a body read error", got.stderr)
	}
}

func TestInspect(t *testing.T) {
	t.Setenv("UNBAG_CONFIG", "")
	var pack bytes.Buffer
	header, err := packfile.Write(&pack, packfile.Pack{RecordWidth: 4, Records: 2, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}, packfile.CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "pack.unbp", pack.Bytes())

	got := runCommand(t, "", "inspect", "--verify", "--color", "never", path)
	if got.code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", got.code, got.stderr)
	}
	prefix := "version: 1\n" +
		"compression: none\n" +
		"record_width: 4\n" +
		"records: 2\n" +
		"uncompressed_size: 8\n" +
		"compressed_size: 8\n" +
		"digest: "
	if !strings.HasPrefix(got.stdout, prefix) {
		t.Errorf("inspect output =\n%s\nwant prefix\n%s", got.stdout, prefix)
	}
	if !strings.Contains(got.stdout, header.Digest.String()) || !strings.HasSuffix(got.stdout, "verified: true\n") {
		t.Errorf("inspect output missing digest or verification:\n%s", got.stdout)
	}

	corrupted := bytes.Clone(pack.Bytes())
	corrupted[len(corrupted)-1] ^= 0xFF
	got = runCommand(t, "", "inspect", "--verify", writeFile(t, "bad.unbp", corrupted))
	if got.code != 1 || !strings.Contains(got.stderr, "digest mismatch") {
		t.Errorf("inspect --verify on corrupt pack = %d, stderr %q", got.code, got.stderr)
	}
}
