// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package packfile

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/zeebo/blake3"
)

const (
	formatVersion = 1

	// headerSize: 4-byte magic, version, compression tag, 2 reserved
	// bytes, u32 record width, u64 record count, u64 uncompressed
	// size, 32-byte digest, u64 compressed size.
	headerSize = 4 + 1 + 1 + 2 + 4 + 8 + 8 + 32 + 8
)

var magic = [4]byte{'U', 'N', 'B', 'P'}

// recordsDomainKey is the BLAKE3 key for body digests: the ASCII
// domain name zero-padded to 32 bytes.
var recordsDomainKey = [32]byte{
	'u', 'n', 'b', 'a', 'g', '.', 'p', 'a', 'c', 'k', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 's',
}

// Digest is the keyed BLAKE3 hash of an uncompressed pack body.
type Digest [32]byte

// String returns the digest in lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Sum computes the body digest of data.
func Sum(data []byte) Digest {
	hasher, err := blake3.NewKeyed(recordsDomainKey[:])
	if err != nil {
		// Only returned for a key that is not 32 bytes.
		panic("packfile: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Pack is a dense buffer of fixed-width records.
type Pack struct {
	RecordWidth int
	Records     int
	Data        []byte
}

// Header is the fixed-size prefix of a pack file.
type Header struct {
	Version          uint8
	Compression      CompressionTag
	RecordWidth      uint32
	Records          uint64
	UncompressedSize uint64
	Digest           Digest
	CompressedSize   uint64
}

// Write compresses p.Data with tag (falling back to none when the
// records do not compress) and writes the pack to w. It returns the
// header that was written.
func Write(w io.Writer, p Pack, tag CompressionTag) (Header, error) {
	if p.RecordWidth < 0 || p.Records < 0 {
		return Header{}, fmt.Errorf("invalid pack shape: %d records of %d bytes", p.Records, p.RecordWidth)
	}
	if p.RecordWidth*p.Records != len(p.Data) {
		return Header{}, fmt.Errorf("pack data is %d bytes, want %d records of %d bytes",
			len(p.Data), p.Records, p.RecordWidth)
	}

	body, used, err := Compress(p.Data, tag)
	if err != nil {
		return Header{}, err
	}

	header := Header{
		Version:          formatVersion,
		Compression:      used,
		RecordWidth:      uint32(p.RecordWidth),
		Records:          uint64(p.Records),
		UncompressedSize: uint64(len(p.Data)),
		Digest:           Sum(p.Data),
		CompressedSize:   uint64(len(body)),
	}
	encoded := header.marshal()
	if _, err := w.Write(encoded[:]); err != nil {
		return Header{}, fmt.Errorf("writing pack header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return Header{}, fmt.Errorf("writing pack body: %w", err)
	}
	return header, nil
}

// ReadHeader reads and validates the fixed header without touching
// the body.
func ReadHeader(r io.Reader) (Header, error) {
	var encoded [headerSize]byte
	if _, err := io.ReadFull(r, encoded[:]); err != nil {
		return Header{}, fmt.Errorf("reading pack header: %w", err)
	}
	if !bytes.Equal(encoded[0:4], magic[:]) {
		return Header{}, fmt.Errorf("not a pack file (magic %q)", encoded[0:4])
	}

	var header Header
	header.Version = encoded[4]
	header.Compression = CompressionTag(encoded[5])
	header.RecordWidth = binary.LittleEndian.Uint32(encoded[8:12])
	header.Records = binary.LittleEndian.Uint64(encoded[12:20])
	header.UncompressedSize = binary.LittleEndian.Uint64(encoded[20:28])
	copy(header.Digest[:], encoded[28:60])
	header.CompressedSize = binary.LittleEndian.Uint64(encoded[60:68])

	if header.Version != formatVersion {
		return Header{}, fmt.Errorf("unsupported pack version %d", header.Version)
	}
	if header.Compression > CompressionBG4LZ4 {
		return Header{}, fmt.Errorf("unsupported compression tag: %d", header.Compression)
	}
	high, bodySize := bits.Mul64(uint64(header.RecordWidth), header.Records)
	if high != 0 || bodySize != header.UncompressedSize {
		return Header{}, fmt.Errorf("pack header inconsistent: %d records of %d bytes but %d body bytes",
			header.Records, header.RecordWidth, header.UncompressedSize)
	}
	return header, nil
}

// Read reads a pack written by Write, decompressing the body and
// verifying its digest.
func Read(r io.Reader) (Pack, Header, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return Pack{}, Header{}, err
	}

	if header.CompressedSize > math.MaxInt64 || header.UncompressedSize > math.MaxInt {
		return Pack{}, Header{}, fmt.Errorf("pack body too large: %d compressed bytes, %d uncompressed",
			header.CompressedSize, header.UncompressedSize)
	}

	// The header sizes are untrusted: the body buffer grows with what
	// the reader actually delivers.
	body, err := io.ReadAll(io.LimitReader(r, int64(header.CompressedSize)))
	if err != nil {
		return Pack{}, Header{}, fmt.Errorf("reading pack body: %w", err)
	}
	if uint64(len(body)) != header.CompressedSize {
		return Pack{}, Header{}, fmt.Errorf("reading pack body: got %d of %d bytes: %w",
			len(body), header.CompressedSize, io.ErrUnexpectedEOF)
	}
	data, err := Decompress(body, header.Compression, int(header.UncompressedSize))
	if err != nil {
		return Pack{}, Header{}, err
	}
	if digest := Sum(data); digest != header.Digest {
		return Pack{}, Header{}, fmt.Errorf("pack digest mismatch: header %s, body %s", header.Digest, digest)
	}

	return Pack{
		RecordWidth: int(header.RecordWidth),
		Records:     int(header.Records),
		Data:        data,
	}, header, nil
}

func (h Header) marshal() [headerSize]byte {
	var encoded [headerSize]byte
	copy(encoded[0:4], magic[:])
	encoded[4] = h.Version
	encoded[5] = byte(h.Compression)
	binary.LittleEndian.PutUint32(encoded[8:12], h.RecordWidth)
	binary.LittleEndian.PutUint64(encoded[12:20], h.Records)
	binary.LittleEndian.PutUint64(encoded[20:28], h.UncompressedSize)
	copy(encoded[28:60], h.Digest[:])
	binary.LittleEndian.PutUint64(encoded[60:68], h.CompressedSize)
	return encoded
}
