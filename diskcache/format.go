// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diskcache

import (
	"bytes"
	"encoding/binary"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/driver"
)

const (
	// identityFieldSize holds driver.MaxIdentityLen bytes plus a NUL.
	identityFieldSize = driver.MaxIdentityLen + 1

	// FooterSize is the fixed footer: version u32, programCount u32, and
	// three identity fields. 392 bytes.
	FooterSize = 8 + 3*identityFieldSize

	// IndexEntrySize is the fixed index entry: an encoded ProgramKey
	// followed by format, offset, uncompressedSize, compressedSize.
	// 124 bytes.
	IndexEntrySize = cachekey.ProgramKeySize + 16
)

// Record locates one compressed binary inside the data region. A zero
// UncompressedSize means "not disk-backed".
type Record struct {
	Format           uint32
	Offset           uint32
	UncompressedSize uint32
	CompressedSize   uint32
}

// IndexEntry pairs a program key with its blob location. The slice returned
// by Open, and the one passed to Close, use this form.
type IndexEntry struct {
	Key cachekey.ProgramKey
	Record
}

func encodeIndexEntry(buf []byte, e IndexEntry) {
	e.Key.Encode(buf)
	binary.LittleEndian.PutUint32(buf[cachekey.ProgramKeySize+0:], e.Format)
	binary.LittleEndian.PutUint32(buf[cachekey.ProgramKeySize+4:], e.Offset)
	binary.LittleEndian.PutUint32(buf[cachekey.ProgramKeySize+8:], e.UncompressedSize)
	binary.LittleEndian.PutUint32(buf[cachekey.ProgramKeySize+12:], e.CompressedSize)
}

func decodeIndexEntry(buf []byte) IndexEntry {
	var e IndexEntry
	e.Key.Decode(buf)
	e.Format = binary.LittleEndian.Uint32(buf[cachekey.ProgramKeySize+0:])
	e.Offset = binary.LittleEndian.Uint32(buf[cachekey.ProgramKeySize+4:])
	e.UncompressedSize = binary.LittleEndian.Uint32(buf[cachekey.ProgramKeySize+8:])
	e.CompressedSize = binary.LittleEndian.Uint32(buf[cachekey.ProgramKeySize+12:])
	return e
}

func encodeFooter(buf []byte, version, programCount uint32, id driver.Identity) {
	binary.LittleEndian.PutUint32(buf[0:], version)
	binary.LittleEndian.PutUint32(buf[4:], programCount)
	encodeIdentityField(buf[8:], id.Vendor)
	encodeIdentityField(buf[8+identityFieldSize:], id.Renderer)
	encodeIdentityField(buf[8+2*identityFieldSize:], id.Version)
}

func decodeFooter(buf []byte) (version, programCount uint32, id driver.Identity) {
	version = binary.LittleEndian.Uint32(buf[0:])
	programCount = binary.LittleEndian.Uint32(buf[4:])
	id = driver.NewIdentity(
		decodeIdentityField(buf[8:]),
		decodeIdentityField(buf[8+identityFieldSize:]),
		decodeIdentityField(buf[8+2*identityFieldSize:]),
	)
	return version, programCount, id
}

// encodeIdentityField zero-pads s into a fixed field. Identity strings are
// already truncated to MaxIdentityLen, leaving at least one NUL.
func encodeIdentityField(buf []byte, s string) {
	field := buf[:identityFieldSize]
	for i := range field {
		field[i] = 0
	}
	copy(field, s)
}

func decodeIdentityField(buf []byte) string {
	field := buf[:identityFieldSize]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
