// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cachekey derives the content-addressed keys the pipeline cache is
// indexed by, both in memory and on disk.
//
// Keys are plain comparable structs: shader keys hash stage, source text, and
// entry point with XXH64; layout keys embed a fixed-capacity attribute array
// with unused slots zero-filled so that Go equality is exact. A ProgramKey
// combines the per-stage shader keys with the layout key and is used directly
// as a map key.
//
// Derivation is deterministic across processes and runs, which is what makes
// the disk cache format stable.
package cachekey

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/glcache/driver"
)

// Encoded sizes in bytes. The on-disk index depends on these staying fixed.
const (
	ShaderKeySize       = 12
	VertexAttributeSize = 8
	LayoutKeySize       = 8 + driver.MaxVertexAttributes*VertexAttributeSize
	ProgramKeySize      = 3*ShaderKeySize + LayoutKeySize
)

// ErrInvalidKeyLength is returned when an encoded key has the wrong size.
var ErrInvalidKeyLength = errors.New("cachekey: invalid encoded key length")

// ShaderKey identifies a shader by content: a 64-bit hash of stage, source,
// and entry point, plus the source length as a cheap secondary check. The
// zero value marks an absent stage.
type ShaderKey struct {
	Hash         uint64
	SourceLength uint32
}

// LayoutKey identifies a vertex layout. Slots past AttributeCount are
// zero-valued, so two layouts with the same used attributes compare equal.
type LayoutKey struct {
	AttributeCount uint32
	Stride         uint32
	Attributes     [driver.MaxVertexAttributes]driver.VertexAttribute
}

// ProgramKey identifies a linked program configuration. Geometry is the zero
// ShaderKey when the pipeline has no geometry stage.
type ProgramKey struct {
	Vertex   ShaderKey
	Fragment ShaderKey
	Geometry ShaderKey
	Layout   LayoutKey
}

// ShaderKeyFor derives the key for one shader stage. The hash covers the
// stage, the source text, and the entry point name, each length-framed so
// that field boundaries cannot alias.
func ShaderKeyFor(stage driver.ShaderStage, source, entryPoint string) ShaderKey {
	d := xxhash.New()
	hashWriteUint32(d, uint32(stage))
	hashWriteString(d, source)
	hashWriteString(d, entryPoint)
	return ShaderKey{
		Hash:         d.Sum64(),
		SourceLength: uint32(len(source)),
	}
}

// LayoutKeyFor builds the layout key for the given attributes and stride.
// It panics if more than driver.MaxVertexAttributes attributes are supplied;
// that limit is a structural constant of the cache format, not a runtime
// condition.
func LayoutKeyFor(attributes []driver.VertexAttribute, stride uint32) LayoutKey {
	if len(attributes) > driver.MaxVertexAttributes {
		panic(fmt.Sprintf("cachekey: %d vertex attributes exceeds the maximum of %d",
			len(attributes), driver.MaxVertexAttributes))
	}
	key := LayoutKey{
		AttributeCount: uint32(len(attributes)),
		Stride:         stride,
	}
	copy(key.Attributes[:], attributes)
	return key
}

// ProgramKeyFor combines per-stage shader keys and a layout key. A nil
// geometry key records the stage as absent.
func ProgramKeyFor(vertex, fragment ShaderKey, geometry *ShaderKey, layout LayoutKey) ProgramKey {
	key := ProgramKey{
		Vertex:   vertex,
		Fragment: fragment,
		Layout:   layout,
	}
	if geometry != nil {
		key.Geometry = *geometry
	}
	return key
}

func hashWriteUint32(d *xxhash.Digest, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	d.Write(buf[:])
}

func hashWriteString(d *xxhash.Digest, s string) {
	hashWriteUint32(d, uint32(len(s)))
	d.WriteString(s)
}

// Binary encoding. All fields are little-endian; 64-bit hashes are stored
// low half first.
//
//	ShaderKey       hash u64, sourceLength u32             12 bytes
//	VertexAttribute semantic u8, semanticIndex u8,
//	                type u8, components u8, offset u32      8 bytes
//	LayoutKey       attributeCount u32, stride u32,
//	                8 x VertexAttribute                    72 bytes
//	ProgramKey      vertex, fragment, geometry, layout    108 bytes

// MarshalBinary encodes the key into its fixed ProgramKeySize form.
func (k ProgramKey) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ProgramKeySize)
	k.Encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes a key previously produced by MarshalBinary.
func (k *ProgramKey) UnmarshalBinary(data []byte) error {
	if len(data) != ProgramKeySize {
		return ErrInvalidKeyLength
	}
	k.Decode(data)
	return nil
}

// Encode writes the key into buf, which must hold at least ProgramKeySize
// bytes.
func (k ProgramKey) Encode(buf []byte) {
	_ = buf[:ProgramKeySize]
	encodeShaderKey(buf[0:], k.Vertex)
	encodeShaderKey(buf[12:], k.Fragment)
	encodeShaderKey(buf[24:], k.Geometry)
	encodeLayoutKey(buf[36:], k.Layout)
}

// Decode reads the key from buf, which must hold at least ProgramKeySize
// bytes.
func (k *ProgramKey) Decode(buf []byte) {
	_ = buf[:ProgramKeySize]
	k.Vertex = decodeShaderKey(buf[0:])
	k.Fragment = decodeShaderKey(buf[12:])
	k.Geometry = decodeShaderKey(buf[24:])
	k.Layout = decodeLayoutKey(buf[36:])
}

func encodeShaderKey(buf []byte, k ShaderKey) {
	binary.LittleEndian.PutUint64(buf[0:], k.Hash)
	binary.LittleEndian.PutUint32(buf[8:], k.SourceLength)
}

func decodeShaderKey(buf []byte) ShaderKey {
	return ShaderKey{
		Hash:         binary.LittleEndian.Uint64(buf[0:]),
		SourceLength: binary.LittleEndian.Uint32(buf[8:]),
	}
}

func encodeLayoutKey(buf []byte, k LayoutKey) {
	binary.LittleEndian.PutUint32(buf[0:], k.AttributeCount)
	binary.LittleEndian.PutUint32(buf[4:], k.Stride)
	for i, attr := range k.Attributes {
		off := 8 + i*VertexAttributeSize
		buf[off+0] = byte(attr.Semantic)
		buf[off+1] = attr.SemanticIndex
		buf[off+2] = byte(attr.Type)
		buf[off+3] = attr.Components
		binary.LittleEndian.PutUint32(buf[off+4:], attr.Offset)
	}
}

func decodeLayoutKey(buf []byte) LayoutKey {
	key := LayoutKey{
		AttributeCount: binary.LittleEndian.Uint32(buf[0:]),
		Stride:         binary.LittleEndian.Uint32(buf[4:]),
	}
	for i := range key.Attributes {
		off := 8 + i*VertexAttributeSize
		key.Attributes[i] = driver.VertexAttribute{
			Semantic:      driver.AttributeSemantic(buf[off+0]),
			SemanticIndex: buf[off+1],
			Type:          driver.AttributeType(buf[off+2]),
			Components:    buf[off+3],
			Offset:        binary.LittleEndian.Uint32(buf[off+4:]),
		}
	}
	return key
}
