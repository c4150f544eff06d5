// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cachekey

import (
	"bytes"
	"testing"

	"github.com/gogpu/glcache/driver"
)

const (
	vertexSrc   = "#version 330 core\nvoid main() { gl_Position = vec4(0.0); }\n"
	fragmentSrc = "#version 330 core\nout vec4 o_col0;\nvoid main() { o_col0 = vec4(1.0); }\n"
)

func testLayout() LayoutKey {
	return LayoutKeyFor([]driver.VertexAttribute{
		{Semantic: driver.SemanticPosition, Type: driver.TypeFloat32, Components: 4, Offset: 0},
		{Semantic: driver.SemanticTexCoord, Type: driver.TypeFloat32, Components: 2, Offset: 16},
		{Semantic: driver.SemanticColor, Type: driver.TypeUNorm8, Components: 4, Offset: 24},
	}, 28)
}

func TestShaderKeyDeterministic(t *testing.T) {
	a := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")
	b := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")

	if a != b {
		t.Errorf("same inputs produced different keys: %+v vs %+v", a, b)
	}
	if a.SourceLength != uint32(len(vertexSrc)) {
		t.Errorf("SourceLength = %d, want %d", a.SourceLength, len(vertexSrc))
	}
	if a.Hash == 0 {
		t.Error("hash of non-empty source should not be zero")
	}
}

func TestShaderKeySensitivity(t *testing.T) {
	base := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")

	tests := []struct {
		name  string
		stage driver.ShaderStage
		src   string
		entry string
	}{
		{"different source", driver.StageVertex, vertexSrc + " ", "main"},
		{"different stage", driver.StageFragment, vertexSrc, "main"},
		{"different entry", driver.StageVertex, vertexSrc, "main2"},
	}

	for _, tt := range tests {
		got := ShaderKeyFor(tt.stage, tt.src, tt.entry)
		if got == base {
			t.Errorf("%s: key did not change", tt.name)
		}
	}
}

func TestShaderKeyFieldFraming(t *testing.T) {
	// Moving a byte across the source/entry boundary must change the hash.
	a := ShaderKeyFor(driver.StageVertex, "abc", "d")
	b := ShaderKeyFor(driver.StageVertex, "ab", "cd")
	if a.Hash == b.Hash {
		t.Error("source/entry boundary is not framed into the hash")
	}
}

func TestLayoutKeyZeroFill(t *testing.T) {
	key := testLayout()

	if key.AttributeCount != 3 {
		t.Fatalf("AttributeCount = %d, want 3", key.AttributeCount)
	}
	if key.Stride != 28 {
		t.Fatalf("Stride = %d, want 28", key.Stride)
	}
	var zero driver.VertexAttribute
	for i := 3; i < driver.MaxVertexAttributes; i++ {
		if key.Attributes[i] != zero {
			t.Errorf("slot %d not zero-filled: %+v", i, key.Attributes[i])
		}
	}

	// Equality holds regardless of how the source slices were built.
	attrs := make([]driver.VertexAttribute, 3, driver.MaxVertexAttributes)
	copy(attrs, key.Attributes[:3])
	if again := LayoutKeyFor(attrs, 28); again != key {
		t.Error("equivalent layouts produced different keys")
	}
}

func TestLayoutKeyForPanicsOnOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for attribute count over the maximum")
		}
	}()
	LayoutKeyFor(make([]driver.VertexAttribute, driver.MaxVertexAttributes+1), 0)
}

func TestProgramKeyComposition(t *testing.T) {
	vs := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")
	fs := ShaderKeyFor(driver.StageFragment, fragmentSrc, "main")
	gs := ShaderKeyFor(driver.StageGeometry, "void main() {}", "main")
	layout := testLayout()

	noGeom := ProgramKeyFor(vs, fs, nil, layout)
	if noGeom.Geometry != (ShaderKey{}) {
		t.Errorf("absent geometry stage should be zero, got %+v", noGeom.Geometry)
	}

	withGeom := ProgramKeyFor(vs, fs, &gs, layout)
	if withGeom == noGeom {
		t.Error("adding a geometry stage did not change the key")
	}

	swapped := ProgramKeyFor(fs, vs, nil, layout)
	if swapped == noGeom {
		t.Error("swapping vertex and fragment keys did not change the key")
	}

	otherLayout := ProgramKeyFor(vs, fs, nil, LayoutKeyFor(nil, 0))
	if otherLayout == noGeom {
		t.Error("changing the layout did not change the key")
	}
}

func TestProgramKeyAsMapKey(t *testing.T) {
	vs := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")
	fs := ShaderKeyFor(driver.StageFragment, fragmentSrc, "main")
	key := ProgramKeyFor(vs, fs, nil, testLayout())

	m := map[ProgramKey]int{key: 1}
	same := ProgramKeyFor(vs, fs, nil, testLayout())
	if m[same] != 1 {
		t.Error("recomputed key did not hit the map entry")
	}
}

func TestProgramKeyBinaryRoundTrip(t *testing.T) {
	vs := ShaderKeyFor(driver.StageVertex, vertexSrc, "main")
	fs := ShaderKeyFor(driver.StageFragment, fragmentSrc, "main")
	key := ProgramKeyFor(vs, fs, nil, testLayout())

	data, err := key.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != ProgramKeySize {
		t.Fatalf("encoded length = %d, want %d", len(data), ProgramKeySize)
	}

	var back ProgramKey
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if back != key {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, key)
	}

	// Encoding is itself deterministic.
	again, _ := key.MarshalBinary()
	if !bytes.Equal(data, again) {
		t.Error("two encodings of the same key differ")
	}

	if err := back.UnmarshalBinary(data[:ProgramKeySize-1]); err == nil {
		t.Error("expected an error for a truncated encoding")
	}
}
