// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package driver

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageGeometry
	StageCompute
)

// String returns the lowercase stage name.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// MaxVertexAttributes is the fixed capacity of a vertex layout. Layout keys
// reserve this many attribute slots so that unused slots are zero-filled and
// key equality is exact.
const MaxVertexAttributes = 8

// AttributeType is the component type of a vertex attribute.
type AttributeType uint8

const (
	TypeFloat32 AttributeType = iota
	TypeUNorm8
	TypeUInt8
	TypeSInt8
	TypeUNorm16
	TypeUInt16
	TypeSInt16
	TypeUInt32
	TypeSInt32
)

// AttributeSemantic labels what a vertex attribute feeds in the shader.
// Attribute locations are bound by semantic name on drivers without an
// explicit binding layout.
type AttributeSemantic uint8

const (
	SemanticPosition AttributeSemantic = iota
	SemanticTexCoord
	SemanticColor
)

// VertexAttribute describes one attribute of a vertex layout. All fields
// participate in cache key equality, so the struct must stay free of
// padding-sensitive or reference types.
type VertexAttribute struct {
	Semantic      AttributeSemantic
	SemanticIndex uint8
	Type          AttributeType
	Components    uint8
	Offset        uint32
}

// Features reports optional capabilities of a driver. The cache adapts its
// link-time behavior to these.
type Features struct {
	// BindingLayout is true when shaders carry explicit binding layout
	// qualifiers, making manual attribute/output/uniform binding
	// unnecessary.
	BindingLayout bool

	// DualSourceBlend is true when a second fragment output may be bound
	// as a blend source.
	DualSourceBlend bool
}
