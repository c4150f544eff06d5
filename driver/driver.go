// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package driver

// Driver is the capability surface the pipeline cache compiles, links, and
// persists programs through. A zero handle always means "no object".
//
// Implementations are not required to be safe for concurrent use; the cache
// confines all calls to a single context-owning thread.
type Driver interface {
	// CompileShader compiles source for the given stage. On success it
	// returns a non-zero shader handle; log carries any driver warnings.
	// On failure the handle is zero and log carries the driver's
	// diagnostic text.
	CompileShader(stage ShaderStage, source string) (id uint32, log string, err error)

	// DeleteShader destroys a shader object. Deleting handle zero is a
	// no-op.
	DeleteShader(id uint32)

	// CreateProgram allocates an empty program object.
	CreateProgram() (uint32, error)

	// AttachShader attaches a compiled shader to a program.
	AttachShader(program, shader uint32)

	// BindAttribLocation assigns a vertex attribute name to a location.
	// Must precede LinkProgram to take effect.
	BindAttribLocation(program, location uint32, name string)

	// BindFragDataLocation assigns a fragment output name to a color
	// number. Must precede LinkProgram.
	BindFragDataLocation(program, color uint32, name string)

	// BindFragDataLocationIndexed assigns a fragment output name to a
	// color number and blend source index, for dual-source blending.
	// Only valid when Features().DualSourceBlend is set.
	BindFragDataLocationIndexed(program, color, index uint32, name string)

	// LinkProgram links the program. On failure the returned error is
	// non-nil and log carries the driver's diagnostic text; the program
	// object remains and must be deleted by the caller. On success log
	// may carry warnings.
	LinkProgram(program uint32) (log string, err error)

	// DeleteProgram destroys a program object. Zero is a no-op. The
	// cache unbinds a program before deleting it.
	DeleteProgram(id uint32)

	// UseProgram binds a program for subsequent rendering and uniform
	// assignment. Zero unbinds.
	UseProgram(id uint32)

	// SetRetrievableHint marks a program, before linking, as one whose
	// binary will be retrieved. Drivers may use it to keep the binary
	// form around.
	SetRetrievableHint(program uint32)

	// ProgramBinary retrieves the driver-specific binary of a linked
	// program. A nil/empty slice means the driver does not support
	// retrieval for this program; that is not an error.
	ProgramBinary(program uint32) (data []byte, format uint32)

	// LoadProgramBinary creates a program from a previously retrieved
	// binary and verifies its link status. On failure no program object
	// survives.
	LoadProgramBinary(data []byte, format uint32) (uint32, error)

	// BindUniformBlock assigns a named uniform block to a binding point.
	// Returns false if the program has no such block.
	BindUniformBlock(program uint32, name string, binding uint32) bool

	// BindSamplerUniform assigns a named sampler uniform to a texture
	// unit without disturbing the currently bound program. Returns false
	// if the program has no such uniform.
	BindSamplerUniform(program uint32, name string, unit int32) bool

	// CreateVertexArray builds a vertex array object for the given
	// attribute layout. Attribute locations follow slice order. The
	// currently bound array buffer is captured, per usual GL semantics.
	CreateVertexArray(attributes []VertexAttribute, stride uint32) (uint32, error)

	// DeleteVertexArray destroys a vertex array object. Zero is a no-op.
	DeleteVertexArray(id uint32)

	// BindVertexArray binds a vertex array for subsequent rendering.
	// Zero unbinds.
	BindVertexArray(id uint32)

	// Identity reports the driver identity used to validate cached
	// program binaries.
	Identity() Identity

	// Features reports the driver's optional capabilities.
	Features() Features
}
