// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package gldriver implements the pipeline cache's driver surface over
// desktop OpenGL 4.1 core, the first version where the program binary API
// (glGetProgramBinary, glProgramBinary) is core rather than an extension.
//
// A GL context must be current on the calling thread before New, and every
// method must run on that thread. The package issues no calls outside the
// driver interface: buffers, textures, and draw state belong to the renderer.
package gldriver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/glcache/driver"
)

// Driver is the OpenGL implementation of driver.Driver.
type Driver struct {
	identity driver.Identity
	features driver.Features
}

// New loads the OpenGL function pointers from the current context and
// captures the driver identity the binary cache is validated against.
func New() (*Driver, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gldriver: loading OpenGL functions: %w", err)
	}
	return &Driver{
		identity: driver.NewIdentity(
			gl.GoStr(gl.GetString(gl.VENDOR)),
			gl.GoStr(gl.GetString(gl.RENDERER)),
			gl.GoStr(gl.GetString(gl.VERSION)),
		),
		features: driver.Features{
			// Dual-source fragment outputs are core since 3.3. Explicit
			// binding qualifiers arrived with GLSL 420, above this backend,
			// so the cache binds attributes and uniforms by name.
			DualSourceBlend: true,
		},
	}, nil
}

func glShaderType(stage driver.ShaderStage) (uint32, error) {
	switch stage {
	case driver.StageVertex:
		return gl.VERTEX_SHADER, nil
	case driver.StageFragment:
		return gl.FRAGMENT_SHADER, nil
	case driver.StageGeometry:
		return gl.GEOMETRY_SHADER, nil
	default:
		return 0, fmt.Errorf("gldriver: no OpenGL 4.1 shader type for %s stage", stage)
	}
}

func (d *Driver) CompileShader(stage driver.ShaderStage, source string) (uint32, string, error) {
	xtype, err := glShaderType(stage)
	if err != nil {
		return 0, "", err
	}
	shader := gl.CreateShader(xtype)
	if shader == 0 {
		return 0, "", errors.New("gldriver: glCreateShader returned 0")
	}

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	log := shaderInfoLog(shader)
	if status == gl.FALSE {
		gl.DeleteShader(shader)
		return 0, log, fmt.Errorf("gldriver: %s shader failed to compile", stage)
	}
	return shader, log, nil
}

func (d *Driver) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func (d *Driver) CreateProgram() (uint32, error) {
	gl.GetError()
	program := gl.CreateProgram()
	if err := gl.GetError(); err != gl.NO_ERROR || program == 0 {
		return 0, fmt.Errorf("gldriver: glCreateProgram failed: error %#x", err)
	}
	return program, nil
}

func (d *Driver) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (d *Driver) BindAttribLocation(program, location uint32, name string) {
	gl.BindAttribLocation(program, location, gl.Str(name+"\x00"))
}

func (d *Driver) BindFragDataLocation(program, color uint32, name string) {
	gl.BindFragDataLocation(program, color, gl.Str(name+"\x00"))
}

func (d *Driver) BindFragDataLocationIndexed(program, color, index uint32, name string) {
	gl.BindFragDataLocationIndexed(program, color, index, gl.Str(name+"\x00"))
}

func (d *Driver) LinkProgram(program uint32) (string, error) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	log := programInfoLog(program)
	if status == gl.FALSE {
		return log, errors.New("gldriver: program failed to link")
	}
	return log, nil
}

func (d *Driver) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *Driver) UseProgram(id uint32) {
	gl.UseProgram(id)
}

func (d *Driver) SetRetrievableHint(program uint32) {
	gl.ProgramParameteri(program, gl.PROGRAM_BINARY_RETRIEVABLE_HINT, gl.TRUE)
}

func (d *Driver) ProgramBinary(program uint32) ([]byte, uint32) {
	var size int32
	gl.GetProgramiv(program, gl.PROGRAM_BINARY_LENGTH, &size)
	if size <= 0 {
		return nil, 0
	}
	data := make([]byte, size)
	var format uint32
	gl.GetProgramBinary(program, size, &size, &format, gl.Ptr(data))
	if size <= 0 {
		return nil, 0
	}
	return data[:size], format
}

func (d *Driver) LoadProgramBinary(data []byte, format uint32) (uint32, error) {
	program, err := d.CreateProgram()
	if err != nil {
		return 0, err
	}
	gl.ProgramBinary(program, format, gl.Ptr(data), int32(len(data)))

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("gldriver: driver rejected program binary (format %#x, %d bytes)",
			format, len(data))
	}
	return program, nil
}

func (d *Driver) BindUniformBlock(program uint32, name string, binding uint32) bool {
	index := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00"))
	if index == gl.INVALID_INDEX {
		return false
	}
	gl.UniformBlockBinding(program, index, binding)
	return true
}

func (d *Driver) BindSamplerUniform(program uint32, name string, unit int32) bool {
	location := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	if location < 0 {
		return false
	}
	// Separate-shader-object uniform calls are core in 4.1, so the currently
	// bound program stays untouched.
	gl.ProgramUniform1i(program, location, unit)
	return true
}

// vertexAttribFormat translates an attribute component type to its GL upload
// form. Integer types go through glVertexAttribIPointer so the shader sees
// true integers; normalized types divide through the type's range.
type vertexAttribFormat struct {
	glType     uint32
	normalized bool
	integer    bool
}

var attributeFormats = [...]vertexAttribFormat{
	driver.TypeFloat32: {gl.FLOAT, false, false},
	driver.TypeUNorm8:  {gl.UNSIGNED_BYTE, true, false},
	driver.TypeUInt8:   {gl.UNSIGNED_BYTE, false, true},
	driver.TypeSInt8:   {gl.BYTE, false, true},
	driver.TypeUNorm16: {gl.UNSIGNED_SHORT, true, false},
	driver.TypeUInt16:  {gl.UNSIGNED_SHORT, false, true},
	driver.TypeSInt16:  {gl.SHORT, false, true},
	driver.TypeUInt32:  {gl.UNSIGNED_INT, false, true},
	driver.TypeSInt32:  {gl.INT, false, true},
}

// CreateVertexArray builds a VAO over the currently bound array and element
// buffers. The previously bound VAO is restored before returning.
func (d *Driver) CreateVertexArray(attributes []driver.VertexAttribute, stride uint32) (uint32, error) {
	gl.GetError()
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if err := gl.GetError(); err != gl.NO_ERROR {
		return 0, fmt.Errorf("gldriver: glGenVertexArrays failed: error %#x", err)
	}

	var prev int32
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &prev)
	gl.BindVertexArray(vao)

	for i, attr := range attributes {
		f := attributeFormats[attr.Type]
		gl.EnableVertexAttribArray(uint32(i))
		if f.integer {
			gl.VertexAttribIPointer(uint32(i), int32(attr.Components), f.glType,
				int32(stride), gl.PtrOffset(int(attr.Offset)))
		} else {
			gl.VertexAttribPointer(uint32(i), int32(attr.Components), f.glType,
				f.normalized, int32(stride), gl.PtrOffset(int(attr.Offset)))
		}
	}

	gl.BindVertexArray(uint32(prev))
	return vao, nil
}

func (d *Driver) DeleteVertexArray(id uint32) {
	if id == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &id)
}

func (d *Driver) BindVertexArray(id uint32) {
	gl.BindVertexArray(id)
}

func (d *Driver) Identity() driver.Identity { return d.identity }

func (d *Driver) Features() driver.Features { return d.features }

func shaderInfoLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	if length <= 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func programInfoLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	if length <= 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}
