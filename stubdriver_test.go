// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogpu/glcache/driver"
)

// stubBinaryFormat is the synthetic binary format tag the stub driver hands
// out with program binaries.
const stubBinaryFormat uint32 = 0xB17E

// stubShader is a compiled shader object held by the stub driver.
type stubShader struct {
	stage  driver.ShaderStage
	source string
}

// stubProgram is a program object held by the stub driver. It records every
// pre-link bind and post-link fixup so tests can assert on them.
type stubProgram struct {
	shaders []stubShader
	linked  bool
	hinted  bool
	binary  []byte

	attribBinds  map[string]uint32
	fragBinds    map[string]uint32
	fragIndexed  map[string][2]uint32
	blockBinds   map[string]uint32
	samplerBinds map[string]int32
}

func newStubProgram() *stubProgram {
	return &stubProgram{
		attribBinds:  make(map[string]uint32),
		fragBinds:    make(map[string]uint32),
		fragIndexed:  make(map[string][2]uint32),
		blockBinds:   make(map[string]uint32),
		samplerBinds: make(map[string]int32),
	}
}

// stubDriver is an in-memory driver.Driver. Program binaries are a
// deterministic encoding of the attached shader sources, so binaries survive
// a "process restart" (a second stubDriver) the way real driver blobs
// survive on disk.
type stubDriver struct {
	identity driver.Identity
	features driver.Features

	next     uint32
	shaders  map[uint32]stubShader
	programs map[uint32]*stubProgram
	vaos     map[uint32][]driver.VertexAttribute

	currentProgram uint32
	currentVAO     uint32

	compileCalls    int
	linkCalls       int
	loadCalls       int
	useProgramCalls int
	bindVAOCalls    int

	deletedPrograms   []uint32
	deletedVAOs       []uint32
	deletedWhileBound bool

	failCompile     map[string]string
	failLink        bool
	failVertexArray bool
	failLoadBinary  bool
	binarySupported bool
}

func newStubDriver() *stubDriver {
	return &stubDriver{
		identity:        driver.NewIdentity("GoGPU", "Stub Renderer", "OpenGL 4.1"),
		next:            1,
		shaders:         make(map[uint32]stubShader),
		programs:        make(map[uint32]*stubProgram),
		vaos:            make(map[uint32][]driver.VertexAttribute),
		failCompile:     make(map[string]string),
		binarySupported: true,
	}
}

func (s *stubDriver) alloc() uint32 {
	id := s.next
	s.next++
	return id
}

func (s *stubDriver) CompileShader(stage driver.ShaderStage, source string) (uint32, string, error) {
	s.compileCalls++
	if log, bad := s.failCompile[source]; bad {
		return 0, log, errors.New("stub: compile failed")
	}
	id := s.alloc()
	s.shaders[id] = stubShader{stage: stage, source: source}
	return id, "", nil
}

func (s *stubDriver) DeleteShader(id uint32) {
	delete(s.shaders, id)
}

func (s *stubDriver) CreateProgram() (uint32, error) {
	id := s.alloc()
	s.programs[id] = newStubProgram()
	return id, nil
}

func (s *stubDriver) AttachShader(program, shader uint32) {
	s.programs[program].shaders = append(s.programs[program].shaders, s.shaders[shader])
}

func (s *stubDriver) BindAttribLocation(program, location uint32, name string) {
	s.programs[program].attribBinds[name] = location
}

func (s *stubDriver) BindFragDataLocation(program, color uint32, name string) {
	s.programs[program].fragBinds[name] = color
}

func (s *stubDriver) BindFragDataLocationIndexed(program, color, index uint32, name string) {
	s.programs[program].fragIndexed[name] = [2]uint32{color, index}
}

func (s *stubDriver) LinkProgram(program uint32) (string, error) {
	s.linkCalls++
	if s.failLink {
		return "stub: link error log", errors.New("stub: link failed")
	}
	s.programs[program].linked = true
	return "", nil
}

func (s *stubDriver) DeleteProgram(id uint32) {
	if id == 0 {
		return
	}
	if s.currentProgram == id {
		s.deletedWhileBound = true
	}
	delete(s.programs, id)
	s.deletedPrograms = append(s.deletedPrograms, id)
}

func (s *stubDriver) UseProgram(id uint32) {
	s.useProgramCalls++
	s.currentProgram = id
}

func (s *stubDriver) SetRetrievableHint(program uint32) {
	s.programs[program].hinted = true
}

// ProgramBinary encodes the attached sources: "GLBIN", then per shader a
// stage byte, the source, and a NUL.
func (s *stubDriver) ProgramBinary(program uint32) ([]byte, uint32) {
	if !s.binarySupported {
		return nil, 0
	}
	p := s.programs[program]
	var buf bytes.Buffer
	buf.WriteString("GLBIN")
	for _, sh := range p.shaders {
		buf.WriteByte(byte(sh.stage))
		buf.WriteString(sh.source)
		buf.WriteByte(0)
	}
	return buf.Bytes(), stubBinaryFormat
}

func (s *stubDriver) LoadProgramBinary(data []byte, format uint32) (uint32, error) {
	s.loadCalls++
	if s.failLoadBinary {
		return 0, errors.New("stub: binary rejected")
	}
	if format != stubBinaryFormat || !bytes.HasPrefix(data, []byte("GLBIN")) {
		return 0, fmt.Errorf("stub: unknown binary format %#x", format)
	}
	id := s.alloc()
	p := newStubProgram()
	p.linked = true
	p.binary = append([]byte(nil), data...)
	s.programs[id] = p
	return id, nil
}

func (s *stubDriver) BindUniformBlock(program uint32, name string, binding uint32) bool {
	s.programs[program].blockBinds[name] = binding
	return true
}

func (s *stubDriver) BindSamplerUniform(program uint32, name string, unit int32) bool {
	s.programs[program].samplerBinds[name] = unit
	return true
}

func (s *stubDriver) CreateVertexArray(attributes []driver.VertexAttribute, stride uint32) (uint32, error) {
	if s.failVertexArray {
		return 0, errors.New("stub: vertex array creation failed")
	}
	id := s.alloc()
	s.vaos[id] = append([]driver.VertexAttribute(nil), attributes...)
	return id, nil
}

func (s *stubDriver) DeleteVertexArray(id uint32) {
	if id == 0 {
		return
	}
	if s.currentVAO == id {
		s.deletedWhileBound = true
	}
	delete(s.vaos, id)
	s.deletedVAOs = append(s.deletedVAOs, id)
}

func (s *stubDriver) BindVertexArray(id uint32) {
	s.bindVAOCalls++
	s.currentVAO = id
}

func (s *stubDriver) Identity() driver.Identity { return s.identity }

func (s *stubDriver) Features() driver.Features { return s.features }
