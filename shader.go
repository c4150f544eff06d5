// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"log/slog"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/driver"
)

// glslEntryPoint is the only entry point GL shaders have.
const glslEntryPoint = "main"

// Shader holds one stage's source and its cache key. Compilation is deferred
// until a pipeline needs the stage and happens at most once: when the cache
// already holds the linked program, or restores it from disk, the source is
// never handed to the driver at all.
type Shader struct {
	device *Device
	stage  driver.ShaderStage
	source string
	key    cachekey.ShaderKey

	id        uint32
	attempted bool
	name      string
}

// NewShader wraps source for the given stage. Nothing is compiled yet, so
// this cannot fail; compile errors surface when a pipeline first needs the
// stage.
func (d *Device) NewShader(stage driver.ShaderStage, source string) *Shader {
	return &Shader{
		device: d,
		stage:  stage,
		source: source,
		key:    cachekey.ShaderKeyFor(stage, source, glslEntryPoint),
	}
}

// Stage reports the pipeline stage the shader was created for.
func (s *Shader) Stage() driver.ShaderStage { return s.stage }

// Key reports the shader's content key.
func (s *Shader) Key() cachekey.ShaderKey { return s.key }

// SetDebugName attaches a name used in log messages about this shader.
func (s *Shader) SetDebugName(name string) { s.name = name }

// compile memoizes the driver compile: the first call does the work, every
// later call returns the same handle, including the zero handle of a failed
// compile. Failed sources are not retried on the same Shader.
func (s *Shader) compile() uint32 {
	if s.attempted {
		return s.id
	}
	s.attempted = true

	id, log, err := s.device.drv.CompileShader(s.stage, s.source)
	if err != nil {
		slog.Error("glcache: shader compile failed",
			"stage", s.stage, "name", s.name, "err", err)
		s.device.dumpBadShader(s.stage, s.source, log, err)
		return 0
	}
	if log != "" {
		slog.Warn("glcache: shader compiled with warnings",
			"stage", s.stage, "name", s.name, "log", log)
	}
	s.id = id
	return id
}

// Release destroys the driver shader object if one was compiled. The Shader
// is dead afterwards; pipelines already linked from it are unaffected.
func (s *Shader) Release() {
	if s.id != 0 {
		s.device.drv.DeleteShader(s.id)
		s.id = 0
	}
}
