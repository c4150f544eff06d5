// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/diskcache"
	"github.com/gogpu/glcache/driver"
)

// programEntry is one slot of the live program cache. Three states exist:
// live (handle != 0), disk-backed only (handle 0, disk sizes set), and both.
// An entry that is neither is removed from the map instead, and disk-backed
// states exist only while the store that wrote the record is open.
type programEntry struct {
	handle uint32
	refs   int32
	disk   diskcache.Record
}

// resolveProgram returns a linked program for key, serving it from the live
// cache, the disk cache, or a fresh compile, in that order. Zero means every
// path failed; no entry is left behind, so the next resolve retries.
func (d *Device) resolveProgram(key cachekey.ProgramKey, cfg *GraphicsConfig) uint32 {
	entry, ok := d.programs[key]
	if ok && entry.handle == 0 && entry.disk.UncompressedSize > 0 {
		handle, err := d.loadProgramFromDisk(entry.disk, cfg)
		if err != nil {
			slog.Warn("glcache: cached binary unusable, invalidating disk cache", "err", err)
			delete(d.programs, key)
			d.InvalidateDiskCache()
			entry, ok = nil, false
		} else {
			entry.handle = handle
			d.diskLoads++
		}
	}
	if ok {
		if entry.refs > 0 {
			d.programHits++
		}
		entry.refs++
		return entry.handle
	}

	d.programMisses++
	handle := d.compileProgram(cfg)
	if handle == 0 {
		return 0
	}
	entry = &programEntry{handle: handle, refs: 1}
	d.programs[key] = entry
	d.addToDiskCache(entry)
	return handle
}

// releaseProgram drops one reference. At zero the program object is
// destroyed (unbinding it first if bound); the map entry survives only if a
// disk-cached binary can revive it later.
func (d *Device) releaseProgram(key cachekey.ProgramKey) {
	entry := d.programs[key]
	if entry == nil || entry.handle == 0 || entry.refs <= 0 {
		panic("glcache: releasing a program that holds no reference")
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	if d.state.program == entry.handle {
		d.bindProgram(0)
	}
	d.drv.DeleteProgram(entry.handle)
	entry.handle = 0
	if entry.disk.UncompressedSize == 0 {
		delete(d.programs, key)
	}
}

// compileProgram runs the full compile-and-link path for cfg. Shader
// compiles are memoized on the Shader objects, so only the link is new work
// when stages are shared between pipelines.
func (d *Device) compileProgram(cfg *GraphicsConfig) uint32 {
	vs := cfg.VertexShader.compile()
	fs := cfg.FragmentShader.compile()
	if vs == 0 || fs == 0 {
		return 0
	}
	var gs uint32
	if cfg.GeometryShader != nil {
		if gs = cfg.GeometryShader.compile(); gs == 0 {
			return 0
		}
	}

	program, err := d.drv.CreateProgram()
	if err != nil {
		slog.Error("glcache: program object creation failed", "err", err)
		return 0
	}
	if d.store != nil {
		d.drv.SetRetrievableHint(program)
	}
	d.drv.AttachShader(program, vs)
	d.drv.AttachShader(program, fs)
	if gs != 0 {
		d.drv.AttachShader(program, gs)
	}

	features := d.drv.Features()
	if !features.BindingLayout {
		for i := range cfg.Attributes {
			d.drv.BindAttribLocation(program, uint32(i), attributeName(cfg.Attributes[i]))
		}
		d.drv.BindFragDataLocation(program, 0, "o_col0")
		if features.DualSourceBlend {
			d.drv.BindFragDataLocationIndexed(program, 0, 1, "o_col1")
		}
	}

	log, err := d.drv.LinkProgram(program)
	if err != nil {
		slog.Error("glcache: program link failed", "log", log, "err", err)
		d.drv.DeleteProgram(program)
		return 0
	}
	if log != "" {
		slog.Warn("glcache: program linked with warnings", "log", log)
	}

	if err := d.opts.PostLink(d.drv, program, cfg); err != nil {
		slog.Error("glcache: post-link fixups failed", "err", err)
		d.drv.DeleteProgram(program)
		return 0
	}
	return program
}

// loadProgramFromDisk rebuilds a program from its cached binary. The same
// post-link fixups run as after a fresh link, so restored programs are
// indistinguishable from compiled ones.
func (d *Device) loadProgramFromDisk(rec diskcache.Record, cfg *GraphicsConfig) (uint32, error) {
	blob, err := d.store.ReadBlob(rec)
	if err != nil {
		return 0, err
	}
	program, err := d.drv.LoadProgramBinary(blob, rec.Format)
	if err != nil {
		return 0, fmt.Errorf("uploading cached binary: %w", err)
	}
	if err := d.opts.PostLink(d.drv, program, cfg); err != nil {
		d.drv.DeleteProgram(program)
		return 0, fmt.Errorf("post-link fixups: %w", err)
	}
	slog.Debug("glcache: program restored from disk cache",
		"bytes", rec.UncompressedSize)
	return program, nil
}

// addToDiskCache retrieves the program's binary and appends it to the cache
// file. Drivers that return no binary are tolerated; the entry simply stays
// memory-only.
func (d *Device) addToDiskCache(entry *programEntry) {
	if d.store == nil {
		return
	}
	data, format := d.drv.ProgramBinary(entry.handle)
	if len(data) == 0 || format == 0 {
		slog.Warn("glcache: driver returned no program binary, not caching to disk")
		return
	}
	rec, err := d.store.Append(format, data)
	if err != nil {
		slog.Error("glcache: disk cache write failed", "err", err)
		return
	}
	entry.disk = rec
}

// attributeName maps a vertex attribute to the identifier shaders declare it
// as. Position 0 keeps the bare name for compatibility with single-position
// layouts; every other attribute carries its semantic index.
func attributeName(attr driver.VertexAttribute) string {
	var base string
	switch attr.Semantic {
	case driver.SemanticPosition:
		base = "a_pos"
	case driver.SemanticTexCoord:
		base = "a_tex"
	case driver.SemanticColor:
		base = "a_col"
	default:
		base = "a_attr"
	}
	if attr.Semantic == driver.SemanticPosition && attr.SemanticIndex == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, attr.SemanticIndex)
}

// DefaultPostLink resolves uniform bindings on drivers without an explicit
// binding layout: the uniform block "UBOBlock" goes to binding point 1 and
// sampler uniforms "samp0".."sampN-1" go to matching texture units, N being
// cfg.SamplerCount treated as at least 1, so single-texture shaders work
// without setting a count. Programs that lack a block or uniform skip it
// silently. With an explicit binding layout nothing needs fixing and this is
// a no-op.
func DefaultPostLink(drv driver.Driver, program uint32, cfg *GraphicsConfig) error {
	if drv.Features().BindingLayout {
		return nil
	}
	drv.BindUniformBlock(program, "UBOBlock", 1)
	samplers := cfg.SamplerCount
	if samplers < 1 {
		samplers = 1
	}
	for i := 0; i < samplers; i++ {
		drv.BindSamplerUniform(program, fmt.Sprintf("samp%d", i), int32(i))
	}
	return nil
}
