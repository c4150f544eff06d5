// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glcache caches the results of OpenGL pipeline construction.
//
// Building a GL pipeline is dominated by shader compilation and program
// linking. glcache avoids that work at two levels:
//
//   - In-memory: linked programs and vertex array objects are shared between
//     pipelines with the same content-addressed key and reference-counted for
//     the lifetime of the process.
//   - On disk: driver-produced program binaries are kept in a single
//     compressed cache file, so later runs relink nothing at all.
//
// The disk cache is conservative. Binaries are only trusted when the cache
// file's version and driver identity match exactly, and any inconsistency
// discards the whole file; everything silently falls back to compilation.
//
// Example usage:
//
//	dev := glcache.New(gldrv, glcache.Options{
//	    DiskCachePath: "shaders/programs.bin",
//	})
//	vs := dev.NewShader(driver.StageVertex, vertexGLSL)
//	fs := dev.NewShader(driver.StageFragment, fragmentGLSL)
//	pipe, err := dev.CreatePipeline(&glcache.GraphicsConfig{
//	    VertexShader:   vs,
//	    FragmentShader: fs,
//	    Attributes:     attrs,
//	    Stride:         stride,
//	})
//	...
//	dev.Bind(pipe)
//
// A Device and everything created from it must stay on the thread that owns
// the GL context, as usual for OpenGL.
package glcache

import (
	"log/slog"
	"sort"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/diskcache"
	"github.com/gogpu/glcache/driver"
)

// PostLinkFunc runs after every successful program link or binary upload,
// for resolving bindings the shader source leaves open. It sees both freshly
// linked and disk-restored programs. Returning an error makes the program
// unusable and the pipeline creation fail.
type PostLinkFunc func(drv driver.Driver, program uint32, cfg *GraphicsConfig) error

// Options configures a Device. The zero value is usable: no disk cache, no
// shader dumps, default post-link fixups.
type Options struct {
	// DiskCachePath names the program binary cache file. Empty disables
	// disk caching; programs are then shared in memory only.
	DiskCachePath string

	// CacheVersion is written into the cache file footer. Bump it to
	// invalidate caches written by incompatible builds. Zero means 1.
	CacheVersion uint32

	// ShaderDumpDir receives the source and driver log of every failed
	// shader compile, one numbered file per failure. Empty disables dumps.
	ShaderDumpDir string

	// PostLink overrides DefaultPostLink.
	PostLink PostLinkFunc
}

// DefaultOptions returns the default Device configuration.
func DefaultOptions() Options {
	return Options{CacheVersion: 1}
}

// Stats counts cache activity since the Device was created.
type Stats struct {
	// ProgramHits counts resolutions served by a live program.
	ProgramHits uint64
	// ProgramMisses counts resolutions that had to compile and link.
	ProgramMisses uint64
	// DiskLoads counts resolutions served by a cached binary.
	DiskLoads uint64
	// Programs and Layouts are the current live cache sizes.
	Programs int
	Layouts  int
}

// sessionState tracks what is currently bound on the GL context. Binds go
// through it so redundant driver calls are skipped and release-time unbinds
// know what they are undoing.
type sessionState struct {
	program     uint32
	vertexArray uint32
}

// Device owns the program and layout caches for one GL context.
//
// Not safe for concurrent use: confine it to the context thread.
type Device struct {
	drv  driver.Driver
	opts Options

	programs map[cachekey.ProgramKey]*programEntry
	layouts  map[cachekey.LayoutKey]*layoutEntry
	store    *diskcache.Store

	state   sessionState
	current *Pipeline

	programHits   uint64
	programMisses uint64
	diskLoads     uint64
}

// New creates a Device over drv and, when configured, opens the disk cache.
// Disk cache trouble never fails device creation; it degrades to in-memory
// caching with a log message. Panics if drv is nil.
func New(drv driver.Driver, opts Options) *Device {
	if drv == nil {
		panic("glcache: nil driver")
	}
	if opts.CacheVersion == 0 {
		opts.CacheVersion = 1
	}
	if opts.PostLink == nil {
		opts.PostLink = DefaultPostLink
	}

	d := &Device{
		drv:      drv,
		opts:     opts,
		programs: make(map[cachekey.ProgramKey]*programEntry),
		layouts:  make(map[cachekey.LayoutKey]*layoutEntry),
	}

	if opts.DiskCachePath != "" {
		store, entries, err := diskcache.Open(opts.DiskCachePath, opts.CacheVersion, drv.Identity())
		if err != nil {
			slog.Warn("glcache: disk cache unavailable", "path", opts.DiskCachePath, "err", err)
		} else if store != nil {
			d.store = store
			for _, e := range entries {
				d.programs[e.Key] = &programEntry{disk: e.Record}
			}
			slog.Info("glcache: disk cache opened",
				"path", opts.DiskCachePath, "programs", len(entries))
		}
	}
	return d
}

// Driver returns the driver the device was created over.
func (d *Device) Driver() driver.Driver { return d.drv }

// Stats reports cache activity counters and current cache sizes.
func (d *Device) Stats() Stats {
	return Stats{
		ProgramHits:   d.programHits,
		ProgramMisses: d.programMisses,
		DiskLoads:     d.diskLoads,
		Programs:      len(d.programs),
		Layouts:       len(d.layouts),
	}
}

// Bind makes p the current pipeline, binding its program and vertex array.
// Rebinding the current pipeline is free. Bind(nil) unbinds everything.
func (d *Device) Bind(p *Pipeline) {
	if p == nil {
		d.current = nil
		d.bindProgram(0)
		d.bindVertexArray(0)
		return
	}
	if p.released {
		panic("glcache: binding a released pipeline")
	}
	if d.current == p {
		return
	}
	d.current = p
	d.bindProgram(p.program)
	d.bindVertexArray(p.vertexArray)
}

func (d *Device) bindProgram(id uint32) {
	if d.state.program == id {
		return
	}
	d.drv.UseProgram(id)
	d.state.program = id
}

func (d *Device) bindVertexArray(id uint32) {
	if d.state.vertexArray == id {
		return
	}
	d.drv.BindVertexArray(id)
	d.state.vertexArray = id
}

// InvalidateDiskCache drops every cached binary: live programs lose their
// disk backing but keep running, dead entries disappear, and the cache file
// is emptied. Call it when the application detects that cached binaries can
// no longer be trusted.
func (d *Device) InvalidateDiskCache() {
	for key, entry := range d.programs {
		if entry.handle != 0 {
			entry.disk = diskcache.Record{}
			continue
		}
		delete(d.programs, key)
	}
	if d.store == nil {
		return
	}
	if err := d.store.Discard(); err != nil {
		slog.Error("glcache: disk cache unusable, disabling", "err", err)
		d.store = nil
	}
}

// Close writes the disk cache index if anything changed and closes the file.
// A write failure is logged and returned; the cached binaries from this
// session are lost but nothing else is affected. The device itself stays
// usable with in-memory caching only: live programs keep running, but once
// released they must be recompiled rather than reloaded. Close is safe to
// call more than once.
func (d *Device) Close() error {
	var err error
	if d.store != nil {
		entries := make([]diskcache.IndexEntry, 0, len(d.programs))
		for key, entry := range d.programs {
			if entry.disk.UncompressedSize == 0 {
				continue
			}
			entries = append(entries, diskcache.IndexEntry{Key: key, Record: entry.disk})
		}
		// Map order is random; file order follows the data region.
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Offset < entries[j].Offset
		})
		err = d.store.Close(entries)
		if err != nil {
			slog.Error("glcache: disk cache close failed",
				"path", d.store.Path(), "err", err)
		}
		d.store = nil
	}
	// Disk locations are only serviceable while the store is open. Live
	// entries become memory-only; dead ones have nothing left and go away.
	for key, entry := range d.programs {
		if entry.handle == 0 {
			delete(d.programs, key)
			continue
		}
		entry.disk = diskcache.Record{}
	}
	return err
}
