// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"log/slog"

	"github.com/gogpu/glcache/cachekey"
)

// layoutEntry is one slot of the live vertex layout cache. Layouts have no
// disk tier; at zero references the entry disappears entirely.
type layoutEntry struct {
	vao  uint32
	refs int32
}

// resolveLayout returns a vertex array object for the layout, creating it on
// first use. Zero means creation failed; no entry is left behind.
func (d *Device) resolveLayout(key cachekey.LayoutKey) uint32 {
	if entry, ok := d.layouts[key]; ok {
		entry.refs++
		return entry.vao
	}
	vao, err := d.drv.CreateVertexArray(key.Attributes[:key.AttributeCount], key.Stride)
	if err != nil {
		slog.Error("glcache: vertex array creation failed", "err", err)
		return 0
	}
	d.layouts[key] = &layoutEntry{vao: vao, refs: 1}
	return vao
}

// releaseLayout drops one reference; the last one destroys the vertex array
// object, unbinding it first if bound.
func (d *Device) releaseLayout(key cachekey.LayoutKey) {
	entry := d.layouts[key]
	if entry == nil || entry.refs <= 0 {
		panic("glcache: releasing a vertex layout that holds no reference")
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	if d.state.vertexArray == entry.vao {
		d.bindVertexArray(0)
	}
	d.drv.DeleteVertexArray(entry.vao)
	delete(d.layouts, key)
}
