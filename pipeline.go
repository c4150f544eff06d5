// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/driver"
)

// PrimitiveTopology is the primitive type a pipeline draws.
type PrimitiveTopology uint8

const (
	TopologyPoints PrimitiveTopology = iota
	TopologyLines
	TopologyTriangles
	TopologyTriangleStrip
)

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace uint8

const (
	FrontCCW FrontFace = iota
	FrontCW
)

// CompareFunction is a depth comparison.
type CompareFunction uint8

const (
	CompareNever CompareFunction = iota
	CompareAlways
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
	CompareEqual
	CompareNotEqual
)

// BlendFactor scales a blend input.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrc1Alpha
	BlendOneMinusSrc1Alpha
)

// BlendOperation combines the scaled source and destination.
type BlendOperation uint8

const (
	BlendAdd BlendOperation = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// BlendComponent is the blend equation for one channel group.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// RasterizationState is the fixed-function raster configuration a pipeline
// carries. The cache stores it untouched; applying it is the renderer's job.
type RasterizationState struct {
	CullMode  CullMode
	FrontFace FrontFace
}

// DepthState is the fixed-function depth configuration.
type DepthState struct {
	Compare     CompareFunction
	WriteEnable bool
}

// BlendState is the fixed-function blend configuration. WriteMask uses one
// bit per channel, red in bit 0.
type BlendState struct {
	Enable    bool
	Color     BlendComponent
	Alpha     BlendComponent
	WriteMask uint8
}

// GraphicsConfig describes the pipeline to create. Vertex and fragment
// shaders are required; geometry is optional. Attributes and Stride define
// the vertex layout and become part of the cache key.
type GraphicsConfig struct {
	VertexShader   *Shader
	FragmentShader *Shader
	GeometryShader *Shader

	Attributes []driver.VertexAttribute
	Stride     uint32

	// SamplerCount is how many sampN sampler uniforms DefaultPostLink
	// assigns to texture units. Zero is treated as one.
	SamplerCount int

	Topology      PrimitiveTopology
	Rasterization RasterizationState
	Depth         DepthState
	Blend         BlendState
}

// Pipeline is a ready-to-bind pairing of a cached program and vertex array,
// plus the fixed-function state the renderer applies around draws. Pipelines
// are cheap: many of them typically share one program.
type Pipeline struct {
	device *Device
	key    cachekey.ProgramKey

	program     uint32
	vertexArray uint32

	topology PrimitiveTopology
	raster   RasterizationState
	depth    DepthState
	blend    BlendState

	released bool
}

// CreatePipeline resolves cfg through the caches and returns a pipeline
// holding one reference on its program and one on its vertex layout.
//
// A compile or link failure returns ErrProgramUnavailable and caches
// nothing, so the caller may fix the shaders and try again. No references
// leak on any failure path. Panics if cfg exceeds
// driver.MaxVertexAttributes.
func (d *Device) CreatePipeline(cfg *GraphicsConfig) (*Pipeline, error) {
	if cfg == nil || cfg.VertexShader == nil || cfg.FragmentShader == nil {
		return nil, ErrMissingShader
	}
	if cfg.VertexShader.stage != driver.StageVertex ||
		cfg.FragmentShader.stage != driver.StageFragment ||
		(cfg.GeometryShader != nil && cfg.GeometryShader.stage != driver.StageGeometry) {
		return nil, ErrStageMismatch
	}

	layout := cachekey.LayoutKeyFor(cfg.Attributes, cfg.Stride)
	var geometry *cachekey.ShaderKey
	if cfg.GeometryShader != nil {
		k := cfg.GeometryShader.key
		geometry = &k
	}
	key := cachekey.ProgramKeyFor(cfg.VertexShader.key, cfg.FragmentShader.key, geometry, layout)

	program := d.resolveProgram(key, cfg)
	if program == 0 {
		return nil, ErrProgramUnavailable
	}
	vao := d.resolveLayout(key.Layout)
	if vao == 0 {
		d.releaseProgram(key)
		return nil, ErrLayoutUnavailable
	}

	return &Pipeline{
		device:      d,
		key:         key,
		program:     program,
		vertexArray: vao,
		topology:    cfg.Topology,
		raster:      cfg.Rasterization,
		depth:       cfg.Depth,
		blend:       cfg.Blend,
	}, nil
}

// Topology reports the primitive type the pipeline draws.
func (p *Pipeline) Topology() PrimitiveTopology { return p.topology }

// Rasterization reports the raster state the pipeline carries.
func (p *Pipeline) Rasterization() RasterizationState { return p.raster }

// Depth reports the depth state the pipeline carries.
func (p *Pipeline) Depth() DepthState { return p.depth }

// Blend reports the blend state the pipeline carries.
func (p *Pipeline) Blend() BlendState { return p.blend }

// Release returns the pipeline's program and layout references. The shared
// objects die with their last reference; the program may live on in the
// disk cache. Releasing twice panics.
func (p *Pipeline) Release() {
	if p.released {
		panic("glcache: pipeline released twice")
	}
	p.released = true
	if p.device.current == p {
		p.device.current = nil
	}
	p.device.releaseProgram(p.key)
	p.device.releaseLayout(p.key.Layout)
}
