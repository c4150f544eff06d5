// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shadergen produces the GLSL sources the pipeline cache compiles
// from WGSL shader modules. It is a thin front end over the naga compiler:
// callers hand the resulting strings to CreatePipeline. The cache core never
// imports this package, so renderers that author GLSL directly carry no
// compiler dependency.
package shadergen

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/glcache/driver"
)

// Options configures WGSL to GLSL translation.
type Options struct {
	// Version is the target GLSL version. Zero defaults to 410 core,
	// matching the gldriver backend.
	Version glsl.Version

	// Validate runs IR validation before code generation, so invalid
	// modules fail translation instead of producing broken GLSL.
	Validate bool

	// EntryPoint selects an entry point by name. When empty, the first
	// entry point of the requested stage is used.
	EntryPoint string
}

// DefaultOptions returns the options matching the OpenGL 4.1 backend.
func DefaultOptions() Options {
	return Options{
		Version:  glsl.Version410,
		Validate: true,
	}
}

// CompileWGSL translates the entry point of source matching stage into a
// GLSL string ready for CreatePipeline.
func CompileWGSL(source string, stage driver.ShaderStage, opts Options) (string, error) {
	module, err := lower(source, opts)
	if err != nil {
		return "", err
	}
	return compileEntry(module, stage, opts)
}

// Stages translates the vertex and fragment entry points of a full-pipeline
// WGSL module in one pass. Options.EntryPoint is ignored: one name cannot
// select both stages.
func Stages(source string, opts Options) (vertex, fragment string, err error) {
	opts.EntryPoint = ""
	module, err := lower(source, opts)
	if err != nil {
		return "", "", err
	}
	vertex, err = compileEntry(module, driver.StageVertex, opts)
	if err != nil {
		return "", "", err
	}
	fragment, err = compileEntry(module, driver.StageFragment, opts)
	if err != nil {
		return "", "", err
	}
	return vertex, fragment, nil
}

func lower(source string, opts Options) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("shadergen: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("shadergen: lowering error: %w", err)
	}
	if opts.Validate {
		validationErrors, err := naga.Validate(module)
		if err != nil {
			return nil, fmt.Errorf("shadergen: validation error: %w", err)
		}
		if len(validationErrors) > 0 {
			return nil, fmt.Errorf("shadergen: validation failed: %w", &validationErrors[0])
		}
	}
	return module, nil
}

func irStage(stage driver.ShaderStage) (ir.ShaderStage, error) {
	switch stage {
	case driver.StageVertex:
		return ir.StageVertex, nil
	case driver.StageFragment:
		return ir.StageFragment, nil
	case driver.StageCompute:
		return ir.StageCompute, nil
	default:
		return 0, fmt.Errorf("shadergen: WGSL has no %s stage", stage)
	}
}

func compileEntry(module *ir.Module, stage driver.ShaderStage, opts Options) (string, error) {
	want, err := irStage(stage)
	if err != nil {
		return "", err
	}

	entry := ""
	for _, ep := range module.EntryPoints {
		if opts.EntryPoint != "" && ep.Name != opts.EntryPoint {
			continue
		}
		if ep.Stage != want {
			continue
		}
		entry = ep.Name
		break
	}
	if entry == "" {
		if opts.EntryPoint != "" {
			return "", fmt.Errorf("shadergen: no %s entry point %q in module", stage, opts.EntryPoint)
		}
		return "", fmt.Errorf("shadergen: module has no %s entry point", stage)
	}

	version := opts.Version
	if version.Major == 0 {
		version = glsl.Version410
	}
	out, _, err := glsl.Compile(module, glsl.Options{
		LangVersion: version,
		EntryPoint:  entry,
	})
	if err != nil {
		return "", fmt.Errorf("shadergen: %s: %w", stage, err)
	}
	return out, nil
}
