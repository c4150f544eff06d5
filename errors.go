// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import "errors"

var (
	// ErrMissingShader reports a pipeline config without both required
	// stages.
	ErrMissingShader = errors.New("glcache: pipeline requires vertex and fragment shaders")

	// ErrStageMismatch reports a shader supplied for the wrong stage slot.
	ErrStageMismatch = errors.New("glcache: shader bound to the wrong pipeline stage")

	// ErrProgramUnavailable reports that neither compilation nor disk
	// reconstruction produced a usable program. Creating the same pipeline
	// again retries from scratch.
	ErrProgramUnavailable = errors.New("glcache: program compilation or reconstruction failed")

	// ErrLayoutUnavailable reports that the vertex layout object could not
	// be created.
	ErrLayoutUnavailable = errors.New("glcache: vertex layout creation failed")
)
