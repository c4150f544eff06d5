// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package driver defines the narrow GPU surface the pipeline cache is built
// on: shader compilation, program linking, program binary retrieval and
// upload, and vertex array construction.
//
// The interface is deliberately small. It covers exactly the calls the cache
// needs to compile, link, persist, and rebind programs; everything else
// (buffers, textures, draw submission, fixed-function state) belongs to the
// renderer and never passes through here.
//
// Package gldriver provides the production implementation over desktop
// OpenGL. Tests substitute in-memory fakes.
//
// All methods must be called from the thread that owns the underlying
// context, as usual for OpenGL.
package driver
