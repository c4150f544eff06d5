// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diskcache stores driver-produced program binaries in a single
// cache file that survives across runs.
//
// # File layout
//
//	blobs   zstd-compressed program binaries, append-only
//	index   one fixed-size entry per binary (key, format, location)
//	footer  format version, entry count, driver identity
//
// The footer sits at the end of the file, so the data region is located by
// subtracting the footer and index sizes from the file size. Blobs are only
// ever appended during a session; the index and footer are rewritten wholesale
// at Close, and only when something changed.
//
// Validation is conservative: any inconsistency found while reading a file
// (bad version, changed driver identity, an entry pointing outside the data
// region, a duplicate key) discards the entire file rather than trying to
// salvage entries. Binaries are cheap to regenerate and a cache must never
// serve doubtful data.
package diskcache
