// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diskcache

import (
	"fmt"
	"math"
	"os"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/driver"
)

// Snapshot is a read-only view of a cache file, for tooling. Unlike Open it
// validates nothing against a live driver and never modifies the file;
// structural problems are collected instead of triggering a discard.
type Snapshot struct {
	FileSize int64
	Version  uint32
	Identity driver.Identity
	DataEnd  int64
	Entries  []IndexEntry
	Problems []string
}

// Inspect parses the cache file at path without opening it for writing. It
// errors only when the file cannot be read or is too small to carry a
// footer; everything else is reported through Snapshot.Problems.
func Inspect(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < FooterSize {
		return nil, fmt.Errorf("diskcache: %s holds %d bytes, smaller than a footer", path, size)
	}

	var footer [FooterSize]byte
	if _, err := f.ReadAt(footer[:], size-FooterSize); err != nil {
		return nil, fmt.Errorf("diskcache: reading footer: %w", err)
	}
	version, count, identity := decodeFooter(footer[:])

	snap := &Snapshot{
		FileSize: size,
		Version:  version,
		Identity: identity,
	}
	if size > math.MaxUint32 {
		snap.Problems = append(snap.Problems, "file exceeds the format's 32-bit limit")
	}

	indexSize := int64(count) * IndexEntrySize
	if FooterSize+indexSize > size {
		snap.Problems = append(snap.Problems,
			fmt.Sprintf("index of %d entries overruns the file", count))
		return snap, nil
	}
	snap.DataEnd = size - FooterSize - indexSize

	index := make([]byte, indexSize)
	if _, err := f.ReadAt(index, snap.DataEnd); err != nil {
		return nil, fmt.Errorf("diskcache: reading index: %w", err)
	}

	seen := make(map[cachekey.ProgramKey]struct{}, count)
	for i := int64(0); i < int64(count); i++ {
		e := decodeIndexEntry(index[i*IndexEntrySize:])
		if e.UncompressedSize == 0 {
			snap.Problems = append(snap.Problems, fmt.Sprintf("entry %d has no data", i))
		}
		if uint64(e.Offset)+uint64(e.CompressedSize) > uint64(snap.DataEnd) {
			snap.Problems = append(snap.Problems, fmt.Sprintf("entry %d overruns the data region", i))
		}
		if _, dup := seen[e.Key]; dup {
			snap.Problems = append(snap.Problems, fmt.Sprintf("entry %d duplicates an earlier key", i))
		}
		seen[e.Key] = struct{}{}
		snap.Entries = append(snap.Entries, e)
	}
	return snap, nil
}

// CheckBlobs decompresses every entry's blob and reports entries whose data
// is unreadable or whose decompressed size disagrees with the index. The
// file is opened read-only.
func CheckBlobs(path string, entries []IndexEntry) []string {
	f, err := os.Open(path)
	if err != nil {
		return []string{err.Error()}
	}
	defer f.Close()

	var problems []string
	for i, e := range entries {
		comp := make([]byte, e.CompressedSize)
		if _, err := f.ReadAt(comp, int64(e.Offset)); err != nil {
			problems = append(problems, fmt.Sprintf("entry %d: read: %v", i, err))
			continue
		}
		if _, err := decompress(comp, e.UncompressedSize); err != nil {
			problems = append(problems, fmt.Sprintf("entry %d: %v", i, err))
		}
	}
	return problems
}
