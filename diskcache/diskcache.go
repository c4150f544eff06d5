// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diskcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/driver"
)

// ErrClosed is returned by operations on a Store whose file has been closed
// or discarded after a failure.
var ErrClosed = errors.New("diskcache: store is closed")

// Store is the open cache file. Blobs are appended during the session; the
// index and footer are rewritten at Close when anything changed.
//
// Store methods are not safe for concurrent use; the cache confines them to
// one thread.
type Store struct {
	path     string
	file     *os.File
	version  uint32
	identity driver.Identity
	dataEnd  uint32
	dirty    bool
}

// Open opens or creates the cache file at path and validates its contents
// against the given cache version and driver identity.
//
// The returned entries are the validated index of a previously written file,
// in file order; the caller owns merging them into its program map. A file
// that fails validation for any reason is discarded and Open returns an
// empty store.
//
// When the file cannot be opened because another process holds it (permission
// denied), disk caching is disabled for this session: Open returns
// (nil, nil, nil) and callers must treat a nil *Store as "no disk cache".
func Open(path string, version uint32, identity driver.Identity) (*Store, []IndexEntry, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	switch {
	case errors.Is(err, fs.ErrPermission):
		slog.Info("glcache: disk cache in use by another instance, disabling", "path", path)
		return nil, nil, nil
	case errors.Is(err, fs.ErrNotExist):
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("diskcache: creating %s: %w", path, err)
		}
		slog.Info("glcache: created disk cache", "path", path)
		return &Store{path: path, file: f, version: version, identity: identity}, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("diskcache: opening %s: %w", path, err)
	}

	st := &Store{path: path, file: f, version: version, identity: identity}
	entries, err := st.load()
	if err != nil {
		slog.Warn("glcache: discarding invalid disk cache", "path", path, "reason", err)
		if derr := st.Discard(); derr != nil {
			slog.Error("glcache: could not reset disk cache, disabling", "path", path, "err", derr)
			return nil, nil, nil
		}
		return st, nil, nil
	}
	return st, entries, nil
}

// load reads and validates the footer and index of an existing file, leaving
// dataEnd positioned for appends. Any validation failure returns an error
// describing the first problem found.
func (st *Store) load() ([]IndexEntry, error) {
	info, err := st.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	size := info.Size()
	if size == 0 {
		// Fresh file from an earlier session that never wrote anything.
		return nil, nil
	}
	if size < FooterSize {
		return nil, fmt.Errorf("file size %d below footer size %d", size, FooterSize)
	}
	if size > math.MaxUint32 {
		return nil, fmt.Errorf("file size %d exceeds the format's 32-bit limit", size)
	}

	var footer [FooterSize]byte
	if _, err := st.file.ReadAt(footer[:], size-FooterSize); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	version, count, identity := decodeFooter(footer[:])
	if version != st.version {
		return nil, fmt.Errorf("version %d, want %d", version, st.version)
	}
	if identity != st.identity {
		return nil, fmt.Errorf("driver identity changed from %q to %q", identity, st.identity)
	}

	indexSize := int64(count) * IndexEntrySize
	if FooterSize+indexSize > size {
		return nil, fmt.Errorf("index of %d entries overruns the file", count)
	}
	dataEnd := size - FooterSize - indexSize

	index := make([]byte, indexSize)
	if _, err := st.file.ReadAt(index, dataEnd); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	entries := make([]IndexEntry, 0, count)
	seen := make(map[cachekey.ProgramKey]struct{}, count)
	for i := int64(0); i < int64(count); i++ {
		e := decodeIndexEntry(index[i*IndexEntrySize:])
		if e.UncompressedSize == 0 {
			return nil, fmt.Errorf("entry %d has no data", i)
		}
		if uint64(e.Offset)+uint64(e.CompressedSize) > uint64(dataEnd) {
			return nil, fmt.Errorf("entry %d overruns the data region", i)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("entry %d duplicates an earlier key", i)
		}
		seen[e.Key] = struct{}{}
		entries = append(entries, e)
	}

	st.dataEnd = uint32(dataEnd)
	return entries, nil
}

// Path reports the cache file path, for log messages.
func (st *Store) Path() string { return st.path }

// ReadBlob reads and decompresses the blob a record points at. The result
// has exactly rec.UncompressedSize bytes or the read fails.
func (st *Store) ReadBlob(rec Record) ([]byte, error) {
	if st.file == nil {
		return nil, ErrClosed
	}
	comp := make([]byte, rec.CompressedSize)
	if _, err := st.file.ReadAt(comp, int64(rec.Offset)); err != nil {
		return nil, fmt.Errorf("diskcache: reading blob at %d: %w", rec.Offset, err)
	}
	return decompress(comp, rec.UncompressedSize)
}

// Append compresses data and writes it at the end of the data region. On
// success the returned record locates the blob and the store is marked
// dirty. On a write failure nothing is recorded and the data region is
// treated as unchanged.
func (st *Store) Append(format uint32, data []byte) (Record, error) {
	if st.file == nil {
		return Record{}, ErrClosed
	}
	comp := compress(data)
	if uint64(st.dataEnd)+uint64(len(comp)) > math.MaxUint32 {
		return Record{}, fmt.Errorf("diskcache: cache file full at %d bytes", st.dataEnd)
	}
	if _, err := st.file.WriteAt(comp, int64(st.dataEnd)); err != nil {
		return Record{}, fmt.Errorf("diskcache: writing blob: %w", err)
	}
	rec := Record{
		Format:           format,
		Offset:           st.dataEnd,
		UncompressedSize: uint32(len(data)),
		CompressedSize:   uint32(len(comp)),
	}
	st.dataEnd += uint32(len(comp))
	st.dirty = true
	return rec, nil
}

// Discard drops every blob by truncating the file to empty. The store stays
// open and usable, and is marked dirty so that Close writes a valid empty
// footer. On failure the store closes itself and further operations return
// ErrClosed.
func (st *Store) Discard() error {
	if st.file == nil {
		return ErrClosed
	}
	if err := st.file.Truncate(0); err != nil {
		st.file.Close()
		st.file = nil
		return fmt.Errorf("diskcache: truncating %s: %w", st.path, err)
	}
	st.dataEnd = 0
	st.dirty = true
	return nil
}

// Close writes the index and footer if the store changed this session, then
// closes the file. The entries are the currently disk-backed set, live or
// not; their order becomes the file order. Close is idempotent: second and
// later calls return nil.
func (st *Store) Close(entries []IndexEntry) error {
	if st.file == nil {
		return nil
	}
	f := st.file
	st.file = nil

	if !st.dirty {
		return f.Close()
	}

	buf := make([]byte, int64(len(entries))*IndexEntrySize+FooterSize)
	for i, e := range entries {
		encodeIndexEntry(buf[int64(i)*IndexEntrySize:], e)
	}
	encodeFooter(buf[int64(len(entries))*IndexEntrySize:], st.version, uint32(len(entries)), st.identity)

	if _, err := f.WriteAt(buf, int64(st.dataEnd)); err != nil {
		f.Close()
		return fmt.Errorf("diskcache: writing index and footer: %w", err)
	}
	if err := f.Truncate(int64(st.dataEnd) + int64(len(buf))); err != nil {
		f.Close()
		return fmt.Errorf("diskcache: trimming %s: %w", st.path, err)
	}
	return f.Close()
}
