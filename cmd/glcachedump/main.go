// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command glcachedump inspects pipeline binary cache files.
//
// Usage:
//
//	glcachedump [options] <cachefile>
//
// Examples:
//
//	glcachedump pipelines.cache           # Print footer and entry table
//	glcachedump -verify pipelines.cache   # Also decompress every blob
//	glcachedump -json pipelines.cache     # Machine-readable output
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gogpu/glcache/cachekey"
	"github.com/gogpu/glcache/diskcache"
)

var (
	verify  = flag.Bool("verify", false, "decompress every blob and check sizes")
	jsonOut = flag.Bool("json", false, "print machine-readable JSON")
	version = flag.Bool("version", false, "print version")
)

const dumpVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("glcachedump version %s\n", dumpVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no cache file specified")
		usage()
		os.Exit(1)
	}
	path := args[0]

	snap, err := diskcache.Inspect(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache: %v\n", err)
		os.Exit(1)
	}

	problems := snap.Problems
	if *verify {
		problems = append(problems, diskcache.CheckBlobs(path, snap.Entries)...)
	}

	if *jsonOut {
		printJSON(path, snap, problems)
	} else {
		printText(path, snap, problems)
	}
	if len(problems) > 0 {
		os.Exit(1)
	}
}

func printText(path string, snap *diskcache.Snapshot, problems []string) {
	fmt.Printf("%s: %d bytes, version %d, %d entries\n",
		path, snap.FileSize, snap.Version, len(snap.Entries))
	fmt.Printf("identity:    %s\n", snap.Identity)
	fmt.Printf("data region: %d bytes\n", snap.DataEnd)

	if len(snap.Entries) > 0 {
		fmt.Printf("\n%-16s %-16s %-16s %10s %10s %10s %10s\n",
			"vertex", "fragment", "geometry", "offset", "stored", "binary", "format")
		for _, e := range snap.Entries {
			fmt.Printf("%016x %016x %016x %10d %10d %10d %#10x\n",
				e.Key.Vertex.Hash, e.Key.Fragment.Hash, e.Key.Geometry.Hash,
				e.Offset, e.CompressedSize, e.UncompressedSize, e.Format)
		}
	}

	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "Problem: %s\n", p)
	}
}

type entryReport struct {
	Vertex           string `json:"vertex"`
	Fragment         string `json:"fragment"`
	Geometry         string `json:"geometry,omitempty"`
	Format           uint32 `json:"format"`
	Offset           uint32 `json:"offset"`
	CompressedSize   uint32 `json:"compressed_size"`
	UncompressedSize uint32 `json:"uncompressed_size"`
}

type identityReport struct {
	Vendor   string `json:"vendor"`
	Renderer string `json:"renderer"`
	Version  string `json:"version"`
}

type report struct {
	File     string         `json:"file"`
	FileSize int64          `json:"file_size"`
	Version  uint32         `json:"version"`
	Identity identityReport `json:"identity"`
	DataEnd  int64          `json:"data_end"`
	Entries  []entryReport  `json:"entries"`
	Problems []string       `json:"problems,omitempty"`
}

func printJSON(path string, snap *diskcache.Snapshot, problems []string) {
	r := report{
		File:     path,
		FileSize: snap.FileSize,
		Version:  snap.Version,
		Identity: identityReport{
			Vendor:   snap.Identity.Vendor,
			Renderer: snap.Identity.Renderer,
			Version:  snap.Identity.Version,
		},
		DataEnd:  snap.DataEnd,
		Entries:  make([]entryReport, 0, len(snap.Entries)),
		Problems: problems,
	}
	for _, e := range snap.Entries {
		er := entryReport{
			Vertex:           fmt.Sprintf("%016x", e.Key.Vertex.Hash),
			Fragment:         fmt.Sprintf("%016x", e.Key.Fragment.Hash),
			Format:           e.Format,
			Offset:           e.Offset,
			CompressedSize:   e.CompressedSize,
			UncompressedSize: e.UncompressedSize,
		}
		if e.Key.Geometry != (cachekey.ShaderKey{}) {
			er.Geometry = fmt.Sprintf("%016x", e.Key.Geometry.Hash)
		}
		r.Entries = append(r.Entries, er)
	}

	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: glcachedump [options] <cachefile>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  glcachedump pipelines.cache          Print footer and entries\n")
	fmt.Fprintf(os.Stderr, "  glcachedump -verify pipelines.cache  Decompress every blob\n")
	fmt.Fprintf(os.Stderr, "  glcachedump -json pipelines.cache    JSON output\n")
}
