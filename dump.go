// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glcache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gogpu/glcache/driver"
)

// badShaderID numbers dump files for the life of the process, so devices
// sharing a dump directory never overwrite each other's files.
var badShaderID atomic.Uint32

// dumpBadShader writes the source and driver diagnostics of a failed compile
// to a numbered file under Options.ShaderDumpDir, so broken shaders can be
// reproduced outside the application.
func (d *Device) dumpBadShader(stage driver.ShaderStage, source, driverLog string, compileErr error) {
	if d.opts.ShaderDumpDir == "" {
		return
	}
	path := filepath.Join(d.opts.ShaderDumpDir, fmt.Sprintf("bad_shader_%d.txt", badShaderID.Add(1)))

	text := fmt.Sprintf("// stage: %s\n// error: %v\n\n%s\n\n/* driver log:\n%s\n*/\n",
		stage, compileErr, source, driverLog)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		slog.Error("glcache: writing shader dump failed", "path", path, "err", err)
		return
	}
	slog.Info("glcache: dumped failing shader", "path", path)
}
