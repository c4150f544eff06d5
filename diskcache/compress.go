// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diskcache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// maxDecodedBlob caps what a corrupt entry can make the decoder allocate.
// Real program binaries are a few hundred KB at most.
const maxDecodedBlob = 256 << 20

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedBlob))
)

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2+64))
}

// decompress inflates a blob and requires the result to have exactly the
// size the index recorded for it.
func decompress(data []byte, uncompressedSize uint32) ([]byte, error) {
	// A claimed size past the decoder limit cannot decode; skip the
	// preallocation instead of trusting it.
	capHint := 0
	if uint64(uncompressedSize) <= maxDecodedBlob {
		capHint = int(uncompressedSize)
	}
	out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, capHint))
	if err != nil {
		return nil, fmt.Errorf("diskcache: decompressing blob: %w", err)
	}
	if uint64(len(out)) != uint64(uncompressedSize) {
		return nil, fmt.Errorf("diskcache: blob decompressed to %d bytes, index says %d",
			len(out), uncompressedSize)
	}
	return out, nil
}
