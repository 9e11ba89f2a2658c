package service

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	// compressionThreshold is the plaintext size above which compression is
	// attempted before encryption.
	compressionThreshold = 1024

	// maxDecompressedSize caps decompression output (64MB) so a corrupted or
	// hostile envelope cannot exhaust memory.
	maxDecompressedSize = 64 * 1024 * 1024
)

var (
	// zstd encoder and decoder are thread-safe and reusable
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// compress returns the zstd-compressed form of data, or data unchanged when
// compression does not help (or the payload is below the threshold). The
// boolean reports whether compression was applied.
func compress(data []byte) ([]byte, bool, error) {
	if len(data) < compressionThreshold {
		return data, false, nil
	}
	encoder, _, err := initZstd()
	if err != nil {
		return nil, false, err
	}
	compressed := encoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return data, false, nil
	}
	return compressed, true, nil
}

// decompress inflates zstd-compressed data, enforcing the decompressed size cap.
func decompress(data []byte) ([]byte, error) {
	_, decoder, err := initZstd()
	if err != nil {
		return nil, err
	}
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed size %d exceeds limit", len(out))
	}
	return out, nil
}
