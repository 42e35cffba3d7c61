// Package wire compresses pixel payloads sent between the server and its
// workers.
package wire

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// MaxPayload bounds a decompressed payload: 4096×4096 BGR pixels.
const MaxPayload = 4096 * 4096 * 3

// ErrCorrupt is returned for data that does not decompress.
var ErrCorrupt = errors.New("wire: corrupt payload")

// Payloads are compressed with one shared encoder and decoder.
// EncodeAll and DecodeAll may be called concurrently.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayload))
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Compress appends the zstd compressed data to dst.
func Compress(dst, data []byte) ([]byte, error) {
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("compress: %d bytes exceed %d", len(data), MaxPayload)
	}
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, dst), nil
}

// Decompress is the inverse of Compress.
func Decompress(data []byte) ([]byte, error) {
	_, dec, err := codec()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
