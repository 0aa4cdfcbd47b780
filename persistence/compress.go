package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

// Compress encodes payload with the requested codec and returns the codec
// actually used. When compression does not shrink the payload the original
// bytes are returned together with CompressionNone.
func Compress(payload []byte, ctype CompressionType) ([]byte, CompressionType, error) {
	switch ctype {
	case CompressionNone:
		return payload, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		var c lz4.Compressor
		n, err := c.CompressBlock(payload, buf)
		if err != nil {
			return nil, 0, fmt.Errorf("persistence: lz4 compress: %w", err)
		}
		if n == 0 || n >= len(payload) {
			return payload, CompressionNone, nil
		}
		return buf[:n], CompressionLZ4, nil
	case CompressionZSTD:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)
		out := enc.EncodeAll(payload, nil)
		if len(out) >= len(payload) {
			return payload, CompressionNone, nil
		}
		return out, CompressionZSTD, nil
	default:
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidCompression, uint8(ctype))
	}
}

// Decompress decodes payload back to uncompressedSize bytes.
func Decompress(payload []byte, uncompressedSize int, ctype CompressionType) ([]byte, error) {
	switch ctype {
	case CompressionNone:
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("persistence: payload size %d does not match expected %d", len(payload), uncompressedSize)
		}
		return payload, nil
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("persistence: lz4 decompress: %w", err)
		}
		if n != uncompressedSize {
			return nil, fmt.Errorf("persistence: lz4 decompressed %d bytes, expected %d", n, uncompressedSize)
		}
		return out, nil
	case CompressionZSTD:
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("persistence: zstd decompress: %w", err)
		}
		if len(out) != uncompressedSize {
			return nil, fmt.Errorf("persistence: zstd decompressed %d bytes, expected %d", len(out), uncompressedSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCompression, uint8(ctype))
	}
}
