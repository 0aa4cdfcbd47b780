package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies semvault snapshot files ("SVL0").
	MagicNumber uint32 = 0x53564C30

	// FormatVersion is the current snapshot format version (major.minor
	// packed as 0xMMMMmmmm).
	FormatVersion uint32 = 0x00010000

	// HeaderSize is the fixed on-disk size of a FileHeader.
	HeaderSize = 64
)

// CompressionType selects the codec applied to the snapshot payload.
type CompressionType uint8

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone CompressionType = iota
	// CompressionLZ4 applies LZ4 block compression.
	CompressionLZ4
	// CompressionZSTD applies zstandard compression.
	CompressionZSTD
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

var (
	// ErrInvalidMagic indicates the file does not start with MagicNumber.
	ErrInvalidMagic = errors.New("persistence: invalid magic number")

	// ErrInvalidVersion indicates an unsupported snapshot format version.
	ErrInvalidVersion = errors.New("persistence: unsupported format version")

	// ErrInvalidCompression indicates an unknown compression type byte.
	ErrInvalidCompression = errors.New("persistence: unknown compression type")

	// ErrHeaderTooShort indicates a truncated header.
	ErrHeaderTooShort = errors.New("persistence: header too short")
)

// FileHeader is the fixed 64-byte header at the start of every snapshot
// file. All integers are little-endian. Checksum covers the payload bytes
// as stored on disk, after compression.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Compression CompressionType
	VectorCount uint64
	Dimension   uint32
	DataOffset  uint64
	DataSize    uint64
	Checksum    uint32
}

// NewFileHeader returns a header for the current format version with the
// payload starting right after the header.
func NewFileHeader(count uint64, dimension uint32) FileHeader {
	return FileHeader{
		Magic:       MagicNumber,
		Version:     FormatVersion,
		Compression: CompressionNone,
		VectorCount: count,
		Dimension:   dimension,
		DataOffset:  HeaderSize,
	}
}

// Validate checks magic, version and compression type.
func (h *FileHeader) Validate() error {
	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08X", ErrInvalidMagic, h.Magic)
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: got 0x%08X", ErrInvalidVersion, h.Version)
	}
	switch h.Compression {
	case CompressionNone, CompressionLZ4, CompressionZSTD:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidCompression, uint8(h.Compression))
	}
	return nil
}

// UncompressedSize returns the expected payload size in bytes after
// decompression.
func (h *FileHeader) UncompressedSize() int {
	return int(h.VectorCount) * int(h.Dimension) * 4
}
