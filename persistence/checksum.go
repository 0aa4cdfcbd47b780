package persistence

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// CRC32Table is the polynomial table used for all snapshot checksums.
var CRC32Table = crc32.MakeTable(crc32.IEEE)

// ChecksumMismatchError reports a payload whose stored checksum does not
// match its content.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch: expected 0x%08X, got 0x%08X", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	var cerr *ChecksumMismatchError
	return errors.As(err, &cerr)
}

// ChecksumWriter wraps an io.Writer and maintains a running CRC32 of all
// bytes written through it.
type ChecksumWriter struct {
	w   io.Writer
	crc hash.Hash32
}

// NewChecksumWriter returns a ChecksumWriter wrapping w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, crc: crc32.New(CRC32Table)}
}

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.crc.Write(p[:n])
	}
	return n, err
}

// Sum32 returns the checksum of everything written so far.
func (cw *ChecksumWriter) Sum32() uint32 {
	return cw.crc.Sum32()
}

// ChecksumReader wraps an io.Reader and maintains a running CRC32 of all
// bytes read through it.
type ChecksumReader struct {
	r   io.Reader
	crc hash.Hash32
}

// NewChecksumReader returns a ChecksumReader wrapping r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, crc: crc32.New(CRC32Table)}
}

func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.crc.Write(p[:n])
	}
	return n, err
}

// Sum32 returns the checksum of everything read so far.
func (cr *ChecksumReader) Sum32() uint32 {
	return cr.crc.Sum32()
}

// Verify compares the running checksum against expected and returns a
// ChecksumMismatchError when they differ.
func (cr *ChecksumReader) Verify(expected uint32) error {
	if actual := cr.Sum32(); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
