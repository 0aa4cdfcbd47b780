package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeBufferSize is the buffer used for snapshot reads and writes.
const writeBufferSize = 256 * 1024

// MarshalHeader encodes h into its fixed 64-byte layout.
func MarshalHeader(h *FileHeader) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = uint8(h.Compression)
	// bytes 9-11 padding
	binary.LittleEndian.PutUint64(buf[12:20], h.VectorCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.Dimension)
	binary.LittleEndian.PutUint64(buf[24:32], h.DataOffset)
	binary.LittleEndian.PutUint64(buf[32:40], h.DataSize)
	binary.LittleEndian.PutUint32(buf[40:44], h.Checksum)
	// bytes 44-63 reserved
	return buf
}

// UnmarshalHeader decodes a fixed 64-byte header without validating it.
func UnmarshalHeader(buf []byte) (FileHeader, error) {
	if len(buf) < HeaderSize {
		return FileHeader{}, ErrHeaderTooShort
	}
	return FileHeader{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint32(buf[4:8]),
		Compression: CompressionType(buf[8]),
		VectorCount: binary.LittleEndian.Uint64(buf[12:20]),
		Dimension:   binary.LittleEndian.Uint32(buf[20:24]),
		DataOffset:  binary.LittleEndian.Uint64(buf[24:32]),
		DataSize:    binary.LittleEndian.Uint64(buf[32:40]),
		Checksum:    binary.LittleEndian.Uint32(buf[40:44]),
	}, nil
}

// WriteHeader writes the 64-byte header to w.
func WriteHeader(w io.Writer, h *FileHeader) error {
	buf := MarshalHeader(h)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	return nil
}

// ReadHeader reads and validates the 64-byte header from r.
func ReadHeader(r io.Reader) (FileHeader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileHeader{}, fmt.Errorf("persistence: read header: %w", err)
	}
	h, err := UnmarshalHeader(buf[:])
	if err != nil {
		return FileHeader{}, err
	}
	if err := h.Validate(); err != nil {
		return FileHeader{}, err
	}
	return h, nil
}

// SaveToFile writes a snapshot atomically. The write callback receives a
// buffered writer backed by a temp file in the target directory; on success
// the temp file is fsynced and renamed over filename.
func SaveToFile(filename string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("persistence: flush: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("persistence: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp file: %w", err)
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("persistence: rename: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir makes a rename durable on POSIX filesystems. Errors are ignored
// since not every platform supports fsync on directories.
func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}

// LoadFromFile opens filename and invokes read with a buffered reader. The
// raw os.Open error is returned unchanged so callers can test for
// os.ErrNotExist.
func LoadFromFile(filename string, read func(r io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return read(bufio.NewReaderSize(f, writeBufferSize))
}
