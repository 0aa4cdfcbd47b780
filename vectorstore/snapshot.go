package vectorstore

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/semvault/internal/vec32"
	"github.com/hupe1980/semvault/persistence"
)

// writeSnapshot serializes the raw index data into an atomic snapshot
// file: fixed header, then the optionally compressed payload covered by a
// CRC32 stored in the header.
func writeSnapshot(path string, dimension int, data []float32, ctype persistence.CompressionType) error {
	var count uint64
	if dimension > 0 {
		count = uint64(len(data) / dimension)
	}

	payload, used, err := persistence.Compress(vec32.Bytes(data), ctype)
	if err != nil {
		return err
	}

	header := persistence.NewFileHeader(count, uint32(dimension))
	header.Compression = used
	header.DataSize = uint64(len(payload))
	header.Checksum = crc32.Checksum(payload, persistence.CRC32Table)

	return persistence.SaveToFile(path, func(w io.Writer) error {
		if err := persistence.WriteHeader(w, &header); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("persistence: write payload: %w", err)
		}
		return nil
	})
}

// readSnapshot loads and verifies a snapshot, returning the stored
// dimension and raw vector data.
func readSnapshot(path string) (int, []float32, error) {
	var (
		dimension int
		data      []float32
	)

	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		header, err := persistence.ReadHeader(r)
		if err != nil {
			return err
		}

		payload := make([]byte, header.DataSize)
		cr := persistence.NewChecksumReader(r)
		if _, err := io.ReadFull(cr, payload); err != nil {
			return fmt.Errorf("persistence: read payload: %w", err)
		}
		if err := cr.Verify(header.Checksum); err != nil {
			return err
		}

		raw, err := persistence.Decompress(payload, header.UncompressedSize(), header.Compression)
		if err != nil {
			return err
		}
		vals, err := vec32.FromBytes(raw)
		if err != nil {
			return err
		}
		if uint64(len(vals)) != header.VectorCount*uint64(header.Dimension) {
			return fmt.Errorf("persistence: payload holds %d values, header declares %d vectors of dimension %d",
				len(vals), header.VectorCount, header.Dimension)
		}

		dimension = int(header.Dimension)
		data = vals
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return dimension, data, nil
}
