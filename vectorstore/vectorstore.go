package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/semvault/codec"
	"github.com/hupe1980/semvault/index/flat"
	"github.com/hupe1980/semvault/internal/sqlite"
	"github.com/hupe1980/semvault/metadata"
	"github.com/hupe1980/semvault/persistence"
)

const (
	snapshotFileName = "vectors.snapshot"
	metadataFileName = "metadata.db"
	lockFileName     = ".lock"
)

// Options configures a Store.
type Options struct {
	// Dimension fixes the vector dimension up front. Zero defers to the
	// first inserted batch.
	Dimension int
	// Compression selects the snapshot payload codec.
	Compression persistence.CompressionType
	// Codec serializes metadata extra fields.
	Codec codec.Codec
}

// DefaultOptions are the recommended store options.
var DefaultOptions = Options{
	Compression: persistence.CompressionNone,
	Codec:       codec.Default,
}

// Result is one search hit with its metadata record.
type Result struct {
	ID     uint32
	Score  float32
	Record metadata.Record
}

// SearchOptions narrows a search.
type SearchOptions struct {
	// Vaults restricts hits to the named vaults. Empty means all vaults.
	Vaults []string
}

// WithVaults restricts a search to the named vaults.
func WithVaults(vaults ...string) func(o *SearchOptions) {
	return func(o *SearchOptions) {
		o.Vaults = vaults
	}
}

// Store keeps vectors and their metadata records in lockstep. Vector data
// lives in memory and reaches disk through Persist; metadata rows commit
// inside AddVectors. A store directory belongs to one process at a time.
type Store struct {
	dir         string
	compression persistence.CompressionType

	index  *flat.Flat
	meta   *metadata.Store
	vaults *metadata.VaultFilter
	db     *sql.DB
	lock   *fileLock

	writeMu sync.Mutex
	dirty   bool
	closed  atomic.Bool
}

// Open locks dir, loads the snapshot and metadata database inside it and
// verifies that both sides hold the same number of entries. A missing
// directory is created; a missing snapshot means an empty store.
func Open(ctx context.Context, dir string, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir == "" {
		return nil, errors.New("vectorstore: directory is required")
	}
	if opts.Dimension < 0 {
		return nil, fmt.Errorf("vectorstore: negative dimension %d", opts.Dimension)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: create directory: %w", err)
	}

	lock, err := acquireLock(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, err
	}

	store, err := open(ctx, dir, opts)
	if err != nil {
		lock.release()
		return nil, err
	}
	store.lock = lock
	return store, nil
}

func open(ctx context.Context, dir string, opts Options) (store *Store, err error) {
	db, err := sqlite.Open(filepath.Join(dir, metadataFileName))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	meta, err := metadata.NewStore(ctx, db, func(o *metadata.Options) {
		o.Codec = opts.Codec
	})
	if err != nil {
		return nil, err
	}

	idx, err := loadIndex(filepath.Join(dir, snapshotFileName), opts.Dimension)
	if err != nil {
		return nil, err
	}

	recordCount, err := meta.Count(ctx)
	if err != nil {
		return nil, err
	}
	if uint64(idx.Count()) != recordCount {
		return nil, fmt.Errorf("%w: snapshot holds %d vectors, metadata holds %d records", ErrCorrupt, idx.Count(), recordCount)
	}

	vaults := metadata.NewVaultFilter()
	byVault, err := meta.Vaults(ctx)
	if err != nil {
		return nil, err
	}
	for name, ids := range byVault {
		vaults.AddBatch(name, ids)
	}

	return &Store{
		dir:         dir,
		compression: opts.Compression,
		index:       idx,
		meta:        meta,
		vaults:      vaults,
		db:          db,
	}, nil
}

// loadIndex rebuilds the flat index from the snapshot at path. A missing
// snapshot yields an empty index; any other failure means the snapshot
// cannot be trusted.
func loadIndex(path string, dimension int) (*flat.Flat, error) {
	dim, data, err := readSnapshot(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return flat.New(func(o *flat.Options) { o.Dimension = dimension })
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if dimension > 0 && dim > 0 && dim != dimension {
		return nil, fmt.Errorf("vectorstore: configured dimension %d does not match stored dimension %d", dimension, dim)
	}
	if dim == 0 {
		dim = dimension
	}
	if len(data) == 0 {
		return flat.New(func(o *flat.Options) { o.Dimension = dim })
	}

	f, err := flat.FromVectors(dim, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return f, nil
}

// AddVectors appends vectors paired positionally with records and returns
// the assigned offset ids. The whole batch is validated before any
// mutation; on failure neither side changes. Vectors reach disk on the
// next Persist, metadata rows commit here.
func (s *Store) AddVectors(ctx context.Context, vectors [][]float32, records []metadata.Record) ([]uint32, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if len(vectors) != len(records) {
		return nil, &BatchMismatchError{Vectors: len(vectors), Records: len(records)}
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	base := s.index.Count()
	ids, err := s.index.BatchAppend(ctx, vectors)
	if err != nil {
		return nil, err
	}

	recs := make([]metadata.Record, len(records))
	copy(recs, records)
	for i := range recs {
		recs[i].ID = ids[i]
	}

	if err := s.meta.AppendBatch(ctx, recs); err != nil {
		s.index.Truncate(base)
		return nil, err
	}

	for _, rec := range recs {
		s.vaults.Add(rec.Vault, rec.ID)
	}
	s.dirty = true
	return ids, nil
}

// Search returns the k stored vectors most similar to query, highest
// score first, each with its metadata record. An empty store returns no
// results. A hit without a metadata record means the two sides diverged
// and surfaces as ErrCorrupt.
func (s *Store) Search(ctx context.Context, query []float32, k int, optFns ...func(o *SearchOptions)) ([]Result, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var opts SearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	hits, err := s.index.BruteSearch(ctx, query, k, s.vaults.Filter(opts.Vaults...))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		rec, err := s.meta.Get(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return nil, fmt.Errorf("%w: vector %d has no metadata record", ErrCorrupt, hit.ID)
			}
			return nil, err
		}
		results = append(results, Result{ID: hit.ID, Score: hit.Score, Record: rec})
	}
	return results, nil
}

// Persist writes the in-memory index to the snapshot file. Persist is
// idempotent: repeating it, or persisting an empty store, is safe.
func (s *Store) Persist(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dim, data := s.index.Snapshot()
	if err := writeSnapshot(filepath.Join(s.dir, snapshotFileName), dim, data, s.compression); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Close persists any unpersisted vectors, closes the metadata database
// and releases the directory lock. Close is idempotent.
func (s *Store) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var errs []error
	if s.dirty {
		if err := s.persistLocked(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("vectorstore: close metadata db: %w", err))
	}
	if err := s.lock.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Count returns the number of stored vectors.
func (s *Store) Count() int {
	return s.index.Count()
}

// Dimension returns the fixed vector dimension, or 0 before the first
// insert.
func (s *Store) Dimension() int {
	return s.index.Dimension()
}

// Vaults returns the vault names present in the store, sorted.
func (s *Store) Vaults() []string {
	return s.vaults.Vaults()
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}
