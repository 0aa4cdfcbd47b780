package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hupe1980/semvault/codec"
)

// ErrNotFound indicates no record exists for the requested id.
var ErrNotFound = errors.New("metadata: record not found")

// Record describes the document behind a stored vector. ID is the vector's
// offset in the index. Extra holds source fields that have no dedicated
// column, such as residual front matter.
type Record struct {
	ID    uint32
	Title string
	Path  string
	Vault string
	Extra map[string]string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS metadata (
	id    INTEGER PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	path  TEXT NOT NULL DEFAULT '',
	vault TEXT NOT NULL DEFAULT '',
	extra BLOB
);
CREATE INDEX IF NOT EXISTS idx_metadata_vault ON metadata(vault);
`

const insertRecordSQL = `INSERT INTO metadata (id, title, path, vault, extra) VALUES (?, ?, ?, ?, ?)`

// Options configures a Store.
type Options struct {
	// Codec serializes the Extra field. Defaults to codec.Default.
	Codec codec.Codec
}

// DefaultOptions are the recommended store options.
var DefaultOptions = Options{
	Codec: codec.Default,
}

// Store persists records in a SQLite table keyed by vector id.
type Store struct {
	db    *sql.DB
	codec codec.Codec
}

// NewStore creates the schema if needed and returns a Store backed by db.
// The caller keeps ownership of db.
func NewStore(ctx context.Context, db *sql.DB, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("metadata: create schema: %w", err)
	}

	return &Store{db: db, codec: opts.Codec}, nil
}

// AppendBatch inserts records in a single transaction. Record ids must be
// new; inserting an existing id fails and rolls back the whole batch.
func (s *Store) AppendBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata: begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("metadata: prepare append: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		extra, err := s.encodeExtra(rec.Extra)
		if err != nil {
			return fmt.Errorf("metadata: encode extra for id %d: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Title, rec.Path, rec.Vault, extra); err != nil {
			return fmt.Errorf("metadata: insert id %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metadata: commit append: %w", err)
	}
	return nil
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id uint32) (Record, error) {
	rec := Record{ID: id}

	var extra []byte
	row := s.db.QueryRowContext(ctx, `SELECT title, path, vault, extra FROM metadata WHERE id = ?`, id)
	if err := row.Scan(&rec.Title, &rec.Path, &rec.Vault, &extra); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("metadata: get id %d: %w", id, err)
	}

	if len(extra) > 0 {
		if err := s.codec.Unmarshal(extra, &rec.Extra); err != nil {
			return Record{}, fmt.Errorf("metadata: decode extra for id %d: %w", id, err)
		}
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata`).Scan(&count); err != nil {
		return 0, fmt.Errorf("metadata: count: %w", err)
	}
	return count, nil
}

// Vaults returns every stored id grouped by vault name, ordered by id
// within each vault.
func (s *Store) Vaults(ctx context.Context) (map[string][]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vault FROM metadata ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list vaults: %w", err)
	}
	defer rows.Close()

	vaults := make(map[string][]uint32)
	for rows.Next() {
		var (
			id    uint32
			vault string
		)
		if err := rows.Scan(&id, &vault); err != nil {
			return nil, fmt.Errorf("metadata: scan vault row: %w", err)
		}
		vaults[vault] = append(vaults[vault], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: list vaults: %w", err)
	}
	return vaults, nil
}

func (s *Store) encodeExtra(extra map[string]string) ([]byte, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	return s.codec.Marshal(extra)
}
