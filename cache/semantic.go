package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/semvault/distance"
	"github.com/hupe1980/semvault/internal/vec32"
)

// DefaultThreshold is the minimum cosine similarity for a semantic hit.
const DefaultThreshold = 0.95

// ErrInvalidThreshold indicates a similarity threshold outside (0, 1].
var ErrInvalidThreshold = errors.New("cache: similarity threshold must be in (0, 1]")

// Entry pairs a query embedding with its stored response.
type Entry struct {
	Embedding []float32
	Response  string
}

// Match describes a semantic cache hit.
type Match struct {
	Response   string
	Similarity float64
}

// SemanticOptions configures a Semantic cache.
type SemanticOptions struct {
	// Table is the SQLite table name.
	Table string
	// Threshold is the minimum cosine similarity for a hit.
	Threshold float64
	// TTL bounds entry age. Zero disables expiry.
	TTL time.Duration
}

// DefaultSemanticOptions are the recommended semantic cache options.
var DefaultSemanticOptions = SemanticOptions{
	Table:     "semantic_cache",
	Threshold: DefaultThreshold,
}

// Semantic is an append-only cache matching queries by embedding
// similarity instead of exact keys. Every row keeps its AUTOINCREMENT id
// so lazy expiry always deletes the row it just inspected.
type Semantic struct {
	db        *sql.DB
	threshold float64
	ttl       time.Duration
	now       func() time.Time

	scanSQL   string
	insertSQL string
	deleteSQL string
	countSQL  string
}

// NewSemantic creates the cache table if needed and returns a Semantic
// bound to it. The caller keeps ownership of db.
func NewSemantic(ctx context.Context, db *sql.DB, optFns ...func(o *SemanticOptions)) (*Semantic, error) {
	opts := DefaultSemanticOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !validTableName(opts.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, opts.Table)
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidThreshold, opts.Threshold)
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("cache: negative ttl %s", opts.TTL)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	embedding  BLOB NOT NULL,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`, opts.Table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("cache: create table %s: %w", opts.Table, err)
	}

	return &Semantic{
		db:        db,
		threshold: opts.Threshold,
		ttl:       opts.TTL,
		now:       time.Now,
		scanSQL:   fmt.Sprintf(`SELECT id, embedding, response, created_at FROM %s ORDER BY id`, opts.Table),
		insertSQL: fmt.Sprintf(`INSERT INTO %s (embedding, response, created_at) VALUES (?, ?, ?)`, opts.Table),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, opts.Table),
		countSQL:  fmt.Sprintf(`SELECT COUNT(*) FROM %s`, opts.Table),
	}, nil
}

// Get scans all entries for the one most similar to embedding. Rows that
// do not decode or whose dimension differs are skipped. When the best
// match passes the threshold but has expired it is deleted by its stored
// id and the call reports a miss.
func (c *Semantic) Get(ctx context.Context, embedding []float32) (Match, bool, error) {
	if len(embedding) == 0 {
		return Match{}, false, ErrEmptyEmbedding
	}

	rows, err := c.db.QueryContext(ctx, c.scanSQL)
	if err != nil {
		return Match{}, false, fmt.Errorf("cache: scan entries: %w", err)
	}
	defer rows.Close()

	var (
		found         bool
		bestID        int64
		bestSim       float64
		bestResponse  string
		bestCreatedAt int64
	)
	for rows.Next() {
		var (
			id        int64
			blob      []byte
			response  string
			createdAt int64
		)
		if err := rows.Scan(&id, &blob, &response, &createdAt); err != nil {
			return Match{}, false, fmt.Errorf("cache: scan entry: %w", err)
		}

		vec, err := vec32.FromBytes(blob)
		if err != nil || len(vec) != len(embedding) {
			continue
		}

		sim := float64(distance.Cosine(embedding, vec))
		if !found || sim > bestSim {
			found = true
			bestID = id
			bestSim = sim
			bestResponse = response
			bestCreatedAt = createdAt
		}
	}
	if err := rows.Err(); err != nil {
		return Match{}, false, fmt.Errorf("cache: scan entries: %w", err)
	}

	if !found || bestSim < c.threshold {
		return Match{}, false, nil
	}

	if c.expired(bestCreatedAt) {
		if _, err := c.db.ExecContext(ctx, c.deleteSQL, bestID); err != nil {
			return Match{}, false, fmt.Errorf("cache: delete expired entry %d: %w", bestID, err)
		}
		return Match{}, false, nil
	}

	return Match{Response: bestResponse, Similarity: bestSim}, true, nil
}

// Set appends a new entry. Entries are never deduplicated or overwritten.
func (c *Semantic) Set(ctx context.Context, embedding []float32, response string) error {
	if len(embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if _, err := c.db.ExecContext(ctx, c.insertSQL, vec32.Bytes(embedding), response, c.now().UnixNano()); err != nil {
		return fmt.Errorf("cache: insert entry: %w", err)
	}
	return nil
}

// WarmUp bulk-loads entries in one transaction, skipping any with an
// empty embedding or empty response, and returns the number inserted.
func (c *Semantic) WarmUp(ctx context.Context, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cache: begin warm-up: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, c.insertSQL)
	if err != nil {
		return 0, fmt.Errorf("cache: prepare warm-up: %w", err)
	}
	defer stmt.Close()

	createdAt := c.now().UnixNano()
	inserted := 0
	for _, entry := range entries {
		if len(entry.Embedding) == 0 || entry.Response == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, vec32.Bytes(entry.Embedding), entry.Response, createdAt); err != nil {
			return 0, fmt.Errorf("cache: warm-up insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cache: commit warm-up: %w", err)
	}
	return inserted, nil
}

// Count returns the number of stored entries, including expired ones not
// yet deleted by a read.
func (c *Semantic) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.db.QueryRowContext(ctx, c.countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return count, nil
}

func (c *Semantic) expired(createdAt int64) bool {
	return c.ttl > 0 && c.now().Sub(time.Unix(0, createdAt)) > c.ttl
}
