package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/semvault/codec"
	"github.com/hupe1980/semvault/internal/vec32"
)

var (
	// ErrInvalidTable indicates a table name that is not a plain identifier.
	ErrInvalidTable = errors.New("cache: invalid table name")

	// ErrEmptyEmbedding indicates an embedding with no components.
	ErrEmptyEmbedding = errors.New("cache: empty embedding")
)

// Key returns the cache key for content: the hex-encoded SHA-256 of the
// bytes. Identical content always maps to the same key.
func Key(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// KeyString returns the cache key for a string, see Key.
func KeyString(content string) string {
	return Key([]byte(content))
}

// KVOptions configures a KV cache.
type KVOptions struct {
	// Table is the SQLite table name.
	Table string
	// TTL bounds entry age. Zero disables expiry.
	TTL time.Duration
	// Codec serializes values for SetValue and GetValue.
	Codec codec.Codec
}

// DefaultKVOptions are the recommended KV cache options.
var DefaultKVOptions = KVOptions{
	Table: "cache",
	Codec: codec.Default,
}

// KV is an exact-match cache table mapping content-hash keys to opaque
// payloads. Writes upsert; reads delete expired entries lazily.
type KV struct {
	db    *sql.DB
	codec codec.Codec
	ttl   time.Duration
	now   func() time.Time

	selectSQL string
	upsertSQL string
	deleteSQL string
	countSQL  string
}

// NewKV creates the cache table if needed and returns a KV bound to it.
// The caller keeps ownership of db.
func NewKV(ctx context.Context, db *sql.DB, optFns ...func(o *KVOptions)) (*KV, error) {
	opts := DefaultKVOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !validTableName(opts.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, opts.Table)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("cache: negative ttl %s", opts.TTL)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`, opts.Table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("cache: create table %s: %w", opts.Table, err)
	}

	return &KV{
		db:        db,
		codec:     opts.Codec,
		ttl:       opts.TTL,
		now:       time.Now,
		selectSQL: fmt.Sprintf(`SELECT value, created_at FROM %s WHERE key = ?`, opts.Table),
		upsertSQL: fmt.Sprintf(`INSERT INTO %s (key, value, created_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`, opts.Table),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, opts.Table),
		countSQL:  fmt.Sprintf(`SELECT COUNT(*) FROM %s`, opts.Table),
	}, nil
}

// Get returns the payload stored under key. An entry past its TTL is
// deleted and reported as a miss.
func (c *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		createdAt int64
	)
	err := c.db.QueryRowContext(ctx, c.selectSQL, key).Scan(&value, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}

	if c.expired(createdAt) {
		if _, err := c.db.ExecContext(ctx, c.deleteSQL, key); err != nil {
			return nil, false, fmt.Errorf("cache: delete expired %s: %w", key, err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous payload and
// refreshing the entry's timestamp.
func (c *KV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := c.db.ExecContext(ctx, c.upsertSQL, key, value, c.now().UnixNano()); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// GetVector returns the embedding stored under key. A payload that does
// not decode as a vector counts as a miss.
func (c *KV) GetVector(ctx context.Context, key string) ([]float32, bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	vec, err := vec32.FromBytes(raw)
	if err != nil {
		return nil, false, nil
	}
	return vec, true, nil
}

// SetVector stores an embedding under key.
func (c *KV) SetVector(ctx context.Context, key string, vec []float32) error {
	return c.Set(ctx, key, vec32.Bytes(vec))
}

// GetValue decodes the payload stored under key into out. A payload the
// codec cannot decode counts as a miss.
func (c *KV) GetValue(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := c.codec.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

// SetValue encodes v with the configured codec and stores it under key.
func (c *KV) SetValue(ctx context.Context, key string, v any) error {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode value for %s: %w", key, err)
	}
	return c.Set(ctx, key, data)
}

// Delete removes the entry under key. Deleting a missing key is a no-op.
func (c *KV) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, c.deleteSQL, key); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// Count returns the number of stored entries, including expired ones not
// yet deleted by a read.
func (c *KV) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.db.QueryRowContext(ctx, c.countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return count, nil
}

func (c *KV) expired(createdAt int64) bool {
	return c.ttl > 0 && c.now().Sub(time.Unix(0, createdAt)) > c.ttl
}

// validTableName admits identifiers of letters, digits and underscores
// not starting with a digit. Table names are interpolated into SQL text
// and must never come from untrusted input.
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
