// Package flat provides an append-only flat index for exact vector search.
//
// Vectors are L2-normalized on insert and identified by their insertion
// offset (0-based, never reused). Search compares the normalized query
// against every stored vector by inner product, which equals cosine
// similarity on unit vectors.
package flat

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/semvault/distance"
	"github.com/hupe1980/semvault/index"
	"github.com/hupe1980/semvault/internal/queue"
)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the vector dimensionality for this index.
	// Zero means the dimension is fixed by the first inserted vector.
	Dimension int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension: 0,
}

// indexState holds the immutable state of the index for lock-free reads.
// Vectors are stored row-major: vector i occupies data[i*dim : (i+1)*dim].
type indexState struct {
	data  []float32
	count int
}

// Flat is an append-only flat index.
// It uses a copy-on-write pattern: reads are lock-free, writes are serialized.
type Flat struct {
	state     atomic.Pointer[indexState]
	writeMu   sync.Mutex   // Serializes appends only
	dimension atomic.Int32 // 0 until fixed by options or first insert
	opts      Options
}

// New creates a new flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension < 0 {
		return nil, &index.ErrDimensionMismatch{Expected: 0, Actual: opts.Dimension}
	}

	f := &Flat{opts: opts}
	f.dimension.Store(int32(opts.Dimension))
	f.state.Store(&indexState{})
	return f, nil
}

// FromVectors restores a flat index from a persisted snapshot.
// The data must contain count*dimension float32 values of already
// unit-normalized vectors in insertion order.
func FromVectors(dimension int, data []float32) (*Flat, error) {
	if dimension <= 0 {
		return nil, &index.ErrDimensionMismatch{Expected: 1, Actual: dimension}
	}
	if len(data)%dimension != 0 {
		return nil, &index.ErrDimensionMismatch{Expected: dimension, Actual: len(data) % dimension}
	}

	f := &Flat{opts: Options{Dimension: dimension}}
	f.dimension.Store(int32(dimension))
	f.state.Store(&indexState{
		data:  data,
		count: len(data) / dimension,
	})
	return f, nil
}

func (f *Flat) getState() *indexState {
	return f.state.Load()
}

// Dimension returns the fixed vector dimensionality, or 0 if no vector has
// been inserted yet and none was configured.
func (f *Flat) Dimension() int {
	return int(f.dimension.Load())
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	return f.getState().count
}

// Append inserts a single vector and returns its offset.
func (f *Flat) Append(ctx context.Context, v []float32) (uint32, error) {
	ids, err := f.BatchAppend(ctx, [][]float32{v})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BatchAppend inserts vectors in input order and returns their offsets.
//
// The whole batch is validated (dimensions, zero norms) before anything is
// stored: on error no vector is appended. If no dimension is fixed yet, the
// first vector of the batch fixes it.
func (f *Flat) BatchAppend(ctx context.Context, vectors [][]float32) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	dim := int(f.dimension.Load())
	if dim == 0 {
		if len(vectors[0]) == 0 {
			return nil, index.ErrEmptyVector
		}
		dim = len(vectors[0])
	}

	// Validate and normalize everything up front so the append below
	// cannot leave a partially written batch.
	normalized := make([]float32, 0, len(vectors)*dim)
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, index.ErrEmptyVector
		}
		if len(v) != dim {
			return nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
		norm, ok := distance.NormalizeL2Copy(v)
		if !ok {
			return nil, index.ErrZeroVector
		}
		normalized = append(normalized, norm...)
	}

	oldState := f.getState()

	newData := make([]float32, len(oldState.data), len(oldState.data)+len(normalized))
	copy(newData, oldState.data)
	newData = append(newData, normalized...)

	ids := make([]uint32, len(vectors))
	for i := range vectors {
		ids[i] = uint32(oldState.count + i)
	}

	f.dimension.Store(int32(dim))
	f.state.Store(&indexState{
		data:  newData,
		count: oldState.count + len(vectors),
	})
	return ids, nil
}

// VectorByID returns a copy of the stored unit vector at the given offset.
func (f *Flat) VectorByID(ctx context.Context, id uint32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := f.getState()
	if int(id) >= st.count {
		return nil, &index.ErrNotFound{ID: id}
	}

	dim := int(f.dimension.Load())
	v := make([]float32, dim)
	copy(v, st.data[int(id)*dim:(int(id)+1)*dim])
	return v, nil
}

// BruteSearch performs an exact top-k search by inner product.
//
// Results are ordered by descending score. An empty index yields an empty
// result, not an error. If k exceeds the number of stored vectors, all of
// them are returned. The optional filter restricts candidate offsets.
func (f *Flat) BruteSearch(ctx context.Context, query []float32, k int, filter index.Filter) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if len(query) == 0 {
		return nil, index.ErrEmptyVector
	}

	st := f.getState()
	if st.count == 0 {
		return nil, nil
	}

	dim := int(f.dimension.Load())
	if len(query) != dim {
		return nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(query)}
	}

	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		return nil, index.ErrZeroVector
	}

	actualK := k
	if actualK > st.count {
		actualK = st.count
	}

	// Bounded top-k: min-queue keeps the worst retained score on top.
	top := queue.NewMin(actualK)
	for i := 0; i < st.count; i++ {
		id := uint32(i)
		if filter != nil && !filter(id) {
			continue
		}

		score := distance.Dot(q, st.data[i*dim:(i+1)*dim])

		if top.Len() < actualK {
			top.Push(queue.Item{ID: id, Score: score})
			continue
		}
		worst, _ := top.Top()
		if score > worst.Score {
			top.Pop()
			top.Push(queue.Item{ID: id, Score: score})
		}
	}

	// Popping the min-queue yields ascending scores; fill back to front.
	results := make([]index.SearchResult, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := top.Pop()
		results[i] = index.SearchResult{ID: item.ID, Score: item.Score}
	}
	return results, nil
}

// Truncate discards all vectors at offset n and beyond, rolling the index
// back to n vectors. Truncating at or past the current count is a no-op.
// The fixed dimension is kept even when the index becomes empty.
func (f *Flat) Truncate(n int) {
	if n < 0 {
		n = 0
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.getState()
	if n >= oldState.count {
		return
	}

	dim := int(f.dimension.Load())
	newData := make([]float32, n*dim)
	copy(newData, oldState.data[:n*dim])

	f.state.Store(&indexState{
		data:  newData,
		count: n,
	})
}

// Snapshot returns the dimension and a copy of the raw vector data in
// insertion order, for persistence.
func (f *Flat) Snapshot() (int, []float32) {
	st := f.getState()
	data := make([]float32, len(st.data))
	copy(data, st.data)
	return int(f.dimension.Load()), data
}
