package metadata

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/semvault/index"
)

// VaultFilter maps vault names to Roaring Bitmaps of vector ids and turns a
// vault selection into an index.Filter. Safe for concurrent use; filters
// returned by Filter see a snapshot of the ids present at call time.
type VaultFilter struct {
	mu      sync.RWMutex
	bitmaps map[string]*roaring.Bitmap
}

// NewVaultFilter returns an empty VaultFilter.
func NewVaultFilter() *VaultFilter {
	return &VaultFilter{bitmaps: make(map[string]*roaring.Bitmap)}
}

// Add records that id belongs to vault.
func (f *VaultFilter) Add(vault string, id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bm, ok := f.bitmaps[vault]
	if !ok {
		bm = roaring.New()
		f.bitmaps[vault] = bm
	}
	bm.Add(id)
}

// AddBatch records that all ids belong to vault.
func (f *VaultFilter) AddBatch(vault string, ids []uint32) {
	if len(ids) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bm, ok := f.bitmaps[vault]
	if !ok {
		bm = roaring.New()
		f.bitmaps[vault] = bm
	}
	bm.AddMany(ids)
}

// Filter returns an index.Filter admitting only ids from the named vaults.
// With no vaults it returns nil, meaning unrestricted. Unknown vault names
// contribute no ids, so selecting only unknown vaults admits nothing.
func (f *VaultFilter) Filter(vaults ...string) index.Filter {
	if len(vaults) == 0 {
		return nil
	}

	f.mu.RLock()
	union := roaring.New()
	for _, vault := range vaults {
		if bm, ok := f.bitmaps[vault]; ok {
			union.Or(bm)
		}
	}
	f.mu.RUnlock()

	return func(id uint32) bool {
		return union.Contains(id)
	}
}

// Vaults returns the known vault names in sorted order.
func (f *VaultFilter) Vaults() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.bitmaps))
	for name := range f.bitmaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cardinality returns the number of ids recorded for vault.
func (f *VaultFilter) Cardinality(vault string) uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if bm, ok := f.bitmaps[vault]; ok {
		return bm.GetCardinality()
	}
	return 0
}
