package enumerator

import "fmt"

// KeyRegistry is Registry specialized to 64-bit composite keys. Wire and
// node keys go here so the dedup table never holds fabric objects.
type KeyRegistry struct {
	keys    []uint64
	indexes map[uint64]uint32
}

// NewKeyRegistry returns an empty KeyRegistry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{indexes: make(map[uint64]uint32)}
}

// Insert returns the index of key, assigning the next index if key is new.
func (r *KeyRegistry) Insert(key uint64) int {
	if idx, ok := r.indexes[key]; ok {
		return int(idx)
	}
	idx := uint32(len(r.keys))
	r.keys = append(r.keys, key)
	r.indexes[key] = idx
	return int(idx)
}

// Index returns the index of key without inserting it.
func (r *KeyRegistry) Index(key uint64) (int, bool) {
	idx, ok := r.indexes[key]
	return int(idx), ok
}

// Get returns the key stored at idx.
func (r *KeyRegistry) Get(idx int) (uint64, error) {
	if idx < 0 || idx >= len(r.keys) {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, idx, len(r.keys))
	}
	return r.keys[idx], nil
}

// Len returns the number of registered keys.
func (r *KeyRegistry) Len() int {
	return len(r.keys)
}

// Keys returns the registered keys in index order.
func (r *KeyRegistry) Keys() []uint64 {
	return r.keys
}
