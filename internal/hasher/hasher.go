// Package hasher computes stable content hashes for opaque state blobs.
package hasher

import "github.com/cespare/xxhash/v2"

// Hasher is stateless; the zero value is ready to use.
type Hasher struct{}

// New returns a Hasher.
func New() Hasher { return Hasher{} }

// Hash returns the 64-bit xxHash of value. The result depends only on the
// bytes, so it is stable across instances, calls and processes.
func (Hasher) Hash(value []byte) uint64 {
	return xxhash.Sum64(value)
}

// HashString is Hash for strings without copying.
func (Hasher) HashString(value string) uint64 {
	return xxhash.Sum64String(value)
}
