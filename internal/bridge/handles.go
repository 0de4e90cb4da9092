package bridge

import (
	"fmt"
	"sync"

	"github.com/Taishi66/kview/internal/domain"
)

// Handle is an opaque reference to a core object. Zero is never issued.
type Handle uint64

// Table owns objects on behalf of the foreign side, which holds only handles.
type Table[T any] struct {
	kind string

	mu    sync.Mutex
	next  Handle
	items map[Handle]T
}

// NewTable returns an empty table; kind names the objects in errors.
func NewTable[T any](kind string) *Table[T] {
	return &Table[T]{kind: kind, items: make(map[Handle]T)}
}

// Insert stores v and returns its new handle.
func (t *Table[T]) Insert(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.items[t.next] = v
	return t.next
}

// Get returns the object behind h.
func (t *Table[T]) Get(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[h]
	if !ok {
		var zero T
		return zero, t.invalid(h)
	}
	return v, nil
}

// Remove drops h and returns the object it referenced. A second Remove of
// the same handle fails.
func (t *Table[T]) Remove(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[h]
	if !ok {
		var zero T
		return zero, t.invalid(h)
	}
	delete(t.items, h)
	return v, nil
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *Table[T]) invalid(h Handle) error {
	return &domain.APIError{
		Type:    domain.ErrInvalidHandle,
		Message: fmt.Sprintf("invalid %s handle %d", t.kind, h),
	}
}
