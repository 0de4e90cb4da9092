package bridge

import (
	"encoding/json"
)

// Buffer is a handle to bytes allocated by the core. The caller owns it
// until Free; reading or freeing it afterwards fails with ErrInvalidHandle.
type Buffer Handle

// Buffers is the table of outgoing buffers.
type Buffers struct {
	table *Table[[]byte]
}

// NewBuffers returns an empty buffer table.
func NewBuffers() *Buffers {
	return &Buffers{table: NewTable[[]byte]("buffer")}
}

// Alloc hands data to the caller.
func (b *Buffers) Alloc(data []byte) Buffer {
	return Buffer(b.table.Insert(data))
}

// AllocJSON encodes v into a new buffer.
func (b *Buffers) AllocJSON(v any) (Buffer, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return b.Alloc(data), nil
}

// Read returns a copy of the buffer's bytes.
func (b *Buffers) Read(buf Buffer) ([]byte, error) {
	data, err := b.table.Get(Handle(buf))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// Free releases buf.
func (b *Buffers) Free(buf Buffer) error {
	_, err := b.table.Remove(Handle(buf))
	return err
}

// Live returns the number of unreleased buffers.
func (b *Buffers) Live() int {
	return b.table.Len()
}
