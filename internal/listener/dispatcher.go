// Package listener delivers component notifications to registered callbacks.
//
// Every listener owns a mailbox. Publish appends to each mailbox and, if the
// mailbox is idle, posts a drain task on the executor. A mailbox has at most
// one drain running, so a listener sees messages in publish order and is
// never invoked while the publisher holds its own locks.
package listener

import (
	"fmt"
	"sync"

	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/logging"
)

// Subscription identifies a registered listener.
type Subscription struct {
	ID uint64
}

type mailbox[T any] struct {
	id      uint64
	fn      func(T)
	pending []T
	running bool
}

// Dispatcher fans messages of type T out to listeners.
type Dispatcher[T any] struct {
	exec executor.Executor
	log  logging.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners []*mailbox[T]
	closed    bool
}

// New returns a Dispatcher posting deliveries on exec.
func New[T any](exec executor.Executor, log logging.Logger) *Dispatcher[T] {
	return &Dispatcher[T]{exec: exec, log: logging.OrNop(log)}
}

// Add registers fn. Listeners cannot be removed individually; Close drops all.
func (d *Dispatcher[T]) Add(fn func(T)) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	if d.closed || fn == nil {
		return Subscription{ID: d.nextID}
	}
	d.listeners = append(d.listeners, &mailbox[T]{id: d.nextID, fn: fn})
	return Subscription{ID: d.nextID}
}

// Set replaces every registered listener with fn. Messages already queued
// for the replaced listeners are dropped.
func (d *Dispatcher[T]) Set(fn func(T)) Subscription {
	d.mu.Lock()
	for _, mb := range d.listeners {
		mb.pending = nil
		mb.fn = nil
	}
	d.listeners = nil
	d.mu.Unlock()
	return d.Add(fn)
}

// Len returns the number of registered listeners.
func (d *Dispatcher[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Publish queues msg for every listener.
func (d *Dispatcher[T]) Publish(msg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, mb := range d.listeners {
		mb.pending = append(mb.pending, msg)
		if !mb.running {
			mb.running = true
			d.exec.Go(func() { d.drain(mb) })
		}
	}
}

// Close stops all delivery, including messages already queued.
func (d *Dispatcher[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, mb := range d.listeners {
		mb.pending = nil
		mb.fn = nil
	}
	d.listeners = nil
}

// Closed reports whether Close was called.
func (d *Dispatcher[T]) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher[T]) drain(mb *mailbox[T]) {
	for {
		d.mu.Lock()
		if len(mb.pending) == 0 || mb.fn == nil {
			mb.pending = nil
			mb.running = false
			d.mu.Unlock()
			return
		}
		msg := mb.pending[0]
		mb.pending = mb.pending[1:]
		fn := mb.fn
		d.mu.Unlock()

		d.deliver(mb.id, fn, msg)
	}
}

func (d *Dispatcher[T]) deliver(id uint64, fn func(T), msg T) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("listener panicked", "listener", id, "msg", fmt.Sprintf("%T", msg), "panic", r)
		}
	}()
	fn(msg)
}
