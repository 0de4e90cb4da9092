// Package executor provides the schedulers async work is posted on.
// Components never start goroutines of their own; they hand tasks to the
// Executor supplied by the host.
package executor

import (
	"sync"
)

// Executor runs tasks asynchronously. Go must not block the caller.
type Executor interface {
	Go(task func())
}

// Func adapts a function to Executor.
type Func func(task func())

func (f Func) Go(task func()) { f(task) }

// Group runs each task on its own goroutine and tracks them so Wait can
// block until all posted work has finished.
type Group struct {
	wg sync.WaitGroup
}

var _ Executor = (*Group)(nil)

// NewGroup returns an empty Group.
func NewGroup() *Group {
	return &Group{}
}

func (g *Group) Go(task func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		task()
	}()
}

// Wait blocks until every task posted so far, and every task those tasks
// posted, has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Manual queues tasks until the caller runs them. Tests use it to control
// interleavings exactly.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

var _ Executor = (*Manual)(nil)

// NewManual returns an empty Manual executor.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Go(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, task)
}

// Len returns the number of queued tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RunNext runs the oldest queued task. It reports false if the queue was empty.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	m.mu.Unlock()

	task()
	return true
}

// RunAll runs queued tasks, including ones posted while running, until the
// queue is empty. It returns the number of tasks run.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}
