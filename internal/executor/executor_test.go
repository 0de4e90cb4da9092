package executor

import (
	"sync/atomic"
	"testing"
)

func TestManual_RunsInPostOrder(t *testing.T) {
	m := NewManual()
	var got []int
	for i := range 3 {
		m.Go(func() { got = append(got, i) })
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	if len(got) != 0 {
		t.Fatal("Go must not run the task inline")
	}
	if n := m.RunAll(); n != 3 {
		t.Errorf("RunAll() = %d, want 3", n)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("order = %v, want [0 1 2]", got)
	}
}

func TestManual_RunAllDrainsNestedTasks(t *testing.T) {
	m := NewManual()
	ran := 0
	m.Go(func() {
		ran++
		m.Go(func() { ran++ })
	})
	if n := m.RunAll(); n != 2 {
		t.Errorf("RunAll() = %d, want 2", n)
	}
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if m.RunNext() {
		t.Error("RunNext() on empty queue should report false")
	}
}

func TestGroup_WaitCoversNestedTasks(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32
	for range 10 {
		g.Go(func() {
			ran.Add(1)
			g.Go(func() { ran.Add(1) })
		})
	}
	g.Wait()
	if ran.Load() != 20 {
		t.Errorf("ran = %d, want 20", ran.Load())
	}
}

func TestFunc(t *testing.T) {
	called := false
	var e Executor = Func(func(task func()) { task() })
	e.Go(func() { called = true })
	if !called {
		t.Error("Func executor did not run task")
	}
}
