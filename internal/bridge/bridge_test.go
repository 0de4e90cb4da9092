package bridge

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/logging"
)

func payloadType(t *testing.T, st Status) string {
	t.Helper()
	p, err := st.Payload()
	if err != nil {
		t.Fatalf("Payload() error: %v", err)
	}
	return p.Type
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantType string
	}{
		{"nil", nil, CodeOK, ""},
		{"cancelled", domain.Cancelled("superseded"), CodeCancelled, "cancelled"},
		{"watch", domain.WatchError("c1", errors.New("eof")), CodeError, "watch"},
		{"plain", errors.New("boom"), CodeError, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := StatusOf(tt.err)
			if st.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", st.Code, tt.wantCode)
			}
			if got := payloadType(t, st); got != tt.wantType {
				t.Errorf("payload type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestGuard_ConvertsPanic(t *testing.T) {
	st := Guard(func() error { panic("boom") })
	if st.Code != CodePanic {
		t.Fatalf("Code = %v, want panic", st.Code)
	}
	p, _ := st.Payload()
	if p.Type != "panic" || !strings.Contains(p.Message, "boom") {
		t.Errorf("payload = %+v", p)
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable[string]("thing")
	a := tbl.Insert("a")
	b := tbl.Insert("b")
	if a == 0 || a == b {
		t.Fatalf("handles %d, %d", a, b)
	}
	if v, err := tbl.Get(b); err != nil || v != "b" {
		t.Errorf("Get(b) = %q, %v", v, err)
	}
	if _, err := tbl.Remove(a); err != nil {
		t.Fatal(err)
	}
	_, err := tbl.Remove(a)
	if domain.TypeOf(err) != domain.ErrInvalidHandle {
		t.Errorf("second Remove err = %v, want ErrInvalidHandle", err)
	}
	if _, err := tbl.Get(a); err == nil {
		t.Error("Get after Remove succeeded")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestBuffers_SingleOwnership(t *testing.T) {
	bufs := NewBuffers()
	buf := bufs.Alloc([]byte("hello"))

	data, err := bufs.Read(buf)
	if err != nil || string(data) != "hello" {
		t.Fatalf("Read() = %q, %v", data, err)
	}
	data[0] = 'j'
	again, _ := bufs.Read(buf)
	if string(again) != "hello" {
		t.Error("Read returned the owned slice")
	}

	if err := bufs.Free(buf); err != nil {
		t.Fatal(err)
	}
	if err := bufs.Free(buf); domain.TypeOf(err) != domain.ErrInvalidHandle {
		t.Errorf("double free err = %v", err)
	}
	if _, err := bufs.Read(buf); domain.TypeOf(err) != domain.ErrInvalidHandle {
		t.Errorf("use after free err = %v", err)
	}
	if bufs.Live() != 0 {
		t.Errorf("Live() = %d", bufs.Live())
	}
}

func TestCallAsync_ExactlyOnce(t *testing.T) {
	var calls int
	var got Status
	var gotData uint64
	done := func(userData uint64, st Status) {
		calls++
		gotData = userData
		got = st
	}

	CallAsync(7, done, func(finish func(error)) {
		finish(nil)
		finish(errors.New("late"))
	})
	if calls != 1 || !got.OK() || gotData != 7 {
		t.Errorf("calls=%d status=%v data=%d", calls, got.Code, gotData)
	}

	calls = 0
	CallAsync(8, done, func(finish func(error)) { panic("start failed") })
	if calls != 1 || got.Code != CodePanic {
		t.Errorf("panic: calls=%d code=%v", calls, got.Code)
	}

	calls = 0
	CallAsync(9, done, func(finish func(error)) {
		finish(domain.Cancelled("stopped"))
		panic("after finish")
	})
	if calls != 1 || got.Code != CodeCancelled {
		t.Errorf("panic after finish: calls=%d code=%v", calls, got.Code)
	}
}

func TestGoAsync(t *testing.T) {
	m := executor.NewManual()
	done := newCompletions()

	GoAsync(m, 1, done.done, func() error { return nil })
	GoAsync(m, 2, done.done, func() error { return domain.UnknownCluster("x") })
	GoAsync(m, 3, done.done, func() error { panic("task blew up") })
	if m.Len() != 3 {
		t.Fatalf("queued tasks = %d, want 3", m.Len())
	}
	m.RunAll()

	if st := done.only(t, 1); !st.OK() {
		t.Errorf("ok task status = %v", st.Code)
	}
	if st := done.only(t, 2); st.Code != CodeError || payloadType(t, st) != "unknown_cluster" {
		t.Errorf("failing task status = %v", st.Code)
	}
	st := done.only(t, 3)
	if st.Code != CodePanic {
		t.Fatalf("panicking task status = %v, want panic", st.Code)
	}
	if p, _ := st.Payload(); !strings.Contains(p.Message, "task blew up") {
		t.Errorf("panic message = %q", p.Message)
	}
}

func TestRecoveringExecutor(t *testing.T) {
	m := executor.NewManual()
	exec := recovering{inner: m, log: logging.Nop()}
	ran := false
	exec.Go(func() { panic("task") })
	exec.Go(func() { ran = true })
	m.RunAll()
	if !ran {
		t.Error("task after a panicking one did not run")
	}
}

func TestVerifyChecksums(t *testing.T) {
	sums := Checksums()
	if len(sums) != len(signatures) {
		t.Fatalf("Checksums() has %d entries", len(sums))
	}
	if err := VerifyChecksums(sums); err != nil {
		t.Errorf("matching checksums rejected: %v", err)
	}
	if Checksums()["nodes"] != sums["nodes"] {
		t.Error("checksums are not stable")
	}

	bad := map[string]uint16{"nodes": sums["nodes"] + 1, "teleport": 1}
	err := VerifyChecksums(bad)
	if err == nil || !strings.Contains(err.Error(), "nodes") || !strings.Contains(err.Error(), "teleport (missing)") {
		t.Errorf("err = %v", err)
	}
}

type completions struct {
	mu  sync.Mutex
	got map[uint64][]Status
}

func newCompletions() *completions {
	return &completions{got: make(map[uint64][]Status)}
}

func (c *completions) done(userData uint64, st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got[userData] = append(c.got[userData], st)
}

func (c *completions) only(t *testing.T, userData uint64) Status {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	sts := c.got[userData]
	if len(sts) != 1 {
		t.Fatalf("completion %d called %d times", userData, len(sts))
	}
	return sts[0]
}

func decodeBuffer(t *testing.T, core *Core, buf Buffer, st Status, v any) {
	t.Helper()
	if !st.OK() {
		p, _ := st.Payload()
		t.Fatalf("status %v: %+v", st.Code, p)
	}
	data, rst := core.ReadBuffer(buf)
	if !rst.OK() {
		t.Fatalf("ReadBuffer status %v", rst.Code)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if fst := core.FreeBuffer(buf); !fst.OK() {
		t.Fatalf("FreeBuffer status %v", fst.Code)
	}
}
