// Package bridge exposes the core to a foreign UI runtime. Objects cross the
// boundary as integer handles, structured values as JSON buffers owned by
// the caller until freed, and every call reports through a Status.
package bridge

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/Taishi66/kview/internal/domain"
)

// Code discriminates call outcomes.
type Code int

const (
	CodeOK Code = iota
	CodeError
	CodeCancelled
	CodePanic
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeError:
		return "error"
	case CodeCancelled:
		return "cancelled"
	case CodePanic:
		return "panic"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// ErrorPayload is the serialized form of a failed call.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Status is the call-status record returned by every fallible operation.
// Error is a JSON ErrorPayload, set unless Code is CodeOK.
type Status struct {
	Code  Code
	Error []byte
}

// OK reports whether the call succeeded.
func (s Status) OK() bool { return s.Code == CodeOK }

// Payload decodes Error.
func (s Status) Payload() (ErrorPayload, error) {
	var p ErrorPayload
	if len(s.Error) == 0 {
		return p, nil
	}
	err := json.Unmarshal(s.Error, &p)
	return p, err
}

// StatusOf converts err to a Status. Cancellations get their own code so the
// caller does not treat them as data loss.
func StatusOf(err error) Status {
	if err == nil {
		return Status{Code: CodeOK}
	}
	code := CodeError
	typ := domain.TypeOf(err)
	if typ == domain.ErrCancelled {
		code = CodeCancelled
	}
	return Status{Code: code, Error: encodeError(typ.String(), err.Error())}
}

func encodeError(typ, msg string) []byte {
	b, err := json.Marshal(ErrorPayload{Type: typ, Message: msg})
	if err != nil {
		return []byte(`{"type":"unknown","message":"unencodable error"}`)
	}
	return b
}

// Guard runs fn and converts its error, or any panic it raises, to a Status.
func Guard(fn func() error) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			st = panicStatus(r)
		}
	}()
	return StatusOf(fn())
}

func panicStatus(r any) Status {
	msg := fmt.Sprintf("panic: %v\n%s", r, debug.Stack())
	return Status{Code: CodePanic, Error: encodeError("panic", msg)}
}
