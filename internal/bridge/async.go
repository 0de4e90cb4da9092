package bridge

import (
	"sync"

	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/logging"
)

// Completion receives the outcome of an asynchronous call together with the
// context value the caller passed in.
type Completion func(userData uint64, st Status)

// CallAsync starts an asynchronous operation. start receives a finish
// function; done is invoked exactly once with the first outcome reported,
// or with a panic status if start panics before finishing.
func CallAsync(userData uint64, done Completion, start func(finish func(error))) {
	complete := completeOnce(userData, done)
	defer func() {
		if r := recover(); r != nil {
			complete(panicStatus(r))
		}
	}()
	start(func(err error) { complete(StatusOf(err)) })
}

// GoAsync runs task on exec and reports its result through done exactly
// once. A panic inside task completes the call with a panic status.
func GoAsync(exec executor.Executor, userData uint64, done Completion, task func() error) {
	complete := completeOnce(userData, done)
	defer func() {
		if r := recover(); r != nil {
			complete(panicStatus(r))
		}
	}()
	exec.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				complete(panicStatus(r))
			}
		}()
		complete(StatusOf(task()))
	})
}

func completeOnce(userData uint64, done Completion) func(Status) {
	var once sync.Once
	return func(st Status) {
		once.Do(func() {
			if done != nil {
				done(userData, st)
			}
		})
	}
}

// recovering keeps a panicking task from taking down the host runtime.
type recovering struct {
	inner executor.Executor
	log   logging.Logger
}

func (r recovering) Go(task func()) {
	r.inner.Go(func() {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("task panicked", "panic", p)
			}
		}()
		task()
	})
}
