// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/invowk/iod/internal/runtime"
)

type (
	// FakeRuntime is a runtime.Runtime that answers commands from a script
	// instead of executing them. Every command is recorded.
	//
	//	rt := testutil.NewFakeRuntime().
	//		On("npx --version", runtime.NewSuccessResult("8.1.2\n")).
	//		On("npx -y", runtime.NewSuccessResult(path))
	FakeRuntime struct {
		mu       sync.Mutex
		handlers []fakeHandler
		calls    []runtime.Command
	}

	fakeHandler struct {
		prefix string
		fn     func(runtime.Command) *runtime.Result
	}
)

// NewFakeRuntime creates an empty FakeRuntime. Unscripted commands fail
// with exit code 127.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{}
}

// On answers commands whose line starts with prefix with res.
// Handlers are matched in registration order.
func (f *FakeRuntime) On(prefix string, res *runtime.Result) *FakeRuntime {
	return f.OnFunc(prefix, func(runtime.Command) *runtime.Result { return res })
}

// OnFunc answers commands whose line starts with prefix by calling fn.
func (f *FakeRuntime) OnFunc(prefix string, fn func(runtime.Command) *runtime.Result) *FakeRuntime {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: prefix, fn: fn})
	return f
}

// Name returns "fake".
func (f *FakeRuntime) Name() string { return "fake" }

// Available always returns true.
func (f *FakeRuntime) Available() bool { return true }

// Run records cmd and returns the scripted result.
func (f *FakeRuntime) Run(_ context.Context, cmd runtime.Command) *runtime.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handlers := f.handlers
	f.mu.Unlock()

	for _, h := range handlers {
		if strings.HasPrefix(cmd.Line, h.prefix) {
			return h.fn(cmd)
		}
	}
	return runtime.NewErrorResult(127, fmt.Errorf("fake runtime: unexpected command %q", cmd.Line))
}

// Calls returns a copy of every recorded command.
func (f *FakeRuntime) Calls() []runtime.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runtime.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many recorded commands start with prefix.
func (f *FakeRuntime) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c.Line, prefix) {
			n++
		}
	}
	return n
}
