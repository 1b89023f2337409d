package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds every script execution.
const DefaultExecutionTimeout = time.Second

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe; State serializes every use of
// it behind a mutex.
type State struct {
	l  *lua.LState
	mu sync.Mutex

	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for each execution. Zero disables
// it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}

	s.l = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.l)
	removeLoaders(s.l)
	return s
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.exec(context.Background(), func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// DoString executes Lua source.
func (s *State) DoString(code string) error {
	return s.exec(context.Background(), func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// HasFunction reports whether a global function named name exists.
func (s *State) HasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.l.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls the global function fn with args converted by toLua and
// returns its results converted by toGo.
func (s *State) Call(ctx context.Context, fn string, args ...any) ([]any, error) {
	var results []any
	err := s.exec(ctx, func(L *lua.LState) error {
		f := L.GetGlobal(fn)
		if f.Type() != lua.LTFunction {
			return fmt.Errorf("%w: %s", ErrFunctionNotFound, fn)
		}

		top := L.GetTop()
		L.Push(f)
		for _, a := range args {
			L.Push(toLua(L, a))
		}
		if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}

		n := L.GetTop() - top
		results = make([]any, 0, n)
		for i := 1; i <= n; i++ {
			results = append(results, toGo(L.Get(top+i)))
		}
		L.Pop(n)
		return nil
	})
	return results, err
}

// RegisterModule installs a global table of Go functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.l.SetGlobal(name, s.l.SetFuncs(s.l.NewTable(), funcs))
}

// exec runs fn with the state locked, under the execution timeout, with
// panic recovery.
func (s *State) exec(ctx context.Context, fn func(L *lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.l.SetContext(ctx)
	defer s.l.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := fn(s.l); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		return err
	}
	return nil
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. It is safe to call more than once.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.l.Close()
	s.closed = true
	return nil
}
