package luamacro

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/roach88/beacon/internal/resolve"
)

// DefaultCallTimeout bounds a single macro call.
const DefaultCallTimeout = time.Second

// macrosGlobal is the global table scripts may assign their macros to.
const macrosGlobal = "macros"

// Errors for State operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoMacros is returned when a script defines no macros table.
	ErrNoMacros = errors.New("script defines no macros table")
)

// State is a sandboxed Lua runtime holding one script's macros.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

// Option configures a State.
type Option func(*State)

// WithCallTimeout sets the timeout for each macro call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...Option) *State {
	s := &State{timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	s.L = L
	return s
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// LoadFile runs the script at path and collects its macros.
func (s *State) LoadFile(path string) error {
	return s.load(func() (*lua.LFunction, error) {
		return s.L.LoadFile(path)
	})
}

// LoadString runs code and collects its macros.
func (s *State) LoadString(code string) error {
	return s.load(func() (*lua.LFunction, error) {
		return s.L.LoadString(code)
	})
}

func (s *State) load(compile func() (*lua.LFunction, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := compile()
	if err != nil {
		return fmt.Errorf("compile script: %w", err)
	}

	ret, err := s.pcall(context.Background(), fn)
	if err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	if tbl, ok := ret.(*lua.LTable); ok {
		s.L.SetGlobal(macrosGlobal, tbl)
	}
	if _, ok := s.L.GetGlobal(macrosGlobal).(*lua.LTable); !ok {
		return ErrNoMacros
	}
	return nil
}

// Names returns the names of the script's macro functions, sorted.
func (s *State) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	tbl, ok := s.L.GetGlobal(macrosGlobal).(*lua.LTable)
	if !ok {
		return nil
	}
	var names []string
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if ok && v.Type() == lua.LTFunction {
			names = append(names, string(ks))
		}
	})
	sort.Strings(names)
	return names
}

// Call invokes the macro function name with args and converts its first
// result to a string.
func (s *State) Call(ctx context.Context, name string, args []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStateClosed
	}

	tbl, ok := s.L.GetGlobal(macrosGlobal).(*lua.LTable)
	if !ok {
		return "", ErrNoMacros
	}
	fn, ok := tbl.RawGetString(name).(*lua.LFunction)
	if !ok {
		return "", fmt.Errorf("macro %q is not a function", name)
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	ret, err := s.pcall(ctx, fn, largs...)
	if err != nil {
		return "", err
	}
	return toString(ret)
}

// pcall calls fn under the call timeout and returns its first result.
func (s *State) pcall(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) (ret lua.LValue, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, a := range args {
		s.L.Push(a)
	}
	if err := s.L.PCall(len(args), 1, nil); err != nil {
		s.L.SetTop(top)
		return lua.LNil, err
	}
	ret = s.L.Get(-1)
	s.L.SetTop(top)
	return ret, nil
}

func toString(v lua.LValue) (string, error) {
	switch x := v.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(x), nil
	case lua.LNumber:
		return resolve.FormatNumber(float64(x)), nil
	case lua.LBool:
		if x {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("unsupported result type %s", v.Type())
}

// Close releases the Lua state.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
