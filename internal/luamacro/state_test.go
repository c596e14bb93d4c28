package luamacro

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beacon/internal/expand"
	"github.com/roach88/beacon/internal/macro"
	"github.com/roach88/beacon/internal/testutil"
)

const script = `
local M = {}

function M.SHOUT(s) return string.upper(s) .. "!" end
function M.ADD(a, b) return tonumber(a) + tonumber(b) end
function M.IS_EMPTY(s) return s == "" end
function M.NOTHING() end
function M.BOOM() error("nope") end
function M.TABLE() return {} end
function M.SANDBOX() return type(dofile) .. "," .. type(io) .. "," .. type(os) end

M.VERSION = 3

return M
`

func newState(t *testing.T, code string, opts ...Option) *State {
	t.Helper()
	s := NewState(opts...)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.LoadString(code))
	return s
}

func TestNames(t *testing.T) {
	s := newState(t, script)
	assert.Equal(t, []string{"ADD", "BOOM", "IS_EMPTY", "NOTHING", "SANDBOX", "SHOUT", "TABLE"}, s.Names())
}

func TestCall(t *testing.T) {
	s := newState(t, script)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"SHOUT", []string{"hi"}, "HI!"},
		{"ADD", []string{"1", "2"}, "3"},
		{"ADD", []string{"0.5", "1"}, "1.5"},
		{"IS_EMPTY", []string{""}, "true"},
		{"IS_EMPTY", []string{"x"}, "false"},
		{"NOTHING", nil, ""},
		{"SANDBOX", nil, "nil,nil,nil"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s%v", tt.name, tt.args), func(t *testing.T) {
			got, err := s.Call(ctx, tt.name, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallErrors(t *testing.T) {
	s := newState(t, script)
	ctx := context.Background()

	_, err := s.Call(ctx, "BOOM", nil)
	assert.ErrorContains(t, err, "nope")

	_, err = s.Call(ctx, "TABLE", nil)
	assert.ErrorContains(t, err, "unsupported result type")

	_, err = s.Call(ctx, "VERSION", nil)
	assert.Error(t, err)

	_, err = s.Call(ctx, "MISSING", nil)
	assert.Error(t, err)

	// The state stays usable after a failed call.
	got, err := s.Call(ctx, "SHOUT", []string{"ok"})
	require.NoError(t, err)
	assert.Equal(t, "OK!", got)
}

func TestCallTimeout(t *testing.T) {
	s := newState(t, `macros = { SPIN = function() while true do end end }`,
		WithCallTimeout(50*time.Millisecond))

	_, err := s.Call(context.Background(), "SPIN", nil)
	assert.Error(t, err)
}

func TestGlobalMacrosTable(t *testing.T) {
	s := newState(t, `macros = { HELLO = function(n) return "hello " .. n end }`)

	got, err := s.Call(context.Background(), "HELLO", []string{"world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestLoadErrors(t *testing.T) {
	s := NewState()
	defer s.Close()

	assert.ErrorIs(t, s.LoadString(`x = 1`), ErrNoMacros)
	assert.Error(t, s.LoadString(`return {`))
	assert.Error(t, s.LoadString(`error("at load")`))
}

func TestClosedState(t *testing.T) {
	s := newState(t, script)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Call(context.Background(), "SHOUT", []string{"x"})
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.ErrorIs(t, s.LoadString(script), ErrStateClosed)
	assert.Nil(t, s.Names())
}

func TestConcurrentCalls(t *testing.T) {
	s := newState(t, script)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := fmt.Sprint(i)
			got, err := s.Call(context.Background(), "ADD", []string{n, n})
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprint(2 * i); got != want {
				errs <- fmt.Errorf("ADD(%d,%d) = %s, want %s", i, i, got, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestLoadRegistersWithEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.lua")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	reg := macro.NewRegistry()
	require.NoError(t, macro.RegisterBuiltins(reg))
	s, err := Load(reg, path)
	require.NoError(t, err)
	defer s.Close()
	reg.Seal()

	logger, capture := testutil.NewLogCapture()
	e := expand.New(reg, expand.WithLogger(logger))
	ec := expand.NewContext(map[string]any{"name": "ada"})

	got, err := e.ExpandString(context.Background(), "u=SHOUT(${name})&n=ADD(2, 3)&t=TOUPPERCASE(SHOUT(x))&b=BOOM()", ec)
	require.NoError(t, err)
	assert.Equal(t, "u=ADA!&n=5&t=X!&b=", got)

	warnings := capture.AtLevel(slog.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Equal(t, "lua macro failed", warnings[0].Message)
	assert.Equal(t, "BOOM", warnings[0].Attrs["macro"])
}

func TestRegisterRejectsInvalidNames(t *testing.T) {
	s := newState(t, `return { ["bad-name"] = function() return "" end }`)
	assert.Error(t, Register(macro.NewRegistry(), s))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(macro.NewRegistry(), filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}
