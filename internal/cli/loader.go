package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/beacon/internal/config"
	"github.com/roach88/beacon/internal/expand"
	"github.com/roach88/beacon/internal/luamacro"
	"github.com/roach88/beacon/internal/macro"
	"github.com/roach88/beacon/internal/session"
	"github.com/roach88/beacon/internal/store"
)

// EngineOptions are the flags that decide which macros an engine has.
type EngineOptions struct {
	Database string // SQLite state for COOKIE, LINKER_PARAM, VIDEO_STATE and sessions
	LuaFile  string // script defining extra macros
	Vendor   string // default SESSION_* type
}

func (o *EngineOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite state database")
	cmd.Flags().StringVar(&o.LuaFile, "lua", "", "Lua file defining extra macros")
	cmd.Flags().StringVar(&o.Vendor, "vendor", "", "default session vendor type")
}

// loaded is an engine together with the resources it holds.
type loaded struct {
	engine *expand.Engine
	store  *store.Store
	lua    *luamacro.State
}

// Close releases the Lua state and the database.
func (l *loaded) Close() error {
	var errs []error
	if l.lua != nil {
		errs = append(errs, l.lua.Close())
	}
	if l.store != nil {
		errs = append(errs, l.store.Close())
	}
	return errors.Join(errs...)
}

// loadEngine builds a sealed registry with the built-ins, the collaborator
// macros and any Lua macros, and an engine over it. Without a database the
// sessions live in memory and cookie, linker and video macros are absent.
//
// The formatter reports failures, which come back as ExitErrors.
func loadEngine(opts *EngineOptions, vendor string, logger *slog.Logger, f *OutputFormatter) (*loaded, error) {
	l := &loaded{}

	reg := macro.NewRegistry()
	if err := macro.RegisterBuiltins(reg); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to register built-in macros", err)
	}

	if opts.Vendor != "" {
		vendor = opts.Vendor
	}
	collab := macro.Collaborators{Vendor: vendor}

	var storage session.Storage
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		l.store = st
		storage = st
		collab.Linker = st
		collab.Cookies = st
		collab.Video = st
		f.VerboseLog("Opened state database %s", opts.Database)
	}
	collab.Sessions = session.NewManager(storage, session.WithLogger(logger))

	if err := macro.RegisterCollaborators(reg, collab); err != nil {
		l.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to register collaborator macros", err)
	}

	if opts.LuaFile != "" {
		s, err := luamacro.Load(reg, opts.LuaFile)
		if err != nil {
			l.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeLua, "failed to load Lua macros", err)
		}
		l.lua = s
		f.VerboseLog("Loaded %d Lua macro(s) from %s", len(s.Names()), opts.LuaFile)
	}

	reg.Seal()
	l.engine = expand.New(reg, expand.WithLogger(logger))
	return l, nil
}

// ContextOptions are the flags that build an expansion context.
type ContextOptions struct {
	Vars     []string // name=value
	VarsFile string
	Freeze   []string
	MaxDepth int // negative keeps the default
	NoEncode bool
}

func (o *ContextOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.Vars, "var", nil, "variable binding name=value (repeatable)")
	cmd.Flags().StringVar(&o.VarsFile, "vars-file", "", "analytics config (.json or .cue) supplying vars, freeze, maxDepth and noEncode")
	cmd.Flags().StringSliceVar(&o.Freeze, "freeze", nil, "variable names to leave unexpanded")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", -1, "maximum variable nesting depth (default 2)")
	cmd.Flags().BoolVar(&o.NoEncode, "no-encode", false, "disable URL encoding")
}

// loadVarsFile reads the --vars-file config, or returns nil when unset.
func (o *ContextOptions) loadVarsFile(f *OutputFormatter) (*config.Analytics, error) {
	if o.VarsFile == "" {
		return nil, nil
	}
	a, err := config.Load(o.VarsFile)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load vars file", err)
	}
	return a, nil
}

// newContext layers the command-line flags over the vars file.
func (o *ContextOptions) newContext(a *config.Analytics) (*expand.Context, error) {
	vars := make(map[string]any)
	var opts []expand.ContextOption
	if a != nil {
		maps.Copy(vars, a.Vars)
		opts = append(opts, a.ContextOptions()...)
	}

	for _, kv := range o.Vars {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: want name=value", kv)
		}
		vars[name] = value
	}

	if o.MaxDepth >= 0 {
		opts = append(opts, expand.WithMaxDepth(o.MaxDepth))
	}
	if o.NoEncode {
		opts = append(opts, expand.WithNoEncode())
	}
	if len(o.Freeze) > 0 {
		opts = append(opts, expand.WithFrozen(o.Freeze...))
	}
	return expand.NewContext(vars, opts...), nil
}
