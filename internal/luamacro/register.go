package luamacro

import (
	"context"
	"fmt"

	"github.com/roach88/beacon/internal/ctxlog"
	"github.com/roach88/beacon/internal/macro"
)

// Register registers every macro function of s with r.
func Register(r *macro.Registry, s *State) error {
	for _, name := range s.Names() {
		if err := r.Register(name, handler(s, name)); err != nil {
			return fmt.Errorf("register lua macro: %w", err)
		}
	}
	return nil
}

// Load creates a State from the script at path and registers its macros
// with r. The caller closes the returned State.
func Load(r *macro.Registry, path string, opts ...Option) (*State, error) {
	s := NewState(opts...)
	if err := s.LoadFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := Register(r, s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func handler(s *State, name string) macro.Handler {
	return macro.Sync(func(ctx context.Context, args []string) string {
		out, err := s.Call(ctx, name, args)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("lua macro failed",
				"macro", name,
				"error", err)
			return ""
		}
		return out
	})
}
