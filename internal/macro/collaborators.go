package macro

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/beacon/internal/ctxlog"
	"github.com/roach88/beacon/internal/resolve"
	"github.com/roach88/beacon/internal/session"
)

// LinkerReader reads parameters forwarded by a cross-domain linker.
// Values are strings or numbers; ok is false when the parameter is absent.
type LinkerReader interface {
	Get(namespace, key string) (v any, ok bool)
}

// CookieReader reads first-party cookies.
type CookieReader interface {
	ReadCookie(name string) (value string, ok bool)
}

// VideoState queries a media element's analytics state.
// An unknown element or property is an error.
type VideoState interface {
	Query(ctx context.Context, elementID, property string) (any, error)
}

// SessionReader returns the current session for a vendor type.
type SessionReader interface {
	Get(ctx context.Context, vendor string) (session.Session, error)
}

// Privacy describes the execution context the request is built in.
// Cookies are not readable in any restricted context.
type Privacy struct {
	CrossOriginFrame bool
	ProxyCache       bool
	Sandboxed        bool
}

// Restricted reports whether any privacy restriction applies.
func (p Privacy) Restricted() bool {
	return p.CrossOriginFrame || p.ProxyCache || p.Sandboxed
}

// Collaborators bundles the external services macros delegate to.
// Nil services leave their macros unregistered.
type Collaborators struct {
	Linker   LinkerReader
	Cookies  CookieReader
	Privacy  Privacy
	Video    VideoState
	Sessions SessionReader

	// Vendor is the session type used when SESSION_* is called without one.
	Vendor string
}

// RegisterCollaborators registers LINKER_PARAM, COOKIE, VIDEO_STATE and the
// SESSION_* macros for every collaborator that is set.
func RegisterCollaborators(r *Registry, c Collaborators) error {
	var entries []entry
	add := func(name string, h Handler) {
		entries = append(entries, entry{name, h})
	}

	if c.Linker != nil {
		add("LINKER_PARAM", Sync(func(_ context.Context, args []string) string {
			v, ok := c.Linker.Get(argAt(args, 0), argAt(args, 1))
			if !ok {
				return ""
			}
			return resolve.Format(v)
		}))
	}
	if c.Cookies != nil {
		add("COOKIE", Sync(func(ctx context.Context, args []string) string {
			name := argAt(args, 0)
			if c.Privacy.Restricted() {
				ctxlog.FromContext(ctx).Debug("cookie access denied",
					"cookie", name,
					"cross_origin_frame", c.Privacy.CrossOriginFrame,
					"proxy_cache", c.Privacy.ProxyCache,
					"sandboxed", c.Privacy.Sandboxed)
				return ""
			}
			v, _ := c.Cookies.ReadCookie(name)
			return v
		}))
	}
	if c.Video != nil {
		add("VIDEO_STATE", Async(func(ctx context.Context, args []string) (string, error) {
			v, err := c.Video.Query(ctx, argAt(args, 0), argAt(args, 1))
			if err != nil {
				return "", err
			}
			return resolve.Format(v), nil
		}))
	}
	if c.Sessions != nil {
		add("SESSION_ID", sessionMacro(c, func(s session.Session) string { return s.ID }))
		add("SESSION_TIMESTAMP", sessionMacro(c, func(s session.Session) string {
			return strconv.FormatInt(s.CreationTimestamp, 10)
		}))
		add("SESSION_COUNT", sessionMacro(c, func(s session.Session) string {
			return strconv.Itoa(s.Count)
		}))
	}

	return registerAll(r, entries)
}

func sessionMacro(c Collaborators, field func(session.Session) string) Handler {
	return Async(func(ctx context.Context, args []string) (string, error) {
		vendor := argAt(args, 0)
		if vendor == "" {
			vendor = c.Vendor
		}
		s, err := c.Sessions.Get(ctx, vendor)
		if err != nil {
			return "", fmt.Errorf("session %q: %w", vendor, err)
		}
		return field(s), nil
	})
}
