package macro

import (
	"context"
	"log/slog"

	"github.com/roach88/beacon/internal/ctxlog"
	"github.com/roach88/beacon/internal/resolve"
)

// Handler evaluates one macro call.
//
// args holds the already-resolved arguments in source order; a call written
// NAME() receives one empty argument. Handlers must tolerate fewer
// arguments than they expect.
type Handler func(ctx context.Context, args []string) resolve.Value

// Sync adapts a plain function into a Handler with an immediate result.
func Sync(fn func(ctx context.Context, args []string) string) Handler {
	return func(ctx context.Context, args []string) resolve.Value {
		return resolve.Now(fn(ctx, args))
	}
}

// Async adapts a blocking function into a Handler whose result is deferred.
// fn runs on its own goroutine. A returned error is logged by the evaluator
// and the call resolves to "".
func Async(fn func(ctx context.Context, args []string) (string, error)) Handler {
	return func(ctx context.Context, args []string) resolve.Value {
		return resolve.Later(func() (string, error) {
			return fn(ctx, args)
		})
	}
}

// Const returns a Handler that ignores its arguments.
func Const(s string) Handler {
	return func(context.Context, []string) resolve.Value {
		return resolve.Now(s)
	}
}

// CodeInvalidArgument tags log records for arguments a macro could not use.
const CodeInvalidArgument = "INVALID_MACRO_ARGUMENT"

// warnArg logs an argument the macro falls back from.
func warnArg(ctx context.Context, macro string, arg int, value, msg string) {
	ctxlog.FromContext(ctx).Warn(msg,
		slog.String("code", CodeInvalidArgument),
		slog.String("macro", macro),
		slog.Int("arg", arg),
		slog.String("value", value))
}

// argAt returns args[i], or "" when the call supplied fewer arguments.
func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
