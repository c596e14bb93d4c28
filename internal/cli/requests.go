package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/beacon/internal/config"
)

// RequestsOptions holds flags for the requests command.
type RequestsOptions struct {
	*RootOptions
	EngineOptions
}

// RequestsResult is the JSON payload of the requests command.
type RequestsResult struct {
	Vendor   string           `json:"vendor,omitempty"`
	Requests []config.Request `json:"requests"`
}

// NewRequestsCommand creates the requests command.
func NewRequestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "requests <config>",
		Short: "Expand every request of an analytics config",
		Long: `Expand every request of an analytics config (.json or .cue) and print
one "name url" line per request, in name order.

Requests may reference each other as ${name}; references are resolved
before the config's variables are expanded.

Examples:
  beacon requests analytics.json
  beacon requests vendor.cue --db state.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(opts, args[0], cmd)
		},
	}

	opts.EngineOptions.addFlags(cmd)

	return cmd
}

func runRequests(opts *RequestsOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	a, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	formatter.VerboseLog("Loaded %d request(s) from %s", len(a.Requests), path)

	l, err := loadEngine(&opts.EngineOptions, a.Vendor, logger, formatter)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	requests, err := config.ExpandRequests(ctx, l.engine, a)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeExpand, "expansion cancelled", err)
	}

	if opts.Format == "json" {
		return formatter.Success(RequestsResult{Vendor: a.Vendor, Requests: requests})
	}
	w := cmd.OutOrStdout()
	for _, r := range requests {
		fmt.Fprintf(w, "%s %s\n", r.Name, r.URL)
	}
	return nil
}
