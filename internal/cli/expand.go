package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	EngineOptions
	ContextOptions
}

// ExpandResult is the JSON payload of the expand command.
type ExpandResult struct {
	Template string `json:"template"`
	Output   string `json:"output"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <template>",
		Short: "Expand a template",
		Long: `Expand one template and print the result.

Variables come from --vars-file and --var; command-line flags take
precedence over the file. Warnings are logged to stderr.

Examples:
  beacon expand 'https://example.com/p?u=${url}' --var url=https://a.b/c
  beacon expand 'cid=COOKIE(_ga)&s=SESSION_ID()' --db state.db --vendor ga
  beacon expand 'x=SHOUT(${name})' --lua macros.lua --var name=ada
  beacon expand '${request}' --vars-file analytics.json --no-encode`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	opts.EngineOptions.addFlags(cmd)
	opts.ContextOptions.addFlags(cmd)

	return cmd
}

func runExpand(opts *ExpandOptions, tmpl string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	a, err := opts.loadVarsFile(formatter)
	if err != nil {
		return err
	}
	ec, err := opts.newContext(a)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "invalid flags", err)
	}

	vendor := ""
	if a != nil {
		vendor = a.Vendor
	}
	l, err := loadEngine(&opts.EngineOptions, vendor, logger, formatter)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := l.engine.ExpandString(ctx, tmpl, ec)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeExpand, "expansion cancelled", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ExpandResult{Template: tmpl, Output: out})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
