package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// MacrosOptions holds flags for the macros command.
type MacrosOptions struct {
	*RootOptions
	EngineOptions
}

// NewMacrosCommand creates the macros command.
func NewMacrosCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MacrosOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "macros",
		Short: "List registered macros",
		Long: `List the macro names templates can call, one per line.

Cookie, linker and video macros are listed only with --db; Lua macros
only with --lua.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacros(opts, cmd)
		},
	}

	opts.EngineOptions.addFlags(cmd)

	return cmd
}

func runMacros(opts *MacrosOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	l, err := loadEngine(&opts.EngineOptions, "", logger, formatter)
	if err != nil {
		return err
	}
	defer l.Close()

	names := l.engine.Registry().Names()
	if opts.Format == "json" {
		return formatter.Success(map[string][]string{"macros": names})
	}
	w := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}
