package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/beacon/internal/config"
	"github.com/roach88/beacon/internal/expand"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	EngineOptions
}

// Diagnostic is one problem found in a template.
type Diagnostic struct {
	Request string            `json:"request,omitempty"` // set when validating a config
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <template|config>",
		Short: "Report problems in a template or analytics config",
		Long: `Report what expansion would fall back on: unknown macros, unterminated
calls and unbalanced ${ references.

A path to a .json or .cue analytics config validates every request of the
config against its variables, so unbound variables are reported too. Any
other argument is validated as a template.

Exit codes:
  0 - No diagnostics
  1 - One or more diagnostics
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.EngineOptions.addFlags(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, arg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var a *config.Analytics
	if isConfigPath(arg) {
		var err error
		a, err = config.Load(arg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
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

	var diags []Diagnostic
	if a != nil {
		resolved := a.ResolveRequests()
		for _, name := range a.RequestNames() {
			formatter.VerboseLog("Validating request: %s", name)
			diags = append(diags, toDiagnostics(name, l.engine.Check(resolved[name], a.Context()))...)
		}
	} else {
		diags = toDiagnostics("", l.engine.Check(arg, nil))
	}

	if len(diags) > 0 {
		return outputDiagnostics(formatter, diags)
	}
	return outputValidateSuccess(formatter)
}

// isConfigPath reports whether arg names an existing config file.
func isConfigPath(arg string) bool {
	switch filepath.Ext(arg) {
	case ".json", ".cue":
	default:
		return false
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

func toDiagnostics(request string, errs []*expand.Error) []Diagnostic {
	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, Diagnostic{
			Request: request,
			Code:    string(e.Code),
			Message: e.Message,
			Details: e.Details,
		})
	}
	return diags
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ No problems found")
	return nil
}

// outputDiagnostics outputs the diagnostics and returns exit code 1.
func outputDiagnostics(formatter *OutputFormatter, diags []Diagnostic) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:       false,
				Diagnostics: diags,
			},
			Error: &CLIError{
				Code:    ErrCodeDiagnostics,
				Message: fmt.Sprintf("%d problem(s) found", len(diags)),
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(diags)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, d := range diags {
		if d.Request != "" {
			fmt.Fprintf(formatter.Writer, "request %s\n", d.Request)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", d.Code, d.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(diags)))
}
