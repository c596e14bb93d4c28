package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/beacon/internal/session"
	"github.com/roach88/beacon/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// SessionEntry is one stored session with its vendor type.
type SessionEntry struct {
	Vendor string `json:"vendor"`
	session.Session
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored vendor sessions",
		Long: `List the sessions SESSION_* macros have stored in a state database,
one "vendor id count" line per vendor type.

Examples:
  beacon sessions --db state.db
  beacon sessions --db state.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite state database (required)")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--db is required", nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read sessions", err)
	}

	entries := make([]SessionEntry, 0, len(sessions))
	for vendor, sess := range sessions {
		entries = append(entries, SessionEntry{Vendor: vendor, Session: sess})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Vendor < entries[j].Vendor })

	if opts.Format == "json" {
		return formatter.Success(map[string][]SessionEntry{"sessions": entries})
	}
	w := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s %d\n", e.Vendor, e.ID, e.Count)
	}
	return nil
}
