package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/beacon/internal/store"
)

var (
	gaConfig   = filepath.Join("..", "config", "testdata", "configs", "googleanalytics.json")
	shopConfig = filepath.Join("..", "config", "testdata", "configs", "shop.cue")
	luaMacros  = filepath.Join("testdata", "macros.lua")
)

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// seededDB creates a state database holding one cookie and one linker
// param.
func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.PutCookie(ctx, "_ga", "GA1.2.3"))
	require.NoError(t, st.PutLinkerParam(ctx, "gl", "cid", "abc 1"))
	require.NoError(t, st.Close())
	return path
}
