package commands

import (
	"bytes"
	"context"
	"testing"

	clitest "github.com/leapstack-labs/zsplay/internal/cli/testutil"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// commandHarness bundles a command context writing into buffers.
type commandHarness struct {
	Dir      string
	Schema   string
	Cmd      *cobra.Command
	Stderr   *bytes.Buffer
	Renderer *clitest.TestRenderer
	Ctx      *CommandContext
}

func newHarness(t *testing.T, renderer *clitest.TestRenderer) *commandHarness {
	t.Helper()
	dir, schema := clitest.SetupTestProject(t)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	stderr := &bytes.Buffer{}
	cmd.SetOut(renderer.Out)
	cmd.SetErr(stderr)

	return &commandHarness{
		Dir:      dir,
		Schema:   schema,
		Cmd:      cmd,
		Stderr:   stderr,
		Renderer: renderer,
		Ctx: &CommandContext{
			Cfg:      clitest.TestConfig(dir),
			Logger:   testutil.NewTestLogger(t),
			Renderer: renderer.Renderer,
		},
	}
}

func newMemoryStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}
