package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/leapstack-labs/zsplay/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "compile", "exec", "history", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "workspace-dir", "state", "samples-dir", "verbose", "output"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_LoadsConfig(t *testing.T) {
	config.ResetConfig()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version", "--state", "custom.db", "-o", "json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "zsplay v"+Version)

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "custom.db", cfg.StatePath)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestRootCmd_InvalidOutput(t *testing.T) {
	config.ResetConfig()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"version", "-o", "yaml"})

	err = root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestCompletionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "zsplay")
}
