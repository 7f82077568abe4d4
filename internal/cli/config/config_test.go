package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("workspace-dir", "", "")
	flags.String("state", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	flags.Int("port", 0, "")
	flags.Bool("watch", true, "")
	flags.Duration("compile-timeout", 0, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkspaceDir, cfg.WorkspaceDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, []string{"zserio"}, cfg.CompilerCommand())
	assert.Zero(t, cfg.Compiler.Timeout)
	assert.Equal(t, DefaultEngine, cfg.Sandbox.DefaultEngine)
	assert.Equal(t, DefaultPython, cfg.Sandbox.Python)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
	assert.True(t, cfg.UI.AutoOpen)
	assert.True(t, cfg.UI.Watch)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)

	content := `
workspace_dir: work
samples_dir: schemas
compiler:
  command: java -jar zserio.jar
  timeout: 45s
sandbox:
  default_engine: python
ui:
  port: 9000
  auto_open: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zsplay.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "zsplay.yaml", GetConfigFileUsed())
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, "work", filepath.Base(cfg.WorkspaceDir))
	assert.True(t, filepath.IsAbs(cfg.WorkspaceDir))
	assert.Contains(t, []string{filepath.Join(dir, "schemas"), filepath.Join(resolved, "schemas")}, cfg.SamplesDir)
	assert.Equal(t, []string{"java", "-jar", "zserio.jar"}, cfg.CompilerCommand())
	assert.Equal(t, 45*time.Second, cfg.Compiler.Timeout)
	assert.Equal(t, "python", cfg.Sandbox.DefaultEngine)
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.False(t, cfg.UI.AutoOpen)
	assert.True(t, cfg.UI.Watch)
}

func TestLoadConfig_Env(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())
	t.Setenv("ZSPLAY_UI_PORT", "9100")
	t.Setenv("ZSPLAY_UI_SESSION_SECRET", "s3cret")
	t.Setenv("ZSPLAY_SANDBOX_PYTHON", "/usr/bin/python3.12")
	t.Setenv("ZSPLAY_STATE_PATH", "/tmp/history.db")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.UI.Port)
	assert.Equal(t, "s3cret", cfg.UI.SessionSecret)
	assert.Equal(t, "/usr/bin/python3.12", cfg.Sandbox.Python)
	assert.Equal(t, "/tmp/history.db", cfg.StatePath)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())
	t.Setenv("ZSPLAY_UI_PORT", "9100")
	t.Setenv("ZSPLAY_OUTPUT", "markdown")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9200", "--state", "custom.db", "--compile-timeout", "30s", "-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.UI.Port)
	assert.Equal(t, "custom.db", cfg.StatePath)
	assert.Equal(t, 30*time.Second, cfg.Compiler.Timeout)
	assert.True(t, cfg.Verbose)
	// unchanged flags leave lower layers alone
	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.True(t, cfg.UI.Watch)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ZSPLAY_WORKSPACE_DIR", "workspace_dir"},
		{"ZSPLAY_UI_PORT", "ui.port"},
		{"ZSPLAY_UI_AUTO_OPEN", "ui.auto_open"},
		{"ZSPLAY_COMPILER_COMMAND", "compiler.command"},
		{"ZSPLAY_SANDBOX_DEFAULT_ENGINE", "sandbox.default_engine"},
		{"ZSPLAY_VERBOSE", "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			WorkspaceDir: "ws",
			OutputFormat: "auto",
			Compiler:     CompilerConfig{Command: "zserio"},
			UI:           UIConfig{Port: 8765},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no workspace", mutate: func(c *Config) { c.WorkspaceDir = "" }, errSubstr: "workspace_dir is required"},
		{name: "blank compiler", mutate: func(c *Config) { c.Compiler.Command = "  " }, errSubstr: "compiler.command is required"},
		{name: "negative timeout", mutate: func(c *Config) { c.Compiler.Timeout = -time.Second }, errSubstr: "must not be negative"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "yaml" }, errSubstr: "unknown output format"},
		{name: "bad port", mutate: func(c *Config) { c.UI.Port = 70000 }, errSubstr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
