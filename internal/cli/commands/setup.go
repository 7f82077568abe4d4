package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/zsplay/internal/cli/config"
	"github.com/leapstack-labs/zsplay/internal/cli/output"
	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/samples"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// OpenStore opens the history database, creating its directory.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	return openStore(c.Cfg.StatePath, c.Logger)
}

// HistoryStore opens the history database for commands that work without
// it. A database that cannot be opened disables history with a warning.
func (c *CommandContext) HistoryStore() (state.Store, func()) {
	store, err := c.OpenStore()
	if err != nil {
		c.Logger.Warn("history disabled", "error", err)
		return nil, func() {}
	}
	return store, func() { _ = store.Close() }
}

// Compiler returns the configured schema compiler.
func (c *CommandContext) Compiler() compiler.Compiler {
	return newCompiler(c.Cfg, c.Logger)
}

// NewManager creates a session manager below the workspace directory.
// store may be nil.
func (c *CommandContext) NewManager(comp compiler.Compiler, store state.Store) (*session.Manager, error) {
	return newManager(c.Cfg, comp, store, c.Logger)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	port, err := strconv.Atoi(getEnvOrDefault("ZSPLAY_UI_PORT", ""))
	if err != nil {
		port = config.DefaultPort
	}

	return &config.Config{
		WorkspaceDir: getEnvOrDefault("ZSPLAY_WORKSPACE_DIR", config.DefaultWorkspaceDir),
		StatePath:    getEnvOrDefault("ZSPLAY_STATE_PATH", config.DefaultStateFile),
		SamplesDir:   os.Getenv("ZSPLAY_SAMPLES_DIR"),
		Verbose:      os.Getenv("ZSPLAY_VERBOSE") == "true",
		OutputFormat: os.Getenv("ZSPLAY_OUTPUT"),
		Compiler: config.CompilerConfig{
			Command: getEnvOrDefault("ZSPLAY_COMPILER_COMMAND", config.DefaultCompiler),
		},
		Sandbox: config.SandboxConfig{
			DefaultEngine: getEnvOrDefault("ZSPLAY_SANDBOX_DEFAULT_ENGINE", config.DefaultEngine),
			Python:        getEnvOrDefault("ZSPLAY_SANDBOX_PYTHON", config.DefaultPython),
		},
		UI: config.UIConfig{
			Port:           port,
			AutoOpen:       true,
			Watch:          true,
			SessionSecret:  os.Getenv("ZSPLAY_UI_SESSION_SECRET"),
			HighlightStyle: config.DefaultHighlightStyle,
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		stateDir := filepath.Dir(path)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

func newCompiler(cfg *config.Config, logger *slog.Logger) *compiler.Exec {
	return compiler.NewExec(compiler.ExecConfig{
		Command: cfg.CompilerCommand(),
		Timeout: cfg.Compiler.Timeout,
		Logger:  logger,
	})
}

func newManager(cfg *config.Config, comp compiler.Compiler, store state.Store, logger *slog.Logger) (*session.Manager, error) {
	return session.NewManager(session.Config{
		Root:          cfg.WorkspaceDir,
		Compiler:      comp,
		Store:         store,
		Logger:        logger,
		DefaultSchema: samples.Default(),
		Python:        cfg.Sandbox.Python,
	})
}
