package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/leapstack-labs/zsplay/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the schema playground in the browser",
		Long: `Start a local web server providing the interactive playground.

The playground provides:
- Schema editor with upload and bundled samples
- Generated sources per output language with highlighting
- Download of the generated tree as a zip archive
- Script execution against the generated bindings
- Build and execution history`,
		Example: `  # Start on the default port
  zsplay serve

  # Start on a custom port without opening a browser
  zsplay serve --port 3000 --no-browser

  # List the schemas of a directory as samples
  zsplay serve --samples-dir ./schemas`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the samples directory for changes")
	cmd.Flags().String("compiler", "", "Compiler command line (default: zserio)")
	cmd.Flags().Duration("compile-timeout", 0, "Abort compiler runs after this long (0 waits forever)")
	cmd.Flags().String("python", "", "Python interpreter for the python engine")
	cmd.Flags().String("style", "", "Highlighting style")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	logger := cc.Logger

	// Flags were merged into the config by the loader.
	port := cfg.UI.Port
	autoOpen := cfg.UI.AutoOpen && !opts.NoBrowser

	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := cc.NewManager(cc.Compiler(), store)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Warn("failed to remove session workspaces", "error", err)
		}
	}()

	secret := cfg.UI.SessionSecret
	if secret == "" {
		secret = generateSessionSecret()
		logger.Debug("generated session secret, sessions end when the server stops")
	}

	server := ui.NewServer(ui.Config{
		Manager:        manager,
		Store:          store,
		Port:           port,
		Watch:          cfg.UI.Watch,
		SessionSecret:  secret,
		SamplesDir:     cfg.SamplesDir,
		HighlightStyle: cfg.UI.HighlightStyle,
		Logger:         logger,
	})

	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting playground on http://localhost:%d\n", port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// generateSessionSecret returns a random cookie signing key.
func generateSessionSecret() string {
	return uuid.NewString() + uuid.NewString()
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
