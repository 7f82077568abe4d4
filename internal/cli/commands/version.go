package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the zsplay version and the compiler and default script engine it is configured with.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := getConfig()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "zsplay v%s\n", version)
			_, _ = fmt.Fprintln(out, "Compiles zserio schemas and runs scripts against the generated sources")
			_, _ = fmt.Fprintf(out, "compiler: %s\n", strings.Join(cfg.CompilerCommand(), " "))
			_, _ = fmt.Fprintf(out, "default engine: %s\n", cfg.Sandbox.DefaultEngine)
		},
	}
}
