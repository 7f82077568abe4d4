package config

import (
	"fmt"
	"slices"
	"strings"
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// CompilerCommand returns the compiler command line as an argument list.
func (c *Config) CompilerCommand() []string {
	return strings.Fields(c.Compiler.Command)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace_dir is required")
	}
	if len(c.CompilerCommand()) == 0 {
		return fmt.Errorf("compiler.command is required")
	}
	if c.Compiler.Timeout < 0 {
		return fmt.Errorf("compiler.timeout must not be negative, got %s", c.Compiler.Timeout)
	}
	if c.OutputFormat != "" && !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port out of range: %d", c.UI.Port)
	}
	return nil
}
