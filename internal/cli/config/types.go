// Package config provides configuration management for the zsplay CLI.
package config

import "time"

// CompilerConfig configures the external schema compiler.
type CompilerConfig struct {
	// Command is the compiler command line, split on whitespace.
	Command string        `koanf:"command"`
	Timeout time.Duration `koanf:"timeout"`
}

// SandboxConfig configures script execution.
type SandboxConfig struct {
	DefaultEngine string `koanf:"default_engine"`
	Python        string `koanf:"python"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port           int    `koanf:"port"`
	AutoOpen       bool   `koanf:"auto_open"`
	Watch          bool   `koanf:"watch"`
	SessionSecret  string `koanf:"session_secret"`
	HighlightStyle string `koanf:"highlight_style"`
}

// Config holds all CLI configuration options.
type Config struct {
	WorkspaceDir string         `koanf:"workspace_dir"`
	StatePath    string         `koanf:"state_path"`
	SamplesDir   string         `koanf:"samples_dir"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Compiler     CompilerConfig `koanf:"compiler"`
	Sandbox      SandboxConfig  `koanf:"sandbox"`
	UI           UIConfig       `koanf:"ui"`
}

// Default configuration values.
const (
	DefaultWorkspaceDir   = ".zsplay/workspace"
	DefaultStateFile      = ".zsplay/state.db"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultCompiler       = "zserio"
	DefaultEngine         = "starlark"
	DefaultPython         = "python3"
	DefaultPort           = 8765
	DefaultHighlightStyle = "github"
)

// Defaults returns the lowest-priority configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"workspace_dir":          DefaultWorkspaceDir,
		"state_path":             DefaultStateFile,
		"samples_dir":            "",
		"verbose":                false,
		"output":                 DefaultOutput,
		"compiler.command":       DefaultCompiler,
		"compiler.timeout":       "0s",
		"sandbox.default_engine": DefaultEngine,
		"sandbox.python":         DefaultPython,
		"ui.port":                DefaultPort,
		"ui.auto_open":           true,
		"ui.watch":               true,
		"ui.session_secret":      "",
		"ui.highlight_style":     DefaultHighlightStyle,
	}
}
