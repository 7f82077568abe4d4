package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/zsplay/internal/build"
	"github.com/leapstack-labs/zsplay/internal/cli/output"
	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/workspace"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Languages []string
	Args      string
	Out       string
	Zip       string
	Manifest  bool
}

// Manifest describes one compilation and the files it produced.
type Manifest struct {
	Package   string         `json:"package" yaml:"package"`
	Digest    string         `json:"digest" yaml:"digest"`
	Languages []string       `json:"languages" yaml:"languages"`
	ExtraArgs []string       `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`
	Root      string         `json:"root,omitempty" yaml:"root,omitempty"`
	Files     []ManifestFile `json:"files" yaml:"files"`
}

// ManifestFile is one generated file.
type ManifestFile struct {
	Language string `json:"language" yaml:"language"`
	Path     string `json:"path" yaml:"path"`
	Size     int    `json:"size" yaml:"size"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <schema.zs>",
		Short: "Compile a schema and list the generated sources",
		Long: `Compile a schema with the configured zserio compiler.

Without --out the sources are generated into a scratch workspace that is
removed afterwards, which makes compile a quick validity check. With --out
the generated tree is kept below <out>/gen.`,
		Example: `  # Check that a schema compiles
  zsplay compile sample.zs

  # Generate python and C++ sources into ./build
  zsplay compile sample.zs --lang python --lang cpp --out ./build

  # Pass extra compiler arguments and zip the result
  zsplay compile sample.zs -l java --args "-withoutSourcesAmalgamation" --zip sources.zip

  # Print a YAML manifest of the generated files
  zsplay compile sample.zs -l python --manifest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Languages, "lang", "l", nil, "Output language (python|cpp|java|xml|doc), repeatable")
	cmd.Flags().StringVar(&opts.Args, "args", "", "Extra compiler arguments")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Keep the generated tree below this directory")
	cmd.Flags().StringVar(&opts.Zip, "zip", "", "Write the generated tree to a zip archive")
	cmd.Flags().BoolVar(&opts.Manifest, "manifest", false, "Print a YAML manifest instead of a table")
	cmd.Flags().String("compiler", "", "Compiler command line (default: zserio)")
	cmd.Flags().Duration("compile-timeout", 0, "Abort the compiler after this long (0 waits forever)")

	_ = cmd.RegisterFlagCompletionFunc("lang", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return compiler.Languages, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCompile(cmd *cobra.Command, schemaFile string, opts *CompileOptions) error {
	cc := NewCommandContext(cmd)
	store, closeStore := cc.HistoryStore()
	defer closeStore()
	return compileSchema(cmd, cc, cc.Compiler(), store, schemaFile, opts)
}

// compileSchema runs one compilation with comp. store may be nil.
func compileSchema(cmd *cobra.Command, cc *CommandContext, comp compiler.Compiler, store state.Store, schemaFile string, opts *CompileOptions) error {
	r := cc.Renderer

	schema, err := os.ReadFile(schemaFile) //nolint:gosec // G304: user-provided schema path
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	ws, cleanup, err := compileWorkspace(cc, comp, store, opts.Out)
	if err != nil {
		return err
	}
	defer cleanup()

	req := build.BuildRequest{
		Schema:    string(schema),
		Languages: opts.Languages,
		ExtraArgs: build.ParseExtraArgs(opts.Args),
	}
	result, err := ws.Build(cmd.Context(), req)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			r.Error(fmt.Sprintf("compilation of %s failed (exit status %d)", schemaFile, compileErr.ExitCode))
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(compileErr.Stderr, "\n"))
			return fmt.Errorf("compilation failed")
		}
		return err
	}

	manifest, err := buildManifest(ws, result, opts.Out != "")
	if err != nil {
		return err
	}

	if opts.Zip != "" {
		if err := writeArchive(ws, opts.Zip); err != nil {
			return err
		}
	}

	switch {
	case opts.Manifest:
		enc := yaml.NewEncoder(r.Writer())
		enc.SetIndent(2)
		if err := enc.Encode(manifest); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		return enc.Close()
	case r.Mode() == output.ModeJSON:
		return r.JSON(manifest)
	}

	if len(manifest.Files) > 0 {
		rows := make([][]string, 0, len(manifest.Files))
		for _, f := range manifest.Files {
			rows = append(rows, []string{f.Language, f.Path, strconv.Itoa(f.Size)})
		}
		r.Table([]string{"LANG", "FILE", "BYTES"}, rows)
	}

	if len(result.Request.Languages) == 0 {
		r.Success(fmt.Sprintf("Schema %s is valid", schemaFile))
		r.Muted("Select an output language with --lang to generate sources.")
	} else {
		r.Success(fmt.Sprintf("Compiled package %s into %d files in %s",
			result.Package, len(manifest.Files), result.Duration.Round(time.Millisecond)))
	}
	if opts.Out != "" {
		r.Muted("Sources written to " + ws.GenDir())
	}
	if opts.Zip != "" {
		r.Muted("Archive written to " + opts.Zip)
	}
	return nil
}

// compileWorkspace returns the workspace to build into. Without out it is a
// scratch session workspace that cleanup removes.
func compileWorkspace(cc *CommandContext, comp compiler.Compiler, store state.Store, out string) (*workspace.Workspace, func(), error) {
	if out != "" {
		ws, err := workspace.New(workspace.Config{
			SessionID: "cli",
			Root:      out,
			Compiler:  comp,
			Store:     store,
			Logger:    cc.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return ws, func() {}, nil
	}

	manager, err := cc.NewManager(comp, store)
	if err != nil {
		return nil, nil, err
	}
	s, err := manager.Get(session.NewID())
	if err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := manager.Close(); err != nil {
			cc.Logger.Warn("failed to remove scratch workspace", "error", err)
		}
	}
	return s.Workspace, cleanup, nil
}

func buildManifest(ws *workspace.Workspace, result *workspace.BuildResult, keepRoot bool) (*Manifest, error) {
	m := &Manifest{
		Package:   result.Package,
		Digest:    result.Digest,
		Languages: result.Request.Languages,
		ExtraArgs: result.Request.ExtraArgs,
		Files:     []ManifestFile{},
	}
	if keepRoot {
		m.Root = ws.GenDir()
	}
	for _, lang := range result.Request.Languages {
		files, err := ws.Sources(lang)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			m.Files = append(m.Files, ManifestFile{Language: lang, Path: f.Path, Size: len(f.Content)})
		}
	}
	return m, nil
}

func writeArchive(ws *workspace.Workspace, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // G304: user-provided output path
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := ws.Archive(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
