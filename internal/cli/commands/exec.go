package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/zsplay/internal/cli/output"
	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/sandbox"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Engine string
	Lang   string
	Args   string
	Code   string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec <schema.zs> [script]",
		Short: "Run a script against the sources generated from a schema",
		Long: `Compile a schema and run a script against the generated sources.

The script runs with the directory of the --lang output on its search path,
or the whole generated tree when no language is given. The python engine
defaults to the python output.

Without a script file or --code, exec reads the script from stdin, or starts
an interactive prompt when stdin is a terminal. Each entry of the prompt runs
as its own unit: nothing loaded by one entry is visible to the next.`,
		Example: `  # Inspect the generated tree with starlark
  zsplay exec sample.zs --code 'print(generated.files())'

  # Import the generated python package
  zsplay exec sample.zs -e python -c 'import sample; print(sample.Color)'

  # Run a script file with yaegi against the generated tree
  zsplay exec sample.zs check.go -e go

  # Interactive prompt
  zsplay exec sample.zs -e starlark -l python`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Engine, "engine", "e", "", "Script engine (starlark|python|go)")
	cmd.Flags().StringVarP(&opts.Lang, "lang", "l", "", "Generated language to run against")
	cmd.Flags().StringVar(&opts.Args, "args", "", "Extra compiler arguments")
	cmd.Flags().StringVarP(&opts.Code, "code", "c", "", "Script source")
	cmd.Flags().String("python", "", "Python interpreter for the python engine")
	cmd.Flags().String("compiler", "", "Compiler command line (default: zserio)")

	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"starlark", "python", "go"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("lang", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return compiler.Languages, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	cc := NewCommandContext(cmd)
	store, closeStore := cc.HistoryStore()
	defer closeStore()
	return execSchema(cmd, cc, cc.Compiler(), store, args, opts)
}

// execSchema compiles args[0] in a scratch session and runs the script.
// store may be nil.
func execSchema(cmd *cobra.Command, cc *CommandContext, comp compiler.Compiler, store state.Store, args []string, opts *ExecOptions) error {
	ctx := cmd.Context()
	r := cc.Renderer

	engine := opts.Engine
	if engine == "" {
		engine = cc.Cfg.Sandbox.DefaultEngine
	}
	lang := opts.Lang
	if lang == "" && engine == "python" {
		lang = "python"
	}
	if lang != "" && !compiler.IsLanguage(lang) {
		return fmt.Errorf("%w: %s", compiler.ErrUnknownLanguage, lang)
	}

	schema, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	manager, err := cc.NewManager(comp, store)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			cc.Logger.Warn("failed to remove scratch workspace", "error", err)
		}
	}()
	s, err := manager.Get(session.NewID())
	if err != nil {
		return err
	}

	err = s.Do(func(s *session.Session) error {
		s.Schema = string(schema)
		s.ExtraArgs = opts.Args
		if lang != "" {
			s.Languages = []string{lang}
		}
		_, err := s.Compile(ctx)
		return err
	})
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			r.Error("compilation failed")
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(compileErr.Stderr, "\n"))
			return fmt.Errorf("compilation failed")
		}
		return err
	}

	code, interactive, err := scriptSource(cmd, args, opts)
	if err != nil {
		return err
	}
	if interactive {
		return runExecREPL(cmd, cc, s, &engine, &lang)
	}
	out, err := executeIn(ctx, s, engine, code, lang)
	_, _ = io.WriteString(cmd.OutOrStdout(), out)
	return reportFault(cmd, r, err)
}

// scriptSource picks the script from --code, the script file or stdin.
// interactive is true when stdin is a terminal and nothing else was given.
func scriptSource(cmd *cobra.Command, args []string, opts *ExecOptions) (string, bool, error) {
	switch {
	case opts.Code != "":
		return opts.Code, false, nil
	case len(args) > 1 && args[1] != "-":
		data, err := os.ReadFile(args[1])
		if err != nil {
			return "", false, fmt.Errorf("failed to read script: %w", err)
		}
		return string(data), false, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", true, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", false, fmt.Errorf("failed to read script from stdin: %w", err)
	}
	return string(data), false, nil
}

// reportFault prints a script fault and turns it into the command error.
func reportFault(cmd *cobra.Command, r *output.Renderer, err error) error {
	if err == nil {
		return nil
	}
	var fault *sandbox.Fault
	if !errors.As(err, &fault) {
		return err
	}
	r.Error(fault.Message)
	if bt := strings.TrimSpace(fault.Backtrace); bt != "" && bt != fault.Message {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), bt)
	}
	return errScriptFailed
}

var errScriptFailed = errors.New("script failed")

// executeIn runs code in s the way the prompt does.
func executeIn(ctx context.Context, s *session.Session, engine, code, lang string) (string, error) {
	var out string
	err := s.Do(func(s *session.Session) error {
		var err error
		out, err = s.Execute(ctx, engine, code, lang)
		return err
	})
	return out, err
}
