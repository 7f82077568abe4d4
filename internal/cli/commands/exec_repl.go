package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "zsplay> "
	replContinue   = "   ...> "
	replHistoryLog = "exec_history"
)

func runExecREPL(cmd *cobra.Command, cc *CommandContext, s *session.Session, engine, lang *string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(cc.Cfg.StatePath), replHistoryLog),
		AutoComplete:    newDotCompleter(s.Sandbox.Engines()),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "zsplay exec (engine: %s, search path: %s)\n", *engine, s.Workspace.GeneratedDir(*lang))
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var block replBlock
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			block.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if !block.Open() && strings.HasPrefix(strings.TrimSpace(line), ".") {
			quit := handleExecDotCommand(out, strings.TrimSpace(line), engine, lang, s.Sandbox.Engines())
			if quit {
				break
			}
			continue
		}

		code, ready := block.Add(line)
		if !ready {
			rl.SetPrompt(replContinue)
			continue
		}
		rl.SetPrompt(replPrompt)
		if strings.TrimSpace(code) == "" {
			continue
		}

		result, err := executeIn(ctx, s, *engine, code, *lang)
		_, _ = io.WriteString(out, result)
		if err := reportFault(cmd, cc.Renderer, err); err != nil && !errors.Is(err, errScriptFailed) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	return nil
}

// replBlock collects prompt lines into one unit. A line ending in ':' or
// '{' opens a block that an empty line closes.
type replBlock struct {
	lines []string
}

// Open reports whether a block is being collected.
func (b *replBlock) Open() bool {
	return len(b.lines) > 0
}

// Reset drops the collected lines.
func (b *replBlock) Reset() {
	b.lines = nil
}

// Add appends line and returns the unit once it is complete.
func (b *replBlock) Add(line string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if b.Open() {
		if trimmed == "" {
			code := strings.Join(b.lines, "\n") + "\n"
			b.Reset()
			return code, true
		}
		b.lines = append(b.lines, line)
		return "", false
	}
	if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, "\\") {
		b.lines = append(b.lines, line)
		return "", false
	}
	return line + "\n", true
}

// handleExecDotCommand runs a prompt command and reports whether to quit.
func handleExecDotCommand(w io.Writer, line string, engine, lang *string, engines []string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit", ".exit":
		return true
	case ".help":
		_, _ = fmt.Fprintln(w, `Commands:
  .engine [name]   show or switch the script engine
  .lang [name]     show or switch the generated language on the search path
  .help            show this help
  .quit            exit

A line ending in ':' or '{' starts a block, an empty line runs it.`)
	case ".engine":
		if len(fields) < 2 {
			_, _ = fmt.Fprintf(w, "engine: %s (available: %s)\n", *engine, strings.Join(engines, ", "))
			return false
		}
		*engine = fields[1]
		_, _ = fmt.Fprintf(w, "engine: %s\n", *engine)
	case ".lang":
		if len(fields) < 2 {
			_, _ = fmt.Fprintf(w, "lang: %s\n", *lang)
			return false
		}
		if !compiler.IsLanguage(fields[1]) {
			_, _ = fmt.Fprintf(w, "unknown language %q (expected one of %s)\n", fields[1], strings.Join(compiler.Languages, ", "))
			return false
		}
		*lang = fields[1]
		_, _ = fmt.Fprintf(w, "lang: %s (sources exist only for languages compiled at startup)\n", *lang)
	default:
		_, _ = fmt.Fprintf(w, "unknown command %s, type .help\n", fields[0])
	}
	return false
}

// newDotCompleter completes prompt commands and engine names.
func newDotCompleter(engines []string) *readline.PrefixCompleter {
	engineItems := make([]readline.PrefixCompleterInterface, 0, len(engines))
	for _, e := range engines {
		engineItems = append(engineItems, readline.PcItem(e))
	}
	langItems := make([]readline.PrefixCompleterInterface, 0, len(compiler.Languages))
	for _, l := range compiler.Languages {
		langItems = append(langItems, readline.PcItem(l))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".engine", engineItems...),
		readline.PcItem(".lang", langItems...),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
