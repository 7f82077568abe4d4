package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/zsplay/internal/cli/output"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Session string
	Limit   int
}

// historyReport is the JSON shape of the history command.
type historyReport struct {
	Stats      *state.Stats       `json:"stats"`
	Builds     []*state.Build     `json:"builds"`
	Executions []*state.Execution `json:"executions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded compilations and script runs",
		Long: `Show the compilations and script runs recorded in the history database.

Every compiler run of the playground, compile and exec is recorded, including
failed ones. Runs answered from the recompilation cache are not.`,
		Example: `  # Latest runs of all sessions
  zsplay history

  # Runs of one session as JSON
  zsplay history --session 1b4e28ba-2fa1-11d2-883f-0016d3cca427 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return showHistory(cmd, cc.Renderer, store, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "Only show runs of this session")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of rows per table")

	return cmd
}

func showHistory(cmd *cobra.Command, r *output.Renderer, store state.Store, opts *HistoryOptions) error {
	ctx := cmd.Context()

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history stats: %w", err)
	}
	builds, err := store.ListBuilds(ctx, opts.Session, opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}
	execs, err := store.ListExecutions(ctx, opts.Session, opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list executions: %w", err)
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(historyReport{Stats: stats, Builds: builds, Executions: execs})
	}

	r.Header("Builds")
	if len(builds) == 0 {
		r.Muted("No builds recorded.")
	} else {
		rows := make([][]string, 0, len(builds))
		for _, b := range builds {
			rows = append(rows, []string{
				b.StartedAt.Local().Format(time.DateTime),
				shortID(b.SessionID),
				b.Package,
				strings.Join(b.Languages, ","),
				string(b.Status),
				strconv.Itoa(b.FileCount),
				b.Duration.Round(time.Millisecond).String(),
				firstLine(b.Error),
			})
		}
		r.Table([]string{"STARTED", "SESSION", "PACKAGE", "LANGS", "STATUS", "FILES", "DURATION", "ERROR"}, rows)
	}

	r.Header("Script runs")
	if len(execs) == 0 {
		r.Muted("No script runs recorded.")
	} else {
		rows := make([][]string, 0, len(execs))
		for _, e := range execs {
			rows = append(rows, []string{
				e.StartedAt.Local().Format(time.DateTime),
				shortID(e.SessionID),
				e.Engine,
				e.Language,
				string(e.Status),
				strconv.Itoa(e.OutputSize),
				e.Duration.Round(time.Millisecond).String(),
				firstLine(e.Error),
			})
		}
		r.Table([]string{"STARTED", "SESSION", "ENGINE", "LANG", "STATUS", "OUTPUT", "DURATION", "ERROR"}, rows)
	}

	r.Muted(fmt.Sprintf("%d builds (%d failed), %d script runs, %d sessions",
		stats.Builds, stats.FailedBuilds, stats.Executions, stats.Sessions))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
