package components

import (
	"time"

	"github.com/leapstack-labs/zsplay/internal/state"
)

// SourceHTML is highlighted source markup. It is written to the page
// unescaped, so it must come from the highlighter or be escaped already.
type SourceHTML string

// TreeNode represents a folder or a generated file in the source browser.
type TreeNode struct {
	Name     string
	Path     string
	Type     string // "folder" or "file"
	Source   SourceHTML
	Children []TreeNode
}

// LanguageOption is one checkbox of the language selector.
type LanguageOption struct {
	Name    string
	Checked bool
}

// SampleItem is one entry of the samples list.
type SampleItem struct {
	Name string
	URL  string
}

// SamplesView holds the #samples fragment.
type SamplesView struct {
	Dir   string
	Items []SampleItem
	Error string
}

// LanguageView is the source browser column of one language.
type LanguageView struct {
	Name    string
	Hint    string
	Files   int
	Folders []TreeNode
}

// ResultsView holds the #results fragment.
type ResultsView struct {
	// Notice is informational text, e.g. when there is nothing to compile.
	Notice string
	// Error is the compiler diagnostic of a failed build.
	Error     string
	Cached    bool
	Digest    string
	Package   string
	Files     int
	Duration  time.Duration
	Languages []LanguageView
	Download  bool
}

// ExecView holds the #exec-output fragment.
type ExecView struct {
	Ran       bool
	Engine    string
	Output    string
	Fault     string
	Backtrace string
}

// PageData holds everything rendered on the playground page.
type PageData struct {
	Title     string
	IsDev     bool
	SessionID string

	Schema    string
	Args      string
	Languages []LanguageOption

	Engines    []string
	Engine     string
	Script     string
	ScriptLang string

	Samples SamplesView
	Results ResultsView
	Exec    ExecView
}

// HistoryData holds the build history page.
type HistoryData struct {
	Title      string
	IsDev      bool
	SessionID  string
	AllSession bool
	Stats      *state.Stats
	Builds     []*state.Build
	Executions []*state.Execution
	Error      string
}
