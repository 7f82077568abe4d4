// Package workspace owns the generated tree of one session and drives the
// compiler to rebuild it when the build request changes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/zsplay/internal/build"
	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/state"
)

// ErrEmptySchema is returned when there is nothing to compile.
var ErrEmptySchema = errors.New("schema is empty")

const (
	genDirName    = "gen"
	schemaDirName = "zs"
)

// BuildResult describes the generated tree after a Build call.
type BuildResult struct {
	Request   build.BuildRequest
	Digest    string
	Package   string
	Files     int
	Duration  time.Duration
	Cached    bool
	StartedAt time.Time
}

// Workspace is the on-disk state of one session.
type Workspace struct {
	sessionID string
	root      string
	compiler  compiler.Compiler
	store     state.Store
	logger    *slog.Logger
	guard     *build.Guard

	// Outcome of the build behind the guard's key.
	last    *BuildResult
	lastErr error
}

// Config configures a Workspace.
type Config struct {
	SessionID string
	Root      string
	Compiler  compiler.Compiler
	// Store is optional; nil disables history.
	Store  state.Store
	Logger *slog.Logger
}

// New creates a workspace rooted at cfg.Root.
func New(cfg Config) (*Workspace, error) {
	if cfg.Compiler == nil {
		return nil, fmt.Errorf("workspace requires a compiler")
	}
	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Workspace{
		sessionID: cfg.SessionID,
		root:      cfg.Root,
		compiler:  cfg.Compiler,
		store:     cfg.Store,
		logger:    logger.With(slog.String("session", cfg.SessionID)),
		guard:     build.NewGuard(),
	}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// GenDir returns the root of the generated tree.
func (w *Workspace) GenDir() string {
	return filepath.Join(w.root, genDirName)
}

// GeneratedDir returns the output directory of one language.
func (w *Workspace) GeneratedDir(lang string) string {
	return filepath.Join(w.GenDir(), lang)
}

// Last returns the result of the most recent successful build, if the
// current key refers to one.
func (w *Workspace) Last() *BuildResult {
	if w.lastErr != nil {
		return nil
	}
	return w.last
}

// Build brings the generated tree in line with req.
//
// When req equals the previous request the remembered outcome is returned,
// including a remembered compiler failure. Otherwise the tree is deleted and
// rebuilt from scratch.
func (w *Workspace) Build(ctx context.Context, req build.BuildRequest) (*BuildResult, error) {
	if strings.TrimSpace(req.Schema) == "" {
		return nil, ErrEmptySchema
	}

	langs, err := compiler.NormalizeLanguages(req.Languages)
	if err != nil {
		return nil, err
	}
	req.Languages = langs

	if !w.guard.ShouldRecompile(req) {
		w.logger.Debug("build request unchanged, reusing generated tree", slog.String("digest", req.Digest()))
		if w.lastErr != nil {
			return nil, w.lastErr
		}
		cached := *w.last
		cached.Cached = true
		return &cached, nil
	}

	result, err := w.rebuild(ctx, req)
	w.last, w.lastErr = result, err
	return result, err
}

func (w *Workspace) rebuild(ctx context.Context, req build.BuildRequest) (*BuildResult, error) {
	started := time.Now().UTC()
	names := build.PackageNames(req.Schema)
	result := &BuildResult{
		Request:   req.Clone(),
		Digest:    req.Digest(),
		Package:   strings.Join(names, "."),
		StartedAt: started,
	}

	// The compiler never removes stale outputs.
	if err := os.RemoveAll(w.GenDir()); err != nil {
		return nil, fmt.Errorf("failed to clear generated tree: %w", err)
	}

	srcDir := filepath.Join(w.GenDir(), schemaDirName)
	schemaFile := build.SchemaPath(names, build.SchemaExt)
	schemaPath := filepath.Join(srcDir, filepath.FromSlash(schemaFile))
	if err := os.MkdirAll(filepath.Dir(schemaPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(schemaPath, []byte(req.Schema), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write schema: %w", err)
	}

	args := compiler.BuildArgs(req.ExtraArgs, srcDir, schemaFile, req.Languages, w.GeneratedDir)

	w.logger.Info("compiling schema",
		slog.String("digest", result.Digest),
		slog.String("package", result.Package),
		slog.Any("languages", req.Languages))

	res, err := w.compiler.Compile(ctx, args)
	if err != nil {
		w.discardTree()
		w.record(ctx, result, err)
		return nil, err
	}
	result.Duration = res.Duration

	if !res.Success() {
		w.discardTree()
		compileErr := &compiler.CompileError{ExitCode: res.ExitCode, Stderr: res.Stderr}
		w.logger.Warn("compilation failed", slog.Int("exit_code", res.ExitCode))
		w.record(ctx, result, compileErr)
		return nil, compileErr
	}

	files, err := countFiles(w.GenDir())
	if err != nil {
		w.discardTree()
		return nil, fmt.Errorf("failed to inspect generated tree: %w", err)
	}
	result.Files = files

	w.logger.Info("compilation finished",
		slog.Int("files", files),
		slog.Duration("duration", result.Duration))
	w.record(ctx, result, nil)
	return result, nil
}

// discardTree removes a partial tree so a failed build never looks usable.
func (w *Workspace) discardTree() {
	if err := os.RemoveAll(w.GenDir()); err != nil {
		w.logger.Warn("failed to remove partial tree", slog.Any("error", err))
	}
}

func (w *Workspace) record(ctx context.Context, result *BuildResult, buildErr error) {
	if w.store == nil {
		return
	}
	b := &state.Build{
		SessionID: w.sessionID,
		Digest:    result.Digest,
		Package:   result.Package,
		Languages: result.Request.Languages,
		ExtraArgs: result.Request.ExtraArgs,
		Status:    state.BuildStatusSuccess,
		FileCount: result.Files,
		Duration:  result.Duration,
		StartedAt: result.StartedAt,
	}
	if buildErr != nil {
		b.Status = state.BuildStatusFailed
		b.Error = buildErr.Error()
	}
	if err := w.store.RecordBuild(ctx, b); err != nil {
		w.logger.Warn("failed to record build", slog.Any("error", err))
	}
}

// Remove deletes the workspace directory.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.root)
}
