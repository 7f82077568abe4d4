package playground

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/highlight"
	"github.com/leapstack-labs/zsplay/internal/samples"
	"github.com/leapstack-labs/zsplay/internal/sandbox"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common/components"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
	"github.com/leapstack-labs/zsplay/internal/workspace"
)

const (
	maxUploadSize = 1 << 20

	defaultScript = "for f in generated.files():\n    print(f)\n"
)

var errNothingGenerated = errors.New("nothing has been generated yet")

// Handlers provides HTTP handlers for the playground feature.
type Handlers struct {
	highlighter *highlight.Highlighter
	samplesDir  string
	notifier    *notifier.Notifier
	isDev       bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(highlighter *highlight.Highlighter, samplesDir string, notify *notifier.Notifier, isDev bool) *Handlers {
	if highlighter == nil {
		highlighter = highlight.New("")
	}
	return &Handlers{
		highlighter: highlighter,
		samplesDir:  samplesDir,
		notifier:    notify,
		isDev:       isDev,
	}
}

// PlaygroundPage renders the full page for the current session, including
// the sources of the last successful build.
func (h *Handlers) PlaygroundPage(w http.ResponseWriter, r *http.Request) {
	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	var data components.PageData
	_ = s.Do(func(s *session.Session) error {
		data = h.buildPageData(s)
		return nil
	})

	if err := components.Page(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PlaygroundUpdates is the long-lived SSE endpoint of the page. It only
// sends changes; the initial state is part of PlaygroundPage.
func (h *Handlers) PlaygroundUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			var err error
			switch ev.Kind {
			case notifier.SamplesChanged:
				err = sse.PatchElementTempl(components.SampleList(h.samplesView()))
			case notifier.Reload:
				err = sse.ExecuteScript("window.location.reload()")
			}
			if err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// HighlightCSS serves the stylesheet of the source highlighter.
func (h *Handlers) HighlightCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if err := h.highlighter.CSS(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CompileSSE stores the editor state in the session, builds it and patches
// the results panel.
func (h *Handlers) CompileSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(components.Results(components.ResultsView{
			Error: "Failed to read signals: " + err.Error(),
		}))
		return
	}

	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	var view components.ResultsView
	_ = s.Do(func(s *session.Session) error {
		s.Schema = signals.Schema
		s.ExtraArgs = signals.Args
		s.Languages = selectedLanguages(signals.Langs)

		// A dropped request must not kill the compiler and leave its
		// cancellation cached for this schema; compiler.timeout bounds the run.
		res, err := s.Compile(context.WithoutCancel(r.Context()))
		view = h.resultsView(s.Workspace, res, err)
		return nil
	})

	if err := sse.PatchElementTempl(components.Results(view)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// ExecSSE runs the posted script in the session sandbox and patches the
// output panel.
func (h *Handlers) ExecSSE(w http.ResponseWriter, r *http.Request) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(components.ExecOutput(components.ExecView{
			Ran:   true,
			Fault: "Failed to read signals: " + err.Error(),
		}))
		return
	}

	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	view := components.ExecView{Ran: true, Engine: signals.Engine}
	if signals.Lang != "" && !compiler.IsLanguage(signals.Lang) {
		view.Fault = fmt.Sprintf("%s: %s", compiler.ErrUnknownLanguage, signals.Lang)
	} else {
		_ = s.Do(func(s *session.Session) error {
			if view.Engine == "" {
				view.Engine = s.Engine
			}
			out, err := s.Execute(r.Context(), view.Engine, signals.Code, signals.Lang)
			view.Output = out
			var fault *sandbox.Fault
			switch {
			case errors.As(err, &fault):
				view.Fault, view.Backtrace = fault.Message, fault.Backtrace
			case err != nil:
				view.Fault = err.Error()
			}
			return nil
		})
	}

	if err := sse.PatchElementTempl(components.ExecOutput(view)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Upload replaces the session schema with an uploaded .zs file.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("schema")
	if err != nil {
		http.Error(w, "missing schema file", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if !samples.IsSchemaFile(header.Filename) {
		http.Error(w, "only .zs files can be uploaded", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !utf8.Valid(data) {
		http.Error(w, "schema must be UTF-8 text", http.StatusBadRequest)
		return
	}

	_ = s.Do(func(s *session.Session) error {
		s.Schema = string(data)
		return nil
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoadSample replaces the session schema with a file from the samples
// directory.
func (h *Handlers) LoadSample(w http.ResponseWriter, r *http.Request) {
	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	if h.samplesDir == "" {
		http.NotFound(w, r)
		return
	}

	schema, err := samples.Load(h.samplesDir, chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	_ = s.Do(func(s *session.Session) error {
		s.Schema = schema
		return nil
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Download streams the generated tree as a zip archive.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := common.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	err := s.Do(func(s *session.Session) error {
		if s.Workspace.Last() == nil {
			return errNothingGenerated
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workspace.ArchiveName))
		return s.Workspace.Archive(w)
	})
	// Archive errors after the first byte only truncate the download.
	if errors.Is(err, errNothingGenerated) {
		http.Error(w, err.Error(), http.StatusNotFound)
	}
}

func (h *Handlers) buildPageData(s *session.Session) components.PageData {
	script := s.Script
	if script == "" {
		script = defaultScript
	}
	data := components.PageData{
		Title:      "Playground",
		IsDev:      h.isDev,
		SessionID:  s.ID,
		Schema:     s.Schema,
		Args:       s.ExtraArgs,
		Languages:  languageOptions(s.Languages),
		Engines:    s.Sandbox.Engines(),
		Engine:     s.Engine,
		Script:     script,
		ScriptLang: s.ScriptLang,
		Samples:    h.samplesView(),
	}
	if last := s.Workspace.Last(); last != nil {
		data.Results = h.resultsView(s.Workspace, last, nil)
	}
	return data
}

func (h *Handlers) samplesView() components.SamplesView {
	view := components.SamplesView{Dir: h.samplesDir}
	list, err := samples.List(h.samplesDir)
	if err != nil {
		view.Error = err.Error()
		return view
	}
	for _, sample := range list {
		view.Items = append(view.Items, components.SampleItem{
			Name: sample.Name,
			URL:  "/samples/" + url.PathEscape(sample.Name),
		})
	}
	return view
}

// resultsView turns a build outcome into the results panel.
func (h *Handlers) resultsView(ws *workspace.Workspace, res *workspace.BuildResult, err error) components.ResultsView {
	var compileErr *compiler.CompileError
	switch {
	case errors.Is(err, workspace.ErrEmptySchema):
		return components.ResultsView{Notice: "Nothing to compile, the schema is empty."}
	case errors.As(err, &compileErr):
		msg := compileErr.Stderr
		if msg == "" {
			msg = compileErr.Error()
		}
		return components.ResultsView{Error: msg}
	case err != nil:
		return components.ResultsView{Error: err.Error()}
	case res == nil:
		return components.ResultsView{}
	}

	view := components.ResultsView{
		Cached:   res.Cached,
		Digest:   res.Digest,
		Package:  res.Package,
		Files:    res.Files,
		Duration: res.Duration,
		Download: len(res.Request.Languages) > 0,
	}
	if !view.Download {
		view.Notice = "Schema is valid. Select an output language to generate sources."
	}

	for _, lang := range res.Request.Languages {
		files, err := ws.Sources(lang)
		if err != nil {
			view.Error = err.Error()
			continue
		}
		folders := common.BuildSourceTree(files, h.renderer(lang))
		view.Languages = append(view.Languages, components.LanguageView{
			Name:    lang,
			Hint:    highlight.Hint(lang),
			Files:   common.CountFiles(folders),
			Folders: folders,
		})
	}
	return view
}

// renderer returns the function that highlights files generated for lang.
func (h *Handlers) renderer(lang string) func(workspace.SourceFile) components.SourceHTML {
	return func(f workspace.SourceFile) components.SourceHTML {
		if !utf8.ValidString(f.Content) {
			return components.SourceHTML(fmt.Sprintf(`<pre class="notice">binary file, %d bytes</pre>`, len(f.Content)))
		}
		var buf bytes.Buffer
		if err := h.highlighter.Render(&buf, lang, f.Path, f.Content); err != nil {
			return components.SourceHTML("<pre>" + templ.EscapeString(f.Content) + "</pre>")
		}
		return components.SourceHTML(buf.String())
	}
}

// selectedLanguages returns the checked languages in canonical order.
func selectedLanguages(checked map[string]bool) []string {
	var langs []string
	for _, lang := range compiler.Languages {
		if checked[lang] {
			langs = append(langs, lang)
		}
	}
	return langs
}

func languageOptions(selected []string) []components.LanguageOption {
	opts := make([]components.LanguageOption, 0, len(compiler.Languages))
	for _, lang := range compiler.Languages {
		opts = append(opts, components.LanguageOption{
			Name:    lang,
			Checked: slices.Contains(selected, lang),
		})
	}
	return opts
}
