package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/leapstack-labs/zsplay/internal/ui/features"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

// setupTestRouter mounts the playground routes behind a middleware that
// attaches s to every request.
func setupTestRouter(t *testing.T, fixture *features.TestFixture, s *session.Session) http.Handler {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, features.RequestWithSession(req, s))
		})
	})
	require.NoError(t, SetupRoutes(r, fixture.Highlighter, fixture.SamplesDir, fixture.Notifier, false))
	return r
}

func setup(t *testing.T) (*features.TestFixture, *session.Session, http.Handler) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	s := fixture.NewSession(t)
	return fixture, s, setupTestRouter(t, fixture, s)
}

func post(t *testing.T, h http.Handler, path string, signals Signals) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func compileSignals(langs ...string) Signals {
	checked := make(map[string]bool, len(langs))
	for _, l := range langs {
		checked[l] = true
	}
	return Signals{Schema: features.TestSchema, Langs: checked}
}

// =============================================================================
// Page
// =============================================================================

func TestPlaygroundPage(t *testing.T) {
	_, _, h := setup(t)

	rec := get(h, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Playground - zsplay</title>",
		"data-init",
		"/updates",
		"package demo.types;",
		"data-bind:langs.python",
		"data-bind:langs.doc",
		`id="results"`,
		`<option value="starlark" selected>`,
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.NotContains(t, body, "Download sources", "nothing generated yet")
}

func TestPlaygroundPage_ShowsLastBuild(t *testing.T) {
	_, _, h := setup(t)

	rec := post(t, h, "/compile", compileSignals("xml"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := get(h, "/").Body.String()
	assert.Contains(t, body, "gen/xml/api.xml")
	assert.Contains(t, body, "Download sources")
	assert.Contains(t, body, `data-bind:langs.xml checked`)
}

func TestPlaygroundPage_NoSession(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Highlighter, "", fixture.Notifier, false)

	rec := httptest.NewRecorder()
	h.PlaygroundPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// =============================================================================
// Compile
// =============================================================================

func TestCompileSSE(t *testing.T) {
	fixture, s, h := setup(t)

	rec := post(t, h, "/compile", compileSignals("python", "cpp"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, `id="results"`)
	assert.Contains(t, body, "gen/python/api.python")
	assert.Contains(t, body, "gen/cpp/api.cpp")
	assert.Contains(t, body, "Download sources")
	assert.Equal(t, 1, fixture.Compiler.Calls())

	assert.Equal(t, []string{"python", "cpp"}, s.Languages, "session keeps canonical order")
	assert.Equal(t, features.TestSchema, s.Schema)
}

func TestCompileSSE_UnchangedRequestIsCached(t *testing.T) {
	fixture, _, h := setup(t)

	post(t, h, "/compile", compileSignals("java"))
	rec := post(t, h, "/compile", compileSignals("java"))

	assert.Contains(t, rec.Body.String(), "(unchanged)")
	assert.Equal(t, 1, fixture.Compiler.Calls())

	signals := compileSignals("java")
	signals.Args = "-withoutCodeComments"
	post(t, h, "/compile", signals)
	assert.Equal(t, 2, fixture.Compiler.Calls())
	assert.Equal(t, "-withoutCodeComments", fixture.Compiler.LastArgs()[0])
}

func TestCompileSSE_OutlivesRequest(t *testing.T) {
	fixture, s, h := setup(t)

	body, err := json.Marshal(compileSignals("python"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/compile", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, s.Workspace.Last(), "compile finishes after the client went away")
	assert.Equal(t, 1, fixture.Compiler.Calls())

	rec := post(t, h, "/compile", compileSignals("python"))
	assert.NotContains(t, rec.Body.String(), "compiler stopped")
	assert.Contains(t, rec.Body.String(), "(unchanged)")
	assert.Equal(t, 1, fixture.Compiler.Calls())
}

func TestCompileSSE_CompilerError(t *testing.T) {
	fixture, s, h := setup(t)
	fixture.Compiler.SetStderr("[ERROR] demo/types.zs:3:1: syntax error")

	rec := post(t, h, "/compile", compileSignals("python"))

	body := rec.Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.Contains(t, body, "syntax error")
	assert.NotContains(t, body, "Download sources")
	assert.Nil(t, s.Workspace.Last())
}

func TestCompileSSE_EmptySchema(t *testing.T) {
	fixture, _, h := setup(t)

	rec := post(t, h, "/compile", Signals{Schema: "  \n"})

	assert.Contains(t, rec.Body.String(), "Nothing to compile")
	assert.Zero(t, fixture.Compiler.Calls())
}

func TestCompileSSE_NoLanguages(t *testing.T) {
	_, _, h := setup(t)

	rec := post(t, h, "/compile", compileSignals())

	body := rec.Body.String()
	assert.Contains(t, body, "Select an output language")
	assert.NotContains(t, body, "Download sources")
}

func TestCompileSSE_BadSignals(t *testing.T) {
	_, _, h := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "Failed to read signals")
}

// =============================================================================
// Exec
// =============================================================================

func TestExecSSE(t *testing.T) {
	_, s, h := setup(t)
	post(t, h, "/compile", compileSignals("python", "xml"))

	rec := post(t, h, "/exec", Signals{
		Code:   "print(len(generated.files()))",
		Engine: "starlark",
		Lang:   "python",
	})

	body := rec.Body.String()
	assert.Contains(t, body, `id="exec-output"`)
	assert.Contains(t, body, `<pre class="output">1`)
	assert.Equal(t, "python", s.ScriptLang)
	assert.Equal(t, "print(len(generated.files()))", s.Script)
}

func TestExecSSE_Fault(t *testing.T) {
	_, _, h := setup(t)

	rec := post(t, h, "/exec", Signals{Code: "print(\"before\")\nfail(\"boom\")", Engine: "starlark"})

	body := rec.Body.String()
	assert.Contains(t, body, "before")
	assert.Contains(t, body, "boom")
	assert.Contains(t, body, `class="error"`)
}

func TestExecSSE_Errors(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    string
	}{
		{"unknown language", Signals{Code: "print(1)", Engine: "starlark", Lang: "cobol"}, "unknown output language"},
		{"unknown engine", Signals{Code: "print(1)", Engine: "ruby"}, "unknown sandbox engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, h := setup(t)
			rec := post(t, h, "/exec", tt.signals)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestExecSSE_DefaultsToSessionEngine(t *testing.T) {
	_, _, h := setup(t)

	rec := post(t, h, "/exec", Signals{Code: `print("hi")`})
	assert.Contains(t, rec.Body.String(), `<pre class="output">hi`)
}

// =============================================================================
// Upload, samples, download
// =============================================================================

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("schema", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	_, s, h := setup(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "uploaded.zs", "package uploaded;\n"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "package uploaded;\n", s.Schema)
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"wrong extension", "schema.txt", "package x;"},
		{"binary", "schema.zs", "\xff\xfe\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s, h := setup(t)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, tt.filename, tt.content))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, features.TestSchema, s.Schema)
		})
	}
}

func TestLoadSample(t *testing.T) {
	fixture, s, h := setup(t)
	testutil.WriteFile(t, fixture.SamplesDir, "colors.zs", "package colors;\n")

	rec := get(h, "/samples/colors.zs")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "package colors;\n", s.Schema)

	rec = get(h, "/samples/missing.zs")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload(t *testing.T) {
	_, _, h := setup(t)

	rec := get(h, "/download")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	post(t, h, "/compile", compileSignals("python", "doc"))
	rec = get(h, "/download")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "gen.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "gen/python/api.python")
	assert.Contains(t, names, "gen/doc/api.doc")
	assert.Contains(t, names, "gen/zs/demo/types.zs")
}

func TestHighlightCSS(t *testing.T) {
	_, _, h := setup(t)

	rec := get(h, "/highlight.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".chroma")
}

// =============================================================================
// Updates
// =============================================================================

func TestPlaygroundUpdates_SamplesChanged(t *testing.T) {
	fixture, _, h := setup(t)
	testutil.WriteFile(t, fixture.SamplesDir, "fresh.zs", "package fresh;\n")

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return fixture.Notifier.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	fixture.Notifier.Broadcast(notifier.Event{Kind: notifier.SamplesChanged, Path: "fresh.zs"})
	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, `id="samples"`)
	assert.Contains(t, body, "/samples/fresh.zs")
}

func TestPlaygroundUpdates_NoInitialState(t *testing.T) {
	_, _, h := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}

// =============================================================================
// Helpers
// =============================================================================

func TestSelectedLanguages(t *testing.T) {
	got := selectedLanguages(map[string]bool{"doc": true, "python": true, "java": false, "rust": true})
	assert.Equal(t, []string{"python", "doc"}, got)
	assert.Empty(t, selectedLanguages(nil))
}

func TestLanguageOptions(t *testing.T) {
	opts := languageOptions([]string{"cpp"})
	require.Len(t, opts, 5)
	assert.Equal(t, "python", opts[0].Name)
	assert.False(t, opts[0].Checked)
	assert.Equal(t, "cpp", opts[1].Name)
	assert.True(t, opts[1].Checked)
}
