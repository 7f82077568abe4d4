package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/compiler/compilertest"
	"github.com/leapstack-labs/zsplay/internal/sandbox"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/testutil"
)

const schema = "package demo;\n\nstruct Value { uint8 v; };\n"

func newTestManager(t *testing.T, c compiler.Compiler, store state.Store) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Root:          filepath.Join(t.TempDir(), "sessions"),
		Compiler:      c,
		Store:         store,
		Logger:        testutil.NewTestLogger(t),
		DefaultSchema: schema,
	})
	require.NoError(t, err)
	return m
}

func newMemoryStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Config{Compiler: &compilertest.Fake{}})
	require.Error(t, err)

	_, err = NewManager(Config{Root: t.TempDir()})
	require.Error(t, err)
}

func TestManager_GetCreatesOnce(t *testing.T) {
	m := newTestManager(t, &compilertest.Fake{}, nil)
	id := NewID()

	s1, err := m.Get(id)
	require.NoError(t, err)
	s2, err := m.Get(id)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, schema, s1.Schema)
	assert.Equal(t, "starlark", s1.Engine)
	assert.Equal(t, []string{"go", "python", "starlark"}, s1.Sandbox.Engines())
	assert.Equal(t, []string{id}, m.IDs())
}

func TestManager_GetRejectsInvalidID(t *testing.T) {
	m := newTestManager(t, &compilertest.Fake{}, nil)

	_, err := m.Get("../../etc")
	require.Error(t, err)
	assert.Empty(t, m.IDs())
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	fake := &compilertest.Fake{}
	m := newTestManager(t, fake, nil)
	ctx := context.Background()

	a, err := m.Get(NewID())
	require.NoError(t, err)
	b, err := m.Get(NewID())
	require.NoError(t, err)

	for _, s := range []*Session{a, b} {
		require.NoError(t, s.Do(func(s *Session) error {
			s.Languages = []string{"python"}
			_, err := s.Compile(ctx)
			return err
		}))
	}

	assert.Equal(t, 2, fake.Calls(), "each session keeps its own cached key")
	assert.NotEqual(t, a.Workspace.GenDir(), b.Workspace.GenDir())
	assert.FileExists(t, filepath.Join(a.Workspace.GeneratedDir("python"), "api.python"))
	assert.FileExists(t, filepath.Join(b.Workspace.GeneratedDir("python"), "api.python"))
}

func TestSession_CompileUsesEditorState(t *testing.T) {
	fake := &compilertest.Fake{}
	m := newTestManager(t, fake, nil)
	s, err := m.Get(NewID())
	require.NoError(t, err)

	err = s.Do(func(s *Session) error {
		s.Languages = []string{"java", "cpp"}
		s.ExtraArgs = "  -withoutSourcesAmalgamation\t-setTopLevelPackage top "
		res, err := s.Compile(context.Background())
		if err != nil {
			return err
		}
		assert.Equal(t, "demo", res.Package)
		assert.Equal(t, []string{"cpp", "java"}, res.Request.Languages)
		return nil
	})
	require.NoError(t, err)

	args := fake.LastArgs()
	require.GreaterOrEqual(t, len(args), 3)
	assert.Equal(t, []string{"-withoutSourcesAmalgamation", "-setTopLevelPackage", "top"}, args[:3])

	require.NoError(t, s.Do(func(s *Session) error {
		_, err := s.Compile(context.Background())
		return err
	}))
	assert.Equal(t, 1, fake.Calls(), "unchanged editor state must not recompile")
}

func TestSession_ExecuteAgainstGeneratedSources(t *testing.T) {
	store := newMemoryStore(t)
	m := newTestManager(t, &compilertest.Fake{}, store)
	s, err := m.Get(NewID())
	require.NoError(t, err)
	ctx := context.Background()

	var out string
	err = s.Do(func(s *Session) error {
		s.Languages = []string{"python", "xml"}
		if _, err := s.Compile(ctx); err != nil {
			return err
		}
		out, err = s.Execute(ctx, "starlark", "print(generated.files())", "xml")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "[\"api.xml\"]\n", out)
	assert.Equal(t, []string{s.Workspace.GeneratedDir("xml")}, s.Sandbox.SearchPath())

	err = s.Do(func(s *Session) error {
		_, err := s.Execute(ctx, "starlark", "fail(\"nope\")", "")
		return err
	})
	var fault *sandbox.Fault
	require.ErrorAs(t, err, &fault)

	execs, err := store.ListExecutions(ctx, s.ID, 10)
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, state.BuildStatusFailed, execs[0].Status)
	assert.Contains(t, execs[0].Error, "nope")
	assert.Equal(t, state.BuildStatusSuccess, execs[1].Status)
	assert.Equal(t, "xml", execs[1].Language)
}

func TestSession_ExecuteUnknownEngineNotRecorded(t *testing.T) {
	store := newMemoryStore(t)
	m := newTestManager(t, &compilertest.Fake{}, store)
	s, err := m.Get(NewID())
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), "cobol", "DISPLAY 1", "")
	require.ErrorIs(t, err, sandbox.ErrUnknownEngine)

	execs, err := store.ListExecutions(context.Background(), s.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, execs)
}

func TestSession_DoSerializes(t *testing.T) {
	m := newTestManager(t, &compilertest.Fake{}, nil)
	s, err := m.Get(NewID())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(s *Session) error {
				s.ExtraArgs += "x"
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Len(t, s.ExtraArgs, 50)
}

func TestSession_DoReturnsError(t *testing.T) {
	m := newTestManager(t, &compilertest.Fake{}, nil)
	s, err := m.Get(NewID())
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Do(func(*Session) error { return boom }), boom)
}

func TestManager_CloseRemovesDirectories(t *testing.T) {
	m := newTestManager(t, &compilertest.Fake{}, nil)
	s, err := m.Get(NewID())
	require.NoError(t, err)
	require.NoError(t, s.Do(func(s *Session) error {
		s.Languages = []string{"doc"}
		_, err := s.Compile(context.Background())
		return err
	}))
	root := s.Workspace.Root()
	require.DirExists(t, root)

	require.NoError(t, m.Close())

	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, m.IDs())

	_, err = m.Get(NewID())
	assert.Error(t, err)
}
