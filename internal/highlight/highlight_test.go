package highlight

import (
	"bytes"
	"testing"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHint(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"doc", "html"},
		{"cpp", "c++"},
		{"python", "python"},
		{"java", "java"},
		{"xml", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, Hint(tt.lang))
		})
	}
}

func TestLexer(t *testing.T) {
	assert.Equal(t, "HTML", Lexer("doc", "index.html").Config().Name)
	assert.Equal(t, "C++", Lexer("cpp", "Point.h").Config().Name)
	assert.Equal(t, "Python", Lexer("python", "api.py").Config().Name)
	assert.Equal(t, "Go", Lexer("unknown", "main.go").Config().Name)
	assert.Same(t, lexers.Fallback.Config(), Lexer("unknown", "notes.unknownext").Config())
}

func TestRender(t *testing.T) {
	h := New("")

	var buf bytes.Buffer
	require.NoError(t, h.Render(&buf, "python", "api.py", "class Point:\n    x = 1 < 2\n"))

	out := buf.String()
	assert.Contains(t, out, `class="chroma"`)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "&lt;")
	assert.NotContains(t, out, "style=", "classes are used instead of inline styles")
}

func TestCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("monokai").CSS(&buf))
	assert.Contains(t, buf.String(), ".chroma")
}
