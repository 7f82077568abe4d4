package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_AutoMode(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, ModeAuto, true).Mode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, ModeAuto, false).Mode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, "", false).Mode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, ModeJSON, true).Mode())
	// a buffer is never a terminal
	assert.Equal(t, ModeMarkdown, NewRenderer(&out, &errOut, ModeAuto).Mode())
}

func TestRenderer_StatusLines(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, ModeText, false)

	r.Success("compiled")
	r.Error("compiler failed")
	r.Warning("no languages")

	assert.Equal(t, "✓ compiled\n", out.String())
	assert.Contains(t, errOut.String(), "✗ compiler failed\n")
	assert.Contains(t, errOut.String(), "! no languages\n")
}

func TestRenderer_Table(t *testing.T) {
	header := []string{"LANG", "FILES"}
	rows := [][]string{{"python", "3"}, {"cpp", "12"}}

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		NewRendererWithTTY(&out, &out, ModeText, false).Table(header, rows)
		assert.Contains(t, out.String(), "python")
		assert.Contains(t, out.String(), "┌")
	})

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		NewRendererWithTTY(&out, &out, ModeMarkdown, false).Table(header, rows)
		assert.Contains(t, out.String(), "| LANG | FILES |")
		assert.Contains(t, out.String(), "| cpp | 12 |")
	})
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, ModeJSON, false)

	require.NoError(t, r.JSON(map[string]int{"files": 2}))
	assert.JSONEq(t, `{"files": 2}`, out.String())
}
