// Package highlight renders generated sources as highlighted HTML.
package highlight

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Hint maps a generator language to the lexer used for its output.
func Hint(lang string) string {
	switch lang {
	case "doc":
		return "html"
	case "cpp":
		return "c++"
	default:
		return lang
	}
}

// Highlighter renders source code with CSS classes; the stylesheet is
// written once by CSS.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// New returns a highlighter using the named chroma style.
func New(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		style:     styles.Get(style),
		formatter: html.New(html.WithClasses(true), html.TabWidth(4)),
	}
}

// Lexer picks the lexer for a file generated for lang, falling back to the
// file name and finally to plain text.
func Lexer(lang, filename string) chroma.Lexer {
	lexer := lexers.Get(Hint(lang))
	if lexer == nil {
		lexer = lexers.Match(filename)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Render writes source as a highlighted <pre> block.
func (h *Highlighter) Render(w io.Writer, lang, filename, source string) error {
	it, err := Lexer(lang, filename).Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("failed to tokenise %s: %w", filename, err)
	}
	if err := h.formatter.Format(w, h.style, it); err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}
	return nil
}

// CSS writes the stylesheet for the highlighter's style.
func (h *Highlighter) CSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
