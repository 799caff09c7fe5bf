package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// codeBlockClass wraps every highlighted block; code_highlight.css is scoped
// to it.
const codeBlockClass = "code-block-highlight"

// Highlighter renders code blocks with chroma using CSS classes.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter returns a highlighter for the named chroma style. Unknown
// names fall back to chroma's default style.
func NewHighlighter(style string) *Highlighter {
	return &Highlighter{
		style: styles.Get(style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.WithLineNumbers(true),
			chromahtml.LineNumbersInTable(true),
			chromahtml.TabWidth(2),
		),
	}
}

// Lexer picks the lexer for a declared language, guessing from the code when
// the language is not recognised.
func Lexer(language, code string) chroma.Lexer {
	l := lexers.Get(language)
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// Highlight renders code as highlighted HTML.
func (h *Highlighter) Highlight(language, code string) (template.HTML, error) {
	it, err := Lexer(language, code).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("render: tokenise %s code: %w", language, err)
	}
	var buf bytes.Buffer
	buf.WriteString(`<div class="` + codeBlockClass + `">`)
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return "", fmt.Errorf("render: highlight: %w", err)
	}
	buf.WriteString("</div>")
	return template.HTML(buf.String()), nil
}

// CSS returns the stylesheet for highlighted blocks.
func (h *Highlighter) CSS() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return nil, fmt.Errorf("render: write code css: %w", err)
	}
	return buf.Bytes(), nil
}
