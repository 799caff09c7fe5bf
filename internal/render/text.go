package render

import (
	"html/template"
	"log/slog"
	"strings"

	"github.com/starford/blogula/internal/models"
)

// Inline function names understood by the evaluator.
const (
	fnSlash    = "slash"
	fnBraceBeg = "brace-beg"
	fnBraceEnd = "brace-end"
	fnFormula  = "f"
	fnDef      = "def"
	fnRef      = "ref"
)

// Evaluator turns inline text into plain text or HTML. Unknown functions are
// dropped with a warning.
type Evaluator struct {
	Logger *slog.Logger
}

func (e Evaluator) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Text evaluates t to plain text, atoms separated by single spaces.
func (e Evaluator) Text(t models.Text) string {
	parts := make([]string, 0, len(t))
	for _, a := range t {
		switch a := a.(type) {
		case models.Word:
			parts = append(parts, a.Text)
		case models.Function:
			switch a.Name {
			case fnSlash:
				parts = append(parts, `\`)
			case fnBraceBeg:
				parts = append(parts, "{")
			case fnBraceEnd:
				parts = append(parts, "}")
			case fnFormula, fnDef, fnRef:
				parts = append(parts, a.Arg(0))
			default:
				e.unknown(a)
			}
		}
	}
	return strings.Join(parts, " ")
}

// HTML evaluates t to an HTML fragment. Words are escaped.
func (e Evaluator) HTML(t models.Text) template.HTML {
	esc := template.HTMLEscapeString
	parts := make([]string, 0, len(t))
	for _, a := range t {
		switch a := a.(type) {
		case models.Word:
			parts = append(parts, esc(a.Text))
		case models.Function:
			switch a.Name {
			case fnSlash:
				parts = append(parts, "&#92;")
			case fnBraceBeg:
				parts = append(parts, "{")
			case fnBraceEnd:
				parts = append(parts, "}")
			case fnFormula:
				parts = append(parts, string(InlineMath(a.Arg(0))))
			case fnDef:
				parts = append(parts, "<strong>"+esc(a.Arg(0))+"</strong>")
			case fnRef:
				href := "#"
				if u := a.Arg(1); u != "" {
					href = u
				}
				parts = append(parts, `<a href="`+esc(href)+`">`+esc(a.Arg(0))+"</a>")
			default:
				e.unknown(a)
			}
		}
	}
	return template.HTML(strings.Join(parts, " "))
}

func (e Evaluator) unknown(f models.Function) {
	e.logger().Warn("unknown inline function, skipping", slog.String("function", f.Name))
}

// SectionText flattens a section tree to plain text: section titles on their
// own lines, one paragraph per block. The root title is not printed.
func (e Evaluator) SectionText(root *models.Section) string {
	var b strings.Builder
	root.Walk(func(level int, s *models.Section) {
		if level > 0 {
			marker := strings.Repeat("=", level)
			b.WriteString(marker + " " + e.Text(s.Title) + " " + marker + "\n\n")
		}
		for _, p := range s.Paragraphs {
			e.writeCell(&b, p.Cell)
			b.WriteString("\n\n")
		}
	})
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (e Evaluator) writeCell(b *strings.Builder, c models.Cell) {
	header := func(h models.Text) {
		if h != nil {
			b.WriteString(e.Text(h) + "\n")
		}
	}
	switch c := c.(type) {
	case models.Textual:
		b.WriteString(e.Text(c.Text))
	case models.List:
		header(c.Header)
		for i, item := range c.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("* " + e.Text(item))
		}
	case models.Formula:
		header(c.Header)
		b.WriteString(c.Formula)
	case models.CodeBlock:
		header(c.Header)
		b.WriteString(c.Code)
	case models.Image:
		header(c.Header)
		b.WriteString("[image: " + c.Path + "]")
	}
}
