package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
)

func mustTokenize(t *testing.T, text string) []Token {
	t.Helper()
	tokens, err := Tokenize(text)
	require.NoError(t, err)
	return tokens
}

func rootCells(t *testing.T, body string) []models.Cell {
	t.Helper()
	root, err := ParseBody(body)
	require.NoError(t, err)
	cells := make([]models.Cell, len(root.Paragraphs))
	for i, p := range root.Paragraphs {
		cells[i] = p.Cell
	}
	return cells
}

func TestParseText_Functions(t *testing.T) {
	tokens := mustTokenize(t, `See \ref{docs}{https://go.dev} and \slash now`)
	next, text, err := ParseText(tokens, 0)
	require.NoError(t, err)
	assert.Equal(t, len(tokens)-1, next)
	assert.Equal(t, models.Text{
		models.Word{Text: "See"},
		models.Function{Name: "ref", Args: []string{"docs", "https://go.dev"}},
		models.Word{Text: "and"},
		models.Function{Name: "slash"},
		models.Word{Text: "now"},
	}, text)
}

func TestParseText_NoMatch(t *testing.T) {
	tokens := mustTokenize(t, "* item")
	next, text, err := ParseText(tokens, 0)
	require.NoError(t, err)
	assert.Nil(t, text)
	assert.Equal(t, 0, next)
}

func TestParseText_MissingFunctionName(t *testing.T) {
	for _, in := range []string{`a \{x}`, `trailing \`} {
		tokens := mustTokenize(t, in)
		_, _, err := ParseText(tokens, 0)
		assert.True(t, errors.Is(err, apperr.ErrMissingFunctionName), "input %q: err = %v", in, err)
	}
}

func TestParseSection_Tree(t *testing.T) {
	body := "Intro text.\n\n= First =\n\nBody one.\n\n== Deeper ==\nDeep text.\n\n= Second =\nTwo."
	root, err := ParseBody(body)
	require.NoError(t, err)

	textual := func(words ...string) models.Paragraph {
		return models.Paragraph{Cell: models.Textual{Text: models.Words(words...)}}
	}
	want := &models.Section{
		Title:      models.Words(models.RootTitle),
		Paragraphs: []models.Paragraph{textual("Intro", "text.")},
		Subsections: []*models.Section{
			{
				Title:      models.Words("First"),
				Paragraphs: []models.Paragraph{textual("Body", "one.")},
				Subsections: []*models.Section{
					{Title: models.Words("Deeper"), Paragraphs: []models.Paragraph{textual("Deep", "text.")}},
				},
			},
			{Title: models.Words("Second"), Paragraphs: []models.Paragraph{textual("Two.")}},
		},
	}
	assert.Equal(t, want, root)
	assert.True(t, root.IsRoot())
}

func TestParseSection_UnbalancedMarker(t *testing.T) {
	tokens := mustTokenize(t, "= Title ==")
	_, _, err := ParseSection(tokens, 0, 1, true)
	assert.True(t, errors.Is(err, apperr.ErrUnbalancedSectionMarker), "err = %v", err)

	_, err = ParseBody("= Title ==")
	assert.True(t, errors.Is(err, apperr.ErrUnbalancedSectionMarker), "err = %v", err)
}

func TestParseSection_MissingTitle(t *testing.T) {
	_, err := ParseBody("= =")
	assert.True(t, errors.Is(err, apperr.ErrMissingTitle), "err = %v", err)
}

func TestParseSection_NoMarkerIsNoMatch(t *testing.T) {
	tokens := mustTokenize(t, "== Too deep ==")
	next, sec, err := ParseSection(tokens, 0, 1, true)
	require.NoError(t, err)
	assert.Nil(t, sec)
	assert.Equal(t, 0, next)
}

func TestParseSection_SkippedLevelIsTrailing(t *testing.T) {
	_, err := ParseBody("Text.\n\n== Too deep ==\nx")
	assert.True(t, errors.Is(err, apperr.ErrTrailingContent), "err = %v", err)
}

func TestParseParagraph_Formula(t *testing.T) {
	cells := rootCells(t, "Header\n% formula {x^2}")
	require.Equal(t, []models.Cell{
		models.Formula{Header: models.Words("Header"), Formula: "x^2"},
	}, cells)
}

func TestParseParagraph_List(t *testing.T) {
	cells := rootCells(t, "* a\n* b")
	require.Equal(t, []models.Cell{
		models.List{Items: []models.Text{models.Words("a"), models.Words("b")}},
	}, cells)

	list := cells[0].(models.List)
	assert.Nil(t, list.Header)
}

func TestParseParagraph_ListWithHeader(t *testing.T) {
	cells := rootCells(t, "Things I like:\n* tea\n** long walks\n\nAfter.")
	require.Equal(t, []models.Cell{
		models.List{
			Header: models.Words("Things", "I", "like:"),
			Items:  []models.Text{models.Words("tea"), models.Words("long", "walks")},
		},
		models.Textual{Text: models.Words("After.")},
	}, cells)
}

func TestParseParagraph_CodeBlock(t *testing.T) {
	cells := rootCells(t, "Example:\n% code {go} {fmt.Println(1)}")
	require.Equal(t, []models.Cell{
		models.CodeBlock{Header: models.Words("Example:"), Language: "go", Code: "fmt.Println(1)"},
	}, cells)
}

func TestParseParagraph_CodeBlockKeepsBraces(t *testing.T) {
	cells := rootCells(t, "% code {c} {int main() {\n  return 0;\n}}")
	require.Len(t, cells, 1)
	cb := cells[0].(models.CodeBlock)
	assert.Nil(t, cb.Header)
	assert.Equal(t, "int main() {\n  return 0;\n}", cb.Code)
}

func TestParseParagraph_Image(t *testing.T) {
	cells := rootCells(t, "% image {pics/cat.png}\n\nCaptioned:\n% image {https://example.com/a.png}")
	require.Equal(t, []models.Cell{
		models.Image{Path: "pics/cat.png"},
		models.Image{Header: models.Words("Captioned:"), Path: "https://example.com/a.png"},
	}, cells)
}

func TestParseParagraph_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"formula without body", "% formula", apperr.ErrMissingFormulaBody},
		{"code with one blob", "% code {go}", apperr.ErrMissingCodeBlockParts},
		{"code without blobs", "% code\n\nx", apperr.ErrMissingCodeBlockParts},
		{"image without path", "% image", apperr.ErrMissingImagePath},
		{"garbage after cell", "% formula {x} trailing", apperr.ErrUnterminatedCell},
		{"list followed by cell", "* a % formula {x}", apperr.ErrMalformedList},
		{"unknown cell keyword", "% table {x}", apperr.ErrTrailingContent},
		{"bare cell marker", "Text\n\n%", apperr.ErrTrailingContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBody(tt.body)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "err = %v, want %v", err, tt.want)
		})
	}
}

func TestParseParagraph_SyntaxErrorPosition(t *testing.T) {
	_, err := ParseBody("Fine.\n\nStill fine.\n\n% formula")
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, 4, se.Pos.StartLine)
	assert.Contains(t, err.Error(), "line 5")
}
