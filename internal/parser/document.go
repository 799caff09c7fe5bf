package parser

import (
	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
)

// Cell keywords following a cell marker.
const (
	keywordFormula = "formula"
	keywordCode    = "code"
	keywordImage   = "image"
)

// ParseSection parses a section at the given nesting level. With
// requiresTitle it expects "=...= Title =...=" with exactly level markers and
// returns a nil section, position unchanged, when no such opening marker is
// at pos. Without it the section is the root and gets the sentinel title.
func ParseSection(tokens []Token, pos, level int, requiresTitle bool) (int, *models.Section, error) {
	next := pos
	var title models.Text

	if requiresTitle {
		if !isSectionMarker(tokens, next, level) {
			return pos, nil, nil
		}
		open := tokens[next]

		var err error
		next, title, err = ParseText(tokens, next+1)
		if err != nil {
			return pos, nil, err
		}
		if title == nil {
			return pos, nil, errAt(apperr.ErrMissingTitle, open)
		}
		if next >= len(tokens) {
			return pos, nil, errAtEnd(apperr.ErrUnbalancedSectionMarker, tokens)
		}
		if !isSectionMarker(tokens, next, level) {
			return pos, nil, errAt(apperr.ErrUnbalancedSectionMarker, tokens[next])
		}
		next++
	} else {
		title = models.Words(models.RootTitle)
	}

	// Blank lines after a title.
	for next < len(tokens) && tokens[next].Kind == KindParagraphEnd {
		next++
	}

	sec := &models.Section{Title: title}

	for next < len(tokens) {
		n, p, err := parseParagraph(tokens, next)
		if err != nil {
			return pos, nil, err
		}
		if p == nil {
			break
		}
		sec.Paragraphs = append(sec.Paragraphs, *p)
		next = n
	}

	for next < len(tokens) {
		n, sub, err := ParseSection(tokens, next, level+1, true)
		if err != nil {
			return pos, nil, err
		}
		if sub == nil {
			break
		}
		sec.Subsections = append(sec.Subsections, sub)
		next = n
	}

	return next, sec, nil
}

func isSectionMarker(tokens []Token, pos, level int) bool {
	return pos < len(tokens) &&
		tokens[pos].Kind == KindSectionMarker &&
		len(tokens[pos].Content) == level
}

// atParagraphEnd reports whether pos is past the stream or on a paragraph
// end, and returns the position after it.
func atParagraphEnd(tokens []Token, pos int) (int, bool) {
	if pos >= len(tokens) {
		return pos, true
	}
	if tokens[pos].Kind == KindParagraphEnd {
		return pos + 1, true
	}
	return pos, false
}

// parseParagraph tries textual, list and the marked cells in that order. A
// nil paragraph with no error means nothing here is a paragraph, which ends
// the paragraph run of the enclosing section.
func parseParagraph(tokens []Token, pos int) (int, *models.Paragraph, error) {
	parsers := []func([]Token, int) (int, models.Cell, error){
		parseTextual,
		parseList,
		parseMarkedCell,
	}
	for _, parse := range parsers {
		next, cell, err := parse(tokens, pos)
		if err != nil {
			return pos, nil, err
		}
		if cell != nil {
			return next, &models.Paragraph{Cell: cell}, nil
		}
	}
	return pos, nil, nil
}

func parseTextual(tokens []Token, pos int) (int, models.Cell, error) {
	next, text, err := ParseText(tokens, pos)
	if err != nil || text == nil {
		return pos, nil, err
	}
	next, ok := atParagraphEnd(tokens, next)
	if !ok {
		// Something else follows the text; let the other cell kinds look.
		return pos, nil, nil
	}
	return next, models.Textual{Text: text}, nil
}

func parseList(tokens []Token, pos int) (int, models.Cell, error) {
	next, header, err := ParseText(tokens, pos)
	if err != nil {
		return pos, nil, err
	}

	var items []models.Text
	for next < len(tokens) && tokens[next].Kind == KindListMarker {
		n, item, err := ParseText(tokens, next+1)
		if err != nil {
			return pos, nil, err
		}
		if item == nil {
			break
		}
		items = append(items, item)
		next = n
	}
	if len(items) == 0 {
		return pos, nil, nil
	}

	end, ok := atParagraphEnd(tokens, next)
	if !ok {
		return pos, nil, errAt(apperr.ErrMalformedList, tokens[next])
	}
	return end, models.List{Header: header, Items: items}, nil
}

// parseMarkedCell handles "Header? % keyword blob..." cells. Anything other
// than a known keyword right after the marker is not a marked cell. Once the
// keyword matched, missing blobs are fatal.
func parseMarkedCell(tokens []Token, pos int) (int, models.Cell, error) {
	next, header, err := ParseText(tokens, pos)
	if err != nil {
		return pos, nil, err
	}
	if next+1 >= len(tokens) || tokens[next].Kind != KindCellMarker {
		return pos, nil, nil
	}
	kw := tokens[next+1]
	if kw.Kind != KindWord {
		return pos, nil, nil
	}

	var (
		nblobs  int
		missing error
	)
	switch kw.Content {
	case keywordFormula:
		nblobs, missing = 1, apperr.ErrMissingFormulaBody
	case keywordCode:
		nblobs, missing = 2, apperr.ErrMissingCodeBlockParts
	case keywordImage:
		nblobs, missing = 1, apperr.ErrMissingImagePath
	default:
		return pos, nil, nil
	}

	next += 2
	blobs := make([]string, 0, nblobs)
	for len(blobs) < nblobs {
		if next >= len(tokens) {
			return pos, nil, errAtEnd(missing, tokens)
		}
		if tokens[next].Kind != KindBlob {
			return pos, nil, errAt(missing, tokens[next])
		}
		blobs = append(blobs, tokens[next].Content)
		next++
	}

	end, ok := atParagraphEnd(tokens, next)
	if !ok {
		return pos, nil, errAt(apperr.ErrUnterminatedCell, tokens[next])
	}

	var cell models.Cell
	switch kw.Content {
	case keywordFormula:
		cell = models.Formula{Header: header, Formula: blobs[0]}
	case keywordCode:
		cell = models.CodeBlock{Header: header, Language: blobs[0], Code: blobs[1]}
	case keywordImage:
		cell = models.Image{Header: header, Path: blobs[0]}
	}
	return end, cell, nil
}
