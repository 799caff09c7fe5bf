package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/blogula/internal/apperr"
)

// specialChars never appear inside a word.
const specialChars = `{}\*%=`

type lexer struct {
	text   string
	pos    int
	line   int
	tokens []Token
}

// Tokenize splits text into tokens. Runs of spaces and tabs separate tokens
// and are dropped. A non-empty result always ends with a paragraph-end token.
func Tokenize(text string) ([]Token, error) {
	lx := &lexer{text: text}
	lx.pos = lx.skipBlanks(0)

	for lx.pos < len(lx.text) {
		if err := lx.step(); err != nil {
			return nil, err
		}
	}

	if n := len(lx.tokens); n > 0 && lx.tokens[n-1].Kind != KindParagraphEnd {
		lx.tokens = append(lx.tokens, Token{
			Kind: KindParagraphEnd,
			Pos:  Pos{StartLine: lx.line, EndLine: lx.line, StartChar: lx.pos, EndChar: lx.pos},
		})
	}
	return lx.tokens, nil
}

func (lx *lexer) step() error {
	if end := lx.wordEnd(lx.pos); end > lx.pos {
		lx.emit(KindWord, lx.pos, end)
		return nil
	}

	switch lx.text[lx.pos] {
	case '{':
		return lx.blob()
	case '\\':
		lx.emit(KindSlash, lx.pos, lx.pos+1)
	case '*':
		lx.emit(KindListMarker, lx.pos, lx.runEnd(lx.pos, '*'))
	case '%':
		lx.emit(KindCellMarker, lx.pos, lx.pos+1)
	case '=':
		lx.emit(KindSectionMarker, lx.pos, lx.runEnd(lx.pos, '='))
	case '\n':
		lx.pos++
		lx.line++
		lx.pos = lx.skipBlanks(lx.pos)
		lx.paragraphEnd()
	default:
		r, _ := utf8.DecodeRuneInString(lx.text[lx.pos:])
		return &SyntaxError{
			Err:  apperr.ErrUnexpectedCharacter,
			Pos:  Pos{StartLine: lx.line, EndLine: lx.line, StartChar: lx.pos, EndChar: lx.pos + 1},
			Near: string(r),
		}
	}
	return nil
}

// emit appends a single-line token spanning text[start:end] and moves past it.
func (lx *lexer) emit(kind Kind, start, end int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:    kind,
		Content: lx.text[start:end],
		Pos:     Pos{StartLine: lx.line, EndLine: lx.line, StartChar: start, EndChar: end},
	})
	lx.pos = lx.skipBlanks(end)
}

func (lx *lexer) blob() error {
	start, startLine := lx.pos, lx.line
	depth := 1
	i := start + 1
	for ; depth > 0 && i < len(lx.text); i++ {
		switch lx.text[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '\n':
			lx.line++
		}
	}
	if depth > 0 {
		return &SyntaxError{
			Err:  apperr.ErrUnterminatedBlob,
			Pos:  Pos{StartLine: startLine, EndLine: lx.line, StartChar: start, EndChar: i},
			Near: truncate(lx.text[start:i]),
		}
	}

	lx.tokens = append(lx.tokens, Token{
		Kind:    KindBlob,
		Content: lx.text[start+1 : i-1],
		Pos:     Pos{StartLine: startLine, EndLine: lx.line, StartChar: start, EndChar: i},
	})
	lx.pos = lx.skipBlanks(i)
	return nil
}

// paragraphEnd runs right after a newline. It swallows any further blank
// lines and emits a paragraph-end if at least one more newline was seen or
// the next character opens a section marker.
func (lx *lexer) paragraphEnd() {
	start, startLine := lx.pos, lx.line
	end, line := start, lx.line
	sawEnd := false

	for {
		p := lx.skipBlanks(end)
		if p >= len(lx.text) || lx.text[p] != '\n' {
			break
		}
		end = p + 1
		line++
		sawEnd = true
	}
	if end < len(lx.text) && lx.text[end] == '=' {
		sawEnd = true
	}
	if !sawEnd {
		return
	}

	lx.tokens = append(lx.tokens, Token{
		Kind:    KindParagraphEnd,
		Content: lx.text[start:end],
		Pos:     Pos{StartLine: startLine, EndLine: line, StartChar: start, EndChar: end},
	})
	lx.line = line
	lx.pos = lx.skipBlanks(end)
}

func (lx *lexer) wordEnd(i int) int {
	for i < len(lx.text) {
		r, size := utf8.DecodeRuneInString(lx.text[i:])
		if unicode.IsSpace(r) || strings.ContainsRune(specialChars, r) {
			break
		}
		i += size
	}
	return i
}

func (lx *lexer) runEnd(i int, c byte) int {
	for i < len(lx.text) && lx.text[i] == c {
		i++
	}
	return i
}

func (lx *lexer) skipBlanks(i int) int {
	for i < len(lx.text) && (lx.text[i] == ' ' || lx.text[i] == '\t') {
		i++
	}
	return i
}

func truncate(s string) string {
	if len(s) > maxNear {
		return s[:maxNear] + "..."
	}
	return s
}
