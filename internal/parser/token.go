// Package parser turns blogula markup into typed documents: a lexer with
// source positions, an inline text parser, a recursive-descent section
// parser and the post extractor built on top of them.
package parser

import "fmt"

// Kind classifies a token.
type Kind int

const (
	KindWord Kind = iota
	KindBlob
	KindSlash
	KindListMarker
	KindCellMarker
	KindSectionMarker
	KindParagraphEnd
)

var kindNames = [...]string{
	KindWord:          "word",
	KindBlob:          "blob",
	KindSlash:         "slash",
	KindListMarker:    "list-marker",
	KindCellMarker:    "cell-marker",
	KindSectionMarker: "section-marker",
	KindParagraphEnd:  "paragraph-end",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Pos is the source span of a token. Lines are zero-based; chars are byte
// offsets into the lexed text, EndChar exclusive.
type Pos struct {
	StartLine int
	EndLine   int
	StartChar int
	EndChar   int
}

// Token is a lexeme together with its span.
type Token struct {
	Kind    Kind
	Content string
	Pos     Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%s (%s)", t.Kind, t.Content)
}
