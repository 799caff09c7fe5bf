// Package models defines the domain types for blogula: the inline text atoms,
// the document tree produced by the parser, and parsed posts.
package models

import "strings"

// RootTitle is the sentinel title of the implicit top-level section of a post.
const RootTitle = ".root"

// Atom is the smallest unit of inline text: a Word or a Function.
type Atom interface {
	atom()
	String() string
}

// Word is a run of non-special characters.
type Word struct {
	Text string
}

func (Word) atom() {}

func (w Word) String() string { return w.Text }

// Function is a slash directive with zero or more brace-delimited arguments,
// e.g. \ref{label}{url} or \f{x^2}.
type Function struct {
	Name string
	Args []string
}

func (Function) atom() {}

func (f Function) String() string {
	var b strings.Builder
	b.WriteByte('\\')
	b.WriteString(f.Name)
	for _, a := range f.Args {
		b.WriteByte('{')
		b.WriteString(a)
		b.WriteByte('}')
	}
	return b.String()
}

// Arg returns the i-th argument or "" when absent.
func (f Function) Arg(i int) string {
	if i < 0 || i >= len(f.Args) {
		return ""
	}
	return f.Args[i]
}

// Text is a non-empty ordered sequence of atoms. A nil Text means "no text",
// which is how optional cell headers are represented.
type Text []Atom

// Words builds a Text made only of words. Handy for literals and tests.
func Words(words ...string) Text {
	t := make(Text, 0, len(words))
	for _, w := range words {
		t = append(t, Word{Text: w})
	}
	return t
}

// String returns the markup form of t, atoms separated by single spaces.
func (t Text) String() string {
	parts := make([]string, len(t))
	for i, a := range t {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Key returns a canonical string usable as a map key. Two structurally
// equal texts always share a key.
func (t Text) Key() string { return t.String() }

// Equal reports whether t and o are structurally equal.
func (t Text) Equal(o Text) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !atomEqual(t[i], o[i]) {
			return false
		}
	}
	return true
}

func atomEqual(a, b Atom) bool {
	switch x := a.(type) {
	case Word:
		y, ok := b.(Word)
		return ok && x.Text == y.Text
	case Function:
		y, ok := b.(Function)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if x.Args[i] != y.Args[i] {
				return false
			}
		}
		return true
	}
	return false
}

// CellKind names the payload type of a paragraph.
type CellKind string

const (
	KindTextual   CellKind = "textual"
	KindList      CellKind = "list"
	KindFormula   CellKind = "formula"
	KindCodeBlock CellKind = "code-block"
	KindImage     CellKind = "image"
)

// Cell is the payload of a paragraph. The set of implementations is closed:
// Textual, List, Formula, CodeBlock and Image.
type Cell interface {
	Kind() CellKind
	cell()
}

// Textual is a plain paragraph of inline text.
type Textual struct {
	Text Text
}

// List is a flat list of items with an optional header.
type List struct {
	Header Text
	Items  []Text
}

// Formula is a display formula with its raw LaTeX source.
type Formula struct {
	Header  Text
	Formula string
}

// CodeBlock is a block of source code in a declared language.
type CodeBlock struct {
	Header   Text
	Language string
	Code     string
}

// Image references a local or remote picture.
type Image struct {
	Header Text
	Path   string
}

func (Textual) Kind() CellKind   { return KindTextual }
func (List) Kind() CellKind      { return KindList }
func (Formula) Kind() CellKind   { return KindFormula }
func (CodeBlock) Kind() CellKind { return KindCodeBlock }
func (Image) Kind() CellKind     { return KindImage }

func (Textual) cell()   {}
func (List) cell()      {}
func (Formula) cell()   {}
func (CodeBlock) cell() {}
func (Image) cell()     {}

// Paragraph wraps exactly one cell.
type Paragraph struct {
	Cell Cell
}

// Section is a titled node of the document tree. Nesting depth is implied by
// the position in the tree and is not stored.
type Section struct {
	Title       Text
	Paragraphs  []Paragraph
	Subsections []*Section
}

// IsRoot reports whether s carries the sentinel root title.
func (s *Section) IsRoot() bool {
	return len(s.Title) == 1 && s.Title[0] == Atom(Word{Text: RootTitle})
}

// FirstTextual returns the text of the first Textual paragraph found by a
// pre-order, depth-first walk of s.
func (s *Section) FirstTextual() (Text, bool) {
	for _, p := range s.Paragraphs {
		if t, ok := p.Cell.(Textual); ok {
			return t.Text, true
		}
	}
	for _, sub := range s.Subsections {
		if t, ok := sub.FirstTextual(); ok {
			return t, true
		}
	}
	return nil, false
}

// Walk calls fn for s and every descendant section in pre-order, passing the
// nesting level (0 for s itself).
func (s *Section) Walk(fn func(level int, sec *Section)) {
	s.walk(0, fn)
}

func (s *Section) walk(level int, fn func(int, *Section)) {
	fn(level, s)
	for _, sub := range s.Subsections {
		sub.walk(level+1, fn)
	}
}
