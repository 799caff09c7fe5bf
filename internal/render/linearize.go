package render

import (
	"fmt"
	"html/template"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
)

// Line unit kinds besides the cell kinds.
const kindHeader = "header"

// imgDir is where local images end up in the output.
const imgDir = "img"

// LineUnit is one block of a post body as the post template sees it.
type LineUnit struct {
	Kind   string
	Level  int
	HTML   template.HTML
	Header template.HTML
	Items  []template.HTML
	Src    string
	Alt    string
}

// Asset is a local file a post refers to, to be copied under /img/.
type Asset struct {
	Name   string
	Source string
}

// linearizer flattens one post's section tree.
type linearizer struct {
	eval       Evaluator
	hl         *Highlighter
	headingMin int
	headingMax int
	// postDir is the absolute directory of the post source file.
	postDir string

	units  []LineUnit
	assets []Asset
}

// HeadingLevel maps a section nesting level (1 for top-level sections) to an
// HTML heading level.
func HeadingLevel(level, lo, hi int) int {
	return min(lo+level-1, hi)
}

func (l *linearizer) section(s *models.Section, level int) error {
	if level >= 1 {
		l.units = append(l.units, LineUnit{
			Kind:  kindHeader,
			Level: HeadingLevel(level, l.headingMin, l.headingMax),
			HTML:  l.eval.HTML(s.Title),
		})
	}
	for _, p := range s.Paragraphs {
		u, err := l.cell(p.Cell)
		if err != nil {
			return err
		}
		l.units = append(l.units, u)
	}
	for _, sub := range s.Subsections {
		if err := l.section(sub, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (l *linearizer) header(h models.Text) template.HTML {
	if h == nil {
		return ""
	}
	return l.eval.HTML(h)
}

func (l *linearizer) cell(c models.Cell) (LineUnit, error) {
	u := LineUnit{}
	switch c := c.(type) {
	case models.Textual:
		u.Kind = string(models.KindTextual)
		u.HTML = l.eval.HTML(c.Text)
	case models.List:
		u.Kind = string(models.KindList)
		u.Header = l.header(c.Header)
		for _, item := range c.Items {
			u.Items = append(u.Items, l.eval.HTML(item))
		}
	case models.Formula:
		u.Kind = string(models.KindFormula)
		u.Header = l.header(c.Header)
		u.HTML = BlockMath(c.Formula)
	case models.CodeBlock:
		u.Kind = string(models.KindCodeBlock)
		u.Header = l.header(c.Header)
		code, err := l.hl.Highlight(c.Language, c.Code)
		if err != nil {
			return u, err
		}
		u.HTML = code
	case models.Image:
		u.Kind = string(models.KindImage)
		u.Header = l.header(c.Header)
		if c.Header != nil {
			u.Alt = l.eval.Text(c.Header)
		}
		src, asset, err := ResolveImage(c.Path, l.postDir)
		if err != nil {
			return u, err
		}
		u.Src = src
		if asset != nil {
			l.assets = append(l.assets, *asset)
		}
	default:
		return u, fmt.Errorf("render: unhandled cell %T", c)
	}
	return u, nil
}

// ResolveImage maps an image cell path to its URL in the output. Remote
// http(s) URLs pass through. Local paths, relative to postDir unless
// absolute, are published under /img/ with slashes flattened to
// underscores, and returned as an asset to copy.
func ResolveImage(p, postDir string) (string, *Asset, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q: %v", apperr.ErrUnsupportedPathFormat, p, err)
	}
	switch u.Scheme {
	case "http", "https":
		return p, nil, nil
	case "":
	default:
		return "", nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedPathFormat, p)
	}

	name := strings.ReplaceAll(path.Clean(filepath.ToSlash(p)), "/", "_")
	source := filepath.FromSlash(p)
	if !filepath.IsAbs(source) {
		source = filepath.Join(postDir, source)
	}
	return "/" + imgDir + "/" + name, &Asset{Name: name, Source: source}, nil
}
