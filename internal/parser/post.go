package parser

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
)

var (
	postNameRe     = regexp.MustCompile(`^(\d{4})[.\-](\d{2})[.\-](\d{2})(-\d+)?\s*-\s*(.+)$`)
	seriesHeaderRe = regexp.MustCompile(`^Series:[ \t]*(.+)`)
	tagsHeaderRe   = regexp.MustCompile(`^Tags:[ \t]*(.+)`)
)

// postExt is dropped from the file name before it becomes the title.
const postExt = ".txt"

// PostName is what a post file name encodes.
type PostName struct {
	Date  time.Time
	Delta int
	Title string
}

// IsPostPath reports whether the base name of p follows the post naming
// convention "YYYY.MM.DD[-N] - Title".
func IsPostPath(p string) bool {
	return postNameRe.MatchString(path.Base(p))
}

// ParsePostName extracts date, delta and raw title from the base name of p.
func ParsePostName(p string) (PostName, error) {
	m := postNameRe.FindStringSubmatch(path.Base(p))
	if m == nil {
		return PostName{}, fmt.Errorf("%w: %q", apperr.ErrInvalidPostPath, p)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if year < 1 || date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return PostName{}, fmt.Errorf("%w: %s-%s-%s", apperr.ErrInvalidDate, m[1], m[2], m[3])
	}

	delta := 0
	if m[4] != "" {
		d, err := strconv.Atoi(m[4][1:])
		if err != nil {
			return PostName{}, fmt.Errorf("%w: delta %q: %v", apperr.ErrInvalidPostPath, m[4][1:], err)
		}
		delta = d
	}

	return PostName{
		Date:  date,
		Delta: delta,
		Title: strings.TrimSuffix(m[5], postExt),
	}, nil
}

// ParseInline parses a short piece of markup, such as a title or a header
// entry, into a Text. Whitespace runs collapse to single spaces first. The
// whole input must be a single Text.
func ParseInline(s string) (models.Text, error) {
	s = NormalizeSpace(s)
	tokens, err := Tokenize(s)
	if err != nil {
		return nil, err
	}

	next, text, err := ParseText(tokens, 0)
	if err != nil {
		return nil, err
	}
	if text == nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrMissingText, s)
	}
	// The last token is the synthetic paragraph end.
	if next < len(tokens)-1 {
		return nil, errAt(apperr.ErrTrailingContent, tokens[next])
	}
	return text, nil
}

// NormalizeSpace trims s and collapses internal whitespace runs to one space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParsePost builds a Post from its path, relative to the posts directory,
// and its raw content. Every series named in the header must be registered.
func ParsePost(series *models.SeriesSet, p string, content []byte) (*models.Post, error) {
	post, err := parsePost(series, p, content)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", p, err)
	}
	return post, nil
}

func parsePost(series *models.SeriesSet, p string, content []byte) (*models.Post, error) {
	name, err := ParsePostName(p)
	if err != nil {
		return nil, err
	}
	title, err := ParseInline(name.Title)
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	hdr := splitHeaders(text)

	postSeries, err := parseHeaderList(hdr.series)
	if err != nil {
		return nil, fmt.Errorf("series header: %w", err)
	}
	for _, s := range postSeries {
		if !series.Contains(s) {
			return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownSeries, s.String())
		}
	}
	tags, err := parseHeaderList(hdr.tags)
	if err != nil {
		return nil, fmt.Errorf("tags header: %w", err)
	}

	root, err := parseBody(hdr.body)
	if err != nil {
		return nil, shiftLines(err, hdr.lines)
	}

	description, ok := root.FirstTextual()
	if !ok {
		return nil, apperr.ErrMissingDescription
	}

	return &models.Post{
		Path:        p,
		Title:       title,
		Date:        name.Date,
		Delta:       name.Delta,
		Series:      dedupe(postSeries),
		Tags:        tags,
		Root:        root,
		Description: description,
	}, nil
}

// ParseBody parses post markup without header lines into its root section.
func ParseBody(body string) (*models.Section, error) {
	return parseBody(strings.ReplaceAll(body, "\r\n", "\n"))
}

func parseBody(body string) (*models.Section, error) {
	tokens, err := Tokenize(body)
	if err != nil {
		return nil, err
	}
	next, root, err := ParseSection(tokens, 0, 0, false)
	if err != nil {
		return nil, err
	}
	if next < len(tokens) {
		return nil, errAt(apperr.ErrTrailingContent, tokens[next])
	}
	return root, nil
}

type headers struct {
	series string
	tags   string
	body   string
	// lines is the number of lines consumed before body.
	lines int
}

// splitHeaders peels the optional "Series:" and "Tags:" lines, in that order,
// off the start of text.
func splitHeaders(text string) headers {
	var h headers
	pos := skipBlanks(text, 0)

	if v, n := matchHeader(seriesHeaderRe, text, pos); n > pos {
		h.series, pos = v, n
	}
	pos = skipBlanks(text, pos)
	if v, n := matchHeader(tagsHeaderRe, text, pos); n > pos {
		h.tags, pos = v, n
	}

	h.lines = strings.Count(text[:pos], "\n")
	h.body = text[pos:]
	return h
}

// matchHeader returns the header value and the position after its line.
func matchHeader(re *regexp.Regexp, text string, pos int) (string, int) {
	loc := re.FindStringSubmatchIndex(text[pos:])
	if loc == nil {
		return "", pos
	}
	end := pos + loc[1]
	if end < len(text) && text[end] == '\n' {
		end++
	}
	return text[pos+loc[2] : pos+loc[3]], end
}

func parseHeaderList(raw string) ([]models.Text, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	entries := strings.Split(raw, ",")
	out := make([]models.Text, 0, len(entries))
	for _, e := range entries {
		t, err := ParseInline(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func dedupe(ts []models.Text) []models.Text {
	if len(ts) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ts))
	out := ts[:0:0]
	for _, t := range ts {
		if _, ok := seen[t.Key()]; ok {
			continue
		}
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	return out
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
