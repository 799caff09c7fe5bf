// Package output models the generated site as a tree of units and writes it
// to disk.
package output

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/starford/blogula/internal/apperr"
)

// CrawlMode tells whether a unit should be listed in sitemap.xml or hidden
// from crawlers by robots.txt.
type CrawlMode int

const (
	Crawlable CrawlMode = iota
	NonCrawlable
)

func (m CrawlMode) String() string {
	if m == NonCrawlable {
		return "non-crawlable"
	}
	return "crawlable"
}

// Unit is a node of the output tree: a File, a Copy or a Dir.
type Unit interface {
	Crawl() CrawlMode
	unit()
}

// File is generated content.
type File struct {
	MIME    string
	Mode    CrawlMode
	Content []byte
}

// Copy mirrors a file or directory from the local file system.
type Copy struct {
	Mode   CrawlMode
	Source string
	IsDir  bool
}

// Dir is an ordered set of named units.
type Dir struct {
	Mode  CrawlMode
	names []string
	units map[string]Unit
}

func (f *File) Crawl() CrawlMode { return f.Mode }
func (c *Copy) Crawl() CrawlMode { return c.Mode }
func (d *Dir) Crawl() CrawlMode  { return d.Mode }

func (*File) unit() {}
func (*Copy) unit() {}
func (*Dir) unit()  {}

// NewFile builds a File unit.
func NewFile(mime string, mode CrawlMode, content []byte) *File {
	return &File{MIME: mime, Mode: mode, Content: content}
}

// NewCopy builds a Copy unit for source, which must exist.
func NewCopy(mode CrawlMode, source string) (*Copy, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("output: copy source: %w", err)
	}
	return &Copy{Mode: mode, Source: source, IsDir: info.IsDir()}, nil
}

// NewDir returns an empty directory.
func NewDir(mode CrawlMode) *Dir {
	return &Dir{Mode: mode, units: make(map[string]Unit)}
}

// Add places u at name. A slash separated name creates the missing
// intermediate directories with d's crawl mode. Claiming a taken name fails
// with apperr.ErrDuplicateOutput.
func (d *Dir) Add(name string, u Unit) error {
	name = strings.Trim(path.Clean("/"+name), "/")
	if name == "" {
		return fmt.Errorf("output: empty unit name")
	}

	parent := d
	parts := strings.Split(name, "/")
	for i, part := range parts[:len(parts)-1] {
		existing, ok := parent.units[part]
		if !ok {
			sub := NewDir(d.Mode)
			parent.put(part, sub)
			parent = sub
			continue
		}
		sub, ok := existing.(*Dir)
		if !ok {
			return fmt.Errorf("output: %s: %w", strings.Join(parts[:i+1], "/"), apperr.ErrDuplicateOutput)
		}
		parent = sub
	}

	last := parts[len(parts)-1]
	if _, ok := parent.units[last]; ok {
		return fmt.Errorf("output: %s: %w", name, apperr.ErrDuplicateOutput)
	}
	parent.put(last, u)
	return nil
}

func (d *Dir) put(name string, u Unit) {
	d.names = append(d.names, name)
	d.units[name] = u
}

// Get returns the unit at a slash separated name.
func (d *Dir) Get(name string) (Unit, bool) {
	var cur Unit = d
	for _, part := range strings.Split(strings.Trim(name, "/"), "/") {
		dir, ok := cur.(*Dir)
		if !ok {
			return nil, false
		}
		if cur, ok = dir.units[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Names returns the child names in insertion order.
func (d *Dir) Names() []string {
	return append([]string(nil), d.names...)
}

// Walk visits every unit below d in insertion order, parents before
// children. p is the absolute site path, e.g. "/posts/hello.html".
func (d *Dir) Walk(fn func(p string, u Unit) error) error {
	return d.walk("/", fn)
}

func (d *Dir) walk(prefix string, fn func(string, Unit) error) error {
	for _, name := range d.names {
		u := d.units[name]
		p := path.Join(prefix, name)
		if err := fn(p, u); err != nil {
			return err
		}
		if sub, ok := u.(*Dir); ok {
			if err := sub.walk(p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
