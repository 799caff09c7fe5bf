package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"

	"github.com/starford/blogula/internal/output"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URLSet is a sitemap.xml document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL is one crawlable location.
type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// crawlablePaths lists the site paths of crawlable files and copies under d.
// Non-crawlable directories are not descended into. A crawlable copy of a
// whole directory cannot be listed and is an error.
func crawlablePaths(prefix string, d *output.Dir) ([]string, error) {
	var out []string
	for _, name := range d.Names() {
		u, _ := d.Get(name)
		p := path.Join(prefix, name)
		if u.Crawl() == output.NonCrawlable {
			continue
		}
		switch u := u.(type) {
		case *output.File:
			out = append(out, p)
		case *output.Copy:
			if u.IsDir {
				return nil, fmt.Errorf("render: crawlable copy of directory %s", p)
			}
			out = append(out, p)
		case *output.Dir:
			sub, err := crawlablePaths(p, u)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// hiddenPaths lists the site paths robots.txt disallows: the topmost
// non-crawlable units, directories with a trailing slash.
func hiddenPaths(prefix string, d *output.Dir) []string {
	var out []string
	for _, name := range d.Names() {
		u, _ := d.Get(name)
		p := path.Join(prefix, name)
		switch u := u.(type) {
		case *output.File:
			if u.Crawl() == output.NonCrawlable {
				out = append(out, p)
			}
		case *output.Copy:
			if u.Crawl() == output.NonCrawlable {
				if u.IsDir {
					p += "/"
				}
				out = append(out, p)
			}
		case *output.Dir:
			if u.Crawl() == output.NonCrawlable {
				out = append(out, p+"/")
				continue
			}
			out = append(out, hiddenPaths(p, u)...)
		}
	}
	return out
}

func (r *Renderer) sitemapXML(root *output.Dir, robotsPath string) ([]byte, error) {
	paths, err := crawlablePaths("/", root)
	if err != nil {
		return nil, err
	}
	paths = append(paths, robotsPath)

	lastMod := r.now().UTC().Format("2006-01-02")
	set := URLSet{Xmlns: sitemapNamespace}
	for _, p := range paths {
		set.URLs = append(set.URLs, SitemapURL{Loc: r.AbsURL(p), LastMod: lastMod})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("render: encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type robotsData struct {
	Disallow   []string
	SitemapURL string
}

func (r *Renderer) robotsTxt(root *output.Dir, sitemapPath string) ([]byte, error) {
	return execute(r.tmpl.robots, robotsTemplate, robotsData{
		Disallow:   hiddenPaths("/", root),
		SitemapURL: r.AbsURL(sitemapPath),
	})
}
