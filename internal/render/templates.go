package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	texttemplate "text/template"
)

//go:embed templates
var builtin embed.FS

const (
	homeTemplate   = "home.html"
	postTemplate   = "post.html"
	humansTemplate = "humans.txt"
	robotsTemplate = "robots.txt"
	cssFile        = "blogula.css"
)

// templates holds the parsed page templates. Files in dir, when set, take
// precedence over the embedded ones.
type templates struct {
	dir string

	home   *template.Template
	post   *template.Template
	humans *texttemplate.Template
	robots *texttemplate.Template
	css    []byte
}

var htmlFuncs = template.FuncMap{
	// heading wraps content in <hN>, N clamped to 1..6.
	"heading": func(level int, content template.HTML) template.HTML {
		level = max(1, min(level, 6))
		n := strconv.Itoa(level)
		return template.HTML("<h" + n + ">" + string(content) + "</h" + n + ">")
	},
}

func (t *templates) read(name string) ([]byte, error) {
	if t.dir != "" {
		b, err := os.ReadFile(filepath.Join(t.dir, name))
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("render: read template %s: %w", name, err)
		}
	}
	b, err := fs.ReadFile(builtin, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("render: read builtin template %s: %w", name, err)
	}
	return b, nil
}

func (t *templates) parseHTML(name string) (*template.Template, error) {
	src, err := t.read(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(htmlFuncs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("render: parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func (t *templates) parseText(name string) (*texttemplate.Template, error) {
	src, err := t.read(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := texttemplate.New(name).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("render: parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func (t *templates) load() error {
	var err error
	if t.home, err = t.parseHTML(homeTemplate); err != nil {
		return err
	}
	if t.post, err = t.parseHTML(postTemplate); err != nil {
		return err
	}
	if t.humans, err = t.parseText(humansTemplate); err != nil {
		return err
	}
	if t.robots, err = t.parseText(robotsTemplate); err != nil {
		return err
	}
	t.css, err = t.read(cssFile)
	return err
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(tmpl executor, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
