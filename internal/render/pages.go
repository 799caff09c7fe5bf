package render

import (
	"html/template"

	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/postdb"
)

type postSummary struct {
	URL             string
	TitleHTML       template.HTML
	DescriptionHTML template.HTML
	TagsHTML        []template.HTML
	Date            string
}

type homePageData struct {
	Site  siteData
	Posts []postSummary
}

func (r *Renderer) tagsHTML(tags []models.Text) []template.HTML {
	out := make([]template.HTML, len(tags))
	for i, t := range tags {
		out[i] = r.eval.HTML(t)
	}
	return out
}

func (r *Renderer) homePage(db *postdb.DB) ([]byte, error) {
	data := homePageData{Site: r.siteData()}
	for _, p := range db.Latest(-1) {
		data.Posts = append(data.Posts, postSummary{
			URL:             r.PostURL(p),
			TitleHTML:       r.eval.HTML(p.Title),
			DescriptionHTML: r.eval.HTML(p.Description),
			TagsHTML:        r.tagsHTML(p.Tags),
			Date:            p.Date.Format(dateFormat),
		})
	}
	return execute(r.tmpl.home, homeTemplate, data)
}

type navLink struct {
	URL       string
	TitleHTML template.HTML
}

type seriesNav struct {
	TitleHTML template.HTML
	Prev      *navLink
	Next      *navLink
}

type postData struct {
	TitleText       string
	TitleHTML       template.HTML
	DescriptionText string
	Date            string
	Lines           []LineUnit
	TagsHTML        []template.HTML
	Prev            *navLink
	Next            *navLink
	Series          []seriesNav
}

type postPageData struct {
	Site siteData
	Post postData
}

func (r *Renderer) nav(p *models.Post, ok bool) *navLink {
	if !ok {
		return nil
	}
	return &navLink{URL: r.PostURL(p), TitleHTML: r.eval.HTML(p.Title)}
}

func (r *Renderer) postPage(db *postdb.DB, p *models.Post) ([]byte, []Asset, error) {
	lines, assets, err := r.Linearize(p)
	if err != nil {
		return nil, nil, err
	}

	data := postPageData{
		Site: r.siteData(),
		Post: postData{
			TitleText:       r.eval.Text(p.Title),
			TitleHTML:       r.eval.HTML(p.Title),
			DescriptionText: r.eval.Text(p.Description),
			Date:            p.Date.Format(dateFormat),
			Lines:           lines,
			TagsHTML:        r.tagsHTML(p.Tags),
			Prev:            r.nav(db.Prev(p.Path)),
			Next:            r.nav(db.Next(p.Path)),
		},
	}
	for _, s := range p.Series {
		data.Post.Series = append(data.Post.Series, seriesNav{
			TitleHTML: r.eval.HTML(s),
			Prev:      r.nav(db.PrevInSeries(p.Path, s)),
			Next:      r.nav(db.NextInSeries(p.Path, s)),
		})
	}

	page, err := execute(r.tmpl.post, postTemplate, data)
	if err != nil {
		return nil, nil, err
	}
	return page, assets, nil
}

type humansData struct {
	Author    string
	Email     string
	Twitter   string
	Location  string
	BuildDate string
}

func (r *Renderer) humansTxt() ([]byte, error) {
	return execute(r.tmpl.humans, humansTemplate, humansData{
		Author:    r.info.Author,
		Email:     r.info.Email,
		Twitter:   r.info.Twitter,
		Location:  r.info.Location,
		BuildDate: r.now().UTC().Format("2006/01/02"),
	})
}
