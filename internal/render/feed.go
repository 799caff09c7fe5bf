package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/starford/blogula/internal/postdb"
)

// RSSFeed is an RSS 2.0 document.
type RSSFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel RSSChannel `xml:"channel"`
}

// RSSChannel is the single channel of the feed.
type RSSChannel struct {
	Title          string    `xml:"title"`
	Link           string    `xml:"link"`
	Description    string    `xml:"description"`
	Language       string    `xml:"language"`
	Copyright      string    `xml:"copyright,omitempty"`
	ManagingEditor string    `xml:"managingEditor,omitempty"`
	LastBuildDate  string    `xml:"lastBuildDate"`
	Items          []RSSItem `xml:"item"`
}

// RSSItem is one post in the feed.
type RSSItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
}

// feed lists the newest PostsInFeed posts, newest first.
func (r *Renderer) feed(db *postdb.DB) ([]byte, error) {
	now := r.now().UTC()
	ch := RSSChannel{
		Title:         r.eval.Text(r.info.Title),
		Link:          r.AbsURL("/"),
		Description:   r.eval.Text(r.info.Description),
		Language:      "en",
		LastBuildDate: now.Format(time.RFC1123Z),
	}
	if r.info.Author != "" {
		ch.Copyright = "Copyright " + strconv.Itoa(now.Year()) + " " + r.info.Author
	}
	if r.info.Email != "" {
		ch.ManagingEditor = r.info.Email + " (" + r.info.Author + ")"
	}

	for _, p := range db.Latest(r.info.PostsInFeed) {
		link := r.AbsURL(r.PostURL(p))
		item := RSSItem{
			Title:       r.eval.Text(p.Title),
			Link:        link,
			GUID:        link,
			Description: r.eval.Text(p.Description),
			PubDate:     p.Date.Format(time.RFC1123Z),
		}
		for _, t := range p.Tags {
			item.Categories = append(item.Categories, r.eval.Text(t))
		}
		ch.Items = append(ch.Items, item)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(RSSFeed{Version: "2.0", Channel: ch}); err != nil {
		return nil, fmt.Errorf("render: encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
