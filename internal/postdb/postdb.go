// Package postdb assembles parsed posts into the ordered collection handed to
// the renderer: sorted by (date, delta), threaded into a site-wide chain and
// into one independent chain per registered series.
package postdb

import (
	"sort"

	"github.com/starford/blogula/internal/checksum"
	"github.com/starford/blogula/internal/models"
)

const none = -1

// link holds arena indices of the neighbours of a post, none when absent.
type link struct {
	prev, next int
}

type chain struct {
	title   models.Text
	members []int
	links   map[int]link
}

// DB is an immutable, chronologically ordered set of posts keyed by path.
// Posts live in a single arena; neighbour links are indices into it.
type DB struct {
	posts  []*models.Post
	links  []link
	byPath map[string]int

	series      []*chain
	seriesByKey map[string]*chain
}

// Assemble sorts posts and threads the global and per-series chains. It runs
// after every post is parsed. Posts with equal (date, delta) are ordered by
// path so that builds are reproducible.
func Assemble(series *models.SeriesSet, posts []*models.Post) *DB {
	sorted := append([]*models.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Before(b) {
			return true
		}
		if b.Before(a) {
			return false
		}
		return a.Path < b.Path
	})

	db := &DB{
		posts:       sorted,
		links:       make([]link, len(sorted)),
		byPath:      make(map[string]int, len(sorted)),
		seriesByKey: make(map[string]*chain, series.Len()),
	}

	all := make([]int, len(sorted))
	for i, p := range sorted {
		db.byPath[p.Path] = i
		all[i] = i
	}
	for i, l := range thread(all) {
		db.links[i] = l
	}

	for _, s := range series.All() {
		c := &chain{title: s}
		for i, p := range sorted {
			if p.InSeries(s) {
				c.members = append(c.members, i)
			}
		}
		c.links = thread(c.members)
		db.series = append(db.series, c)
		db.seriesByKey[s.Key()] = c
	}
	return db
}

// thread links consecutive members; the first has no prev, the last no next.
func thread(members []int) map[int]link {
	links := make(map[int]link, len(members))
	for i, m := range members {
		l := link{prev: none, next: none}
		if i > 0 {
			l.prev = members[i-1]
		}
		if i+1 < len(members) {
			l.next = members[i+1]
		}
		links[m] = l
	}
	return links
}

// Len returns the number of posts.
func (db *DB) Len() int { return len(db.posts) }

// Posts returns all posts, oldest first.
func (db *DB) Posts() []*models.Post {
	return append([]*models.Post(nil), db.posts...)
}

// Latest returns up to n posts, newest first.
func (db *DB) Latest(n int) []*models.Post {
	if n > len(db.posts) || n < 0 {
		n = len(db.posts)
	}
	out := make([]*models.Post, 0, n)
	for i := len(db.posts) - 1; i >= len(db.posts)-n; i-- {
		out = append(out, db.posts[i])
	}
	return out
}

// Post looks a post up by path.
func (db *DB) Post(path string) (*models.Post, bool) {
	i, ok := db.byPath[path]
	if !ok {
		return nil, false
	}
	return db.posts[i], true
}

// Next returns the post published right after the one at path.
func (db *DB) Next(path string) (*models.Post, bool) {
	i, ok := db.byPath[path]
	if !ok {
		return nil, false
	}
	return db.at(db.links[i].next)
}

// Prev returns the post published right before the one at path.
func (db *DB) Prev(path string) (*models.Post, bool) {
	i, ok := db.byPath[path]
	if !ok {
		return nil, false
	}
	return db.at(db.links[i].prev)
}

// NextInSeries returns the next post of series s after the one at path.
func (db *DB) NextInSeries(path string, s models.Text) (*models.Post, bool) {
	l, ok := db.seriesLink(path, s)
	if !ok {
		return nil, false
	}
	return db.at(l.next)
}

// PrevInSeries returns the previous post of series s before the one at path.
func (db *DB) PrevInSeries(path string, s models.Text) (*models.Post, bool) {
	l, ok := db.seriesLink(path, s)
	if !ok {
		return nil, false
	}
	return db.at(l.prev)
}

// Series returns the registered series in declaration order, including
// series no post belongs to.
func (db *DB) Series() []models.Text {
	out := make([]models.Text, len(db.series))
	for i, c := range db.series {
		out[i] = c.title
	}
	return out
}

// SeriesPosts returns the posts of series s, oldest first. It returns false
// for an unregistered series.
func (db *DB) SeriesPosts(s models.Text) ([]*models.Post, bool) {
	c, ok := db.seriesByKey[s.Key()]
	if !ok {
		return nil, false
	}
	out := make([]*models.Post, len(c.members))
	for i, m := range c.members {
		out[i] = db.posts[m]
	}
	return out, true
}

// Fingerprint digests the sources of every post in the collection.
func (db *DB) Fingerprint() string {
	sums := make([]string, len(db.posts))
	for i, p := range db.posts {
		sums[i] = p.Path + ":" + p.Checksum
	}
	return checksum.Combine(sums...)
}

func (db *DB) seriesLink(path string, s models.Text) (link, bool) {
	i, ok := db.byPath[path]
	if !ok {
		return link{}, false
	}
	c, ok := db.seriesByKey[s.Key()]
	if !ok {
		return link{}, false
	}
	l, ok := c.links[i]
	return l, ok
}

func (db *DB) at(i int) (*models.Post, bool) {
	if i == none {
		return nil, false
	}
	return db.posts[i], true
}
