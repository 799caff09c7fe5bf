package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/blogula/internal/apperr"
)

const dateLayout = "2006-01-02"

// PostRow represents a row in the posts table. Text fields hold the plain
// text rendering of the post's markup.
type PostRow struct {
	Path        string
	Title       string
	URL         string
	Date        time.Time
	Delta       int
	Description string
	Tags        []string
	Series      []string
	Body        string
	Checksum    string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	URL     string
	Snippet string
}

// SeriesCount is a series with the number of indexed posts in it.
type SeriesCount struct {
	Name  string
	Posts int
}

// ListQuery filters and pages ListPosts. Zero values mean no filter.
type ListQuery struct {
	Limit  int
	Offset int
	Series string
	Tag    string
}

// UpsertPost inserts or replaces a post, its FTS entry, and its series
// membership within a transaction.
func (db *DB) UpsertPost(p PostRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(p.Tags))
	seriesJSON, _ := json.Marshal(nonNil(p.Series))

	_, err = tx.Exec(`
		INSERT INTO posts (path, title, url, date, delta, description, tags, series, body, checksum, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			url         = excluded.url,
			date        = excluded.date,
			delta       = excluded.delta,
			description = excluded.description,
			tags        = excluded.tags,
			series      = excluded.series,
			body        = excluded.body,
			checksum    = excluded.checksum,
			indexed_at  = excluded.indexed_at
	`, p.Path, p.Title, p.URL, p.Date.Format(dateLayout), p.Delta, p.Description,
		string(tagsJSON), string(seriesJSON), p.Body, p.Checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	if err := ftsUpsert(tx, p.Path, p.Title, p.Body, p.Tags); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM post_series WHERE path = ?`, p.Path)
	if len(p.Series) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO post_series (path, series) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare series insert: %w", err)
		}
		defer stmt.Close()
		for _, s := range p.Series {
			if _, err := stmt.Exec(p.Path, s); err != nil {
				return fmt.Errorf("index: insert series: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePost removes a post, its FTS entry, and its series membership.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM post_series WHERE path = ?`, path)
	if _, err := tx.Exec(`DELETE FROM posts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a post, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const postColumns = `path, title, url, date, delta, description, tags, series, body, checksum`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (PostRow, error) {
	var (
		p          PostRow
		date       string
		tags, sers string
	)
	if err := s.Scan(&p.Path, &p.Title, &p.URL, &date, &p.Delta, &p.Description, &tags, &sers, &p.Body, &p.Checksum); err != nil {
		return p, err
	}
	var err error
	if p.Date, err = time.Parse(dateLayout, date); err != nil {
		return p, fmt.Errorf("index: post %s: bad date %q: %w", p.Path, date, err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return p, fmt.Errorf("index: post %s: tags: %w", p.Path, err)
	}
	if err := json.Unmarshal([]byte(sers), &p.Series); err != nil {
		return p, fmt.Errorf("index: post %s: series: %w", p.Path, err)
	}
	return p, nil
}

// GetPost returns one post by source path, or apperr.ErrNotFound.
func (db *DB) GetPost(path string) (*PostRow, error) {
	row := db.conn.QueryRow(`SELECT `+postColumns+` FROM posts WHERE path = ?`, path)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: post %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return &p, nil
}

// ListPosts returns posts newest first along with the total number of
// matches before paging.
func (db *DB) ListPosts(q ListQuery) ([]PostRow, int, error) {
	var (
		where []string
		args  []any
	)
	if q.Series != "" {
		where = append(where, `path IN (SELECT path FROM post_series WHERE series = ?)`)
		args = append(args, q.Series)
	}
	if q.Tag != "" {
		b, _ := json.Marshal(q.Tag)
		where = append(where, `tags LIKE ?`)
		args = append(args, "%"+string(b)+"%")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`SELECT `+postColumns+` FROM posts`+cond+
		` ORDER BY date DESC, delta DESC, path DESC LIMIT ? OFFSET ?`,
		append(args, limit, max(q.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Series lists every series with indexed posts, by name.
func (db *DB) Series() ([]SeriesCount, error) {
	rows, err := db.conn.Query(`SELECT series, count(*) FROM post_series GROUP BY series ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("index: series: %w", err)
	}
	defer rows.Close()

	var out []SeriesCount
	for rows.Next() {
		var s SeriesCount
		if err := rows.Scan(&s.Name, &s.Posts); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
