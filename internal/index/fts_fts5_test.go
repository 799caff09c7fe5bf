//go:build sqlite_fts5

package index

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts_fts`).Scan(&count); err != nil {
		t.Fatalf("posts_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	r := row("fts", day(1), 0, "f1")
	r.Title = "FTS Post"
	r.Tags = []string{"search"}
	r.Body = "Blogula provides powerful full-text search capabilities."
	if err := db.UpsertPost(r); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts" || results[0].URL != "/posts/fts.html" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	r := row("gone", day(1), 0, "g")
	r.Body = "vanishing content"
	_ = db.UpsertPost(r)
	_ = db.DeletePost("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone" {
			t.Error("deleted post still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	r := row("evo", day(1), 0, "1")
	r.Title, r.Body = "Old", "original text"
	_ = db.UpsertPost(r)
	r.Title, r.Body, r.Checksum = "New", "replacement text", "2"
	_ = db.UpsertPost(r)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
