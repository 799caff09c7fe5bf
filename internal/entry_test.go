package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	posts := filepath.Join(dir, "posts")
	if err := os.MkdirAll(posts, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(posts, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("2021.01.01 - First.txt", "Series: Go\nHello.")
	write("2021.01.01-1 - Second.txt", "Series: Go\nAgain.")

	cfg := validConfig()
	cfg.Paths.PostsDir = "posts"
	cfg.Paths.OutputDir = "public"
	cfg.SQLite.Path = "blogula.db"
	cfg.ResolvePaths(dir)
	return cfg
}

func TestRun_Build(t *testing.T) {
	cfg := testConfig(t)

	if err := Run(context.Background(), WithConfig(cfg), WithMode(ModeBuild)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	home, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "index.html"))
	if err != nil {
		t.Fatalf("home page not written: %v", err)
	}
	if !strings.Contains(string(home), "/posts/second.html") {
		t.Error("home page does not link the second post")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "posts", "first.html")); err != nil {
		t.Errorf("post page: %v", err)
	}
}

func TestRun_BuildFailsOnBadPost(t *testing.T) {
	cfg := testConfig(t)
	bad := filepath.Join(cfg.Paths.PostsDir, "2021.02.01 - Bad.txt")
	if err := os.WriteFile(bad, []byte("Series: Unregistered\nText."), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), WithConfig(cfg), WithMode(ModeBuild)); err == nil {
		t.Fatal("expected build error for unknown series")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "index.html")); !os.IsNotExist(err) {
		t.Errorf("output written despite failure: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("expected error without config")
	}
	if err := Run(context.Background(), WithConfig(testConfig(t)), WithMode("deploy")); err == nil {
		t.Error("expected error for unknown mode")
	}
}
