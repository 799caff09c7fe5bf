package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("First paragraph.\n\n= Section =\nMore.\n")
	if err := s.Write("2021.01.01 - A.txt", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2021.01.01 - A.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("2021/drafts/2021.02.02 - B.txt", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2021/drafts/2021.02.02 - B.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("2021.01.01 - A.txt", []byte("a"))
	_ = s.Write("img/cat.png", []byte("png"))
	_ = s.Write(".hidden/2021.01.02 - B.txt", []byte("b"))
	_ = s.Write(".swp", []byte("x"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Path != "2021.01.01 - A.txt" {
		t.Errorf("items[0].Path = %q, want %q", items[0].Path, "2021.01.01 - A.txt")
	}
	if items[1].Path != "img/cat.png" {
		t.Errorf("items[1].Path = %q, want %q", items[1].Path, "img/cat.png")
	}
	if items[1].Size != 3 {
		t.Errorf("size = %d, want 3", items[1].Size)
	}
}

func TestList_DoesNotReadContents(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root reads files regardless of mode")
	}
	s := tempRoot(t)
	_ = s.Write("img/locked.png", []byte("png"))
	p, _ := s.Abs("img/locked.png")
	if err := os.Chmod(p, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(p, 0o644) })

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "img/locked.png" {
		t.Errorf("items = %+v", items)
	}
}

func TestAbs(t *testing.T) {
	s := tempRoot(t)
	got, err := s.Abs("img/cat.png")
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	want := filepath.Join(s.Root(), "img", "cat.png")
	if got != want {
		t.Errorf("Abs = %q, want %q", got, want)
	}
	if _, err := s.Abs("../escape.png"); err == nil {
		t.Error("expected error for path outside root")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.txt", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.txt", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.txt")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".blogula-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "blogula-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
