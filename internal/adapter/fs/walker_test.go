package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestWalkIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "hello")
	writeFile(t, root, "docs/guide.md", "guide")
	writeFile(t, root, "docs/notes.txt", "notes")
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "skip/inner.md", "excluded")

	w := NewWalker([]string{"**/*.md", "**/*.txt"}, []string{"**/skip/**"}, 0)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	got := map[string]bool{}
	for _, f := range files {
		got[filepath.ToSlash(f.RelPath)] = true
	}

	for _, want := range []string{"readme.md", "docs/guide.md", "docs/notes.txt"} {
		if !got[want] {
			t.Errorf("expected %s in results, got %v", want, got)
		}
	}
	if got["main.go"] {
		t.Error("main.go must not match the include patterns")
	}
	if got["skip/inner.md"] {
		t.Error("excluded directory content must be skipped")
	}
}

func TestWalkMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", "ok")
	writeFile(t, root, "big.md", "this file is larger than the limit")

	w := NewWalker([]string{"**/*.md"}, nil, 10)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	if len(files) != 1 || filepath.Base(files[0].Path) != "small.md" {
		t.Errorf("expected only small.md, got %v", files)
	}
}

func TestWalkDefaultsToEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.bin", "x")

	w := NewWalker(nil, nil, 0)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("empty includes must match everything, got %d files", len(files))
	}
}

func TestWalkReportsMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "12345")

	w := NewWalker([]string{"**/*.md"}, nil, 0)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.Size != 5 {
		t.Errorf("expected size 5, got %d", f.Size)
	}
	if f.ModTime == 0 {
		t.Error("expected a mod time")
	}
	if !filepath.IsAbs(f.Path) {
		t.Errorf("expected absolute path, got %s", f.Path)
	}
}
