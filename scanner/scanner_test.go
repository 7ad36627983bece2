//go:build cgo

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/casearch/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestScanNewChangedUnchangedMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, dir, "a.pdf", "content a")
	writeFile(t, dir, "b.pdf", "content b")
	writeFile(t, dir, "notes.txt", "ignored")

	// First scan: both PDFs are new.
	result := Scan(ctx, s, dir)
	if result.New != 2 || result.Changed != 0 || result.Unchanged != 0 || result.Missing != 0 {
		t.Fatalf("first scan: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}

	// Second scan: nothing changed.
	result = Scan(ctx, s, dir)
	if result.New != 0 || result.Unchanged != 2 {
		t.Fatalf("second scan: %+v", result)
	}

	// Change one, delete the other.
	writeFile(t, dir, "a.pdf", "content a updated")
	if err := os.Remove(filepath.Join(dir, "b.pdf")); err != nil {
		t.Fatal(err)
	}

	result = Scan(ctx, s, dir)
	if result.Changed != 1 || result.Missing != 1 {
		t.Fatalf("third scan: %+v", result)
	}

	files, err := s.ListFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Filename != "a.pdf" || files[0].Status != "pending" {
		t.Fatalf("files after scan: %+v", files)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	s := newTestStore(t)
	result := Scan(context.Background(), s, filepath.Join(t.TempDir(), "nope"))
	if len(result.Errors) == 0 {
		t.Fatal("expected an error entry for a missing directory")
	}
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.pdf", "same content")

	h1, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 || len(h1) != 64 {
		t.Errorf("hashes: %q %q", h1, h2)
	}
}
