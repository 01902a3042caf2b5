package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomicCreatesParentAndReplaces(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "frame.png")

	if _, err := WriteAtomic(dst, strings.NewReader("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := WriteAtomic(dst, strings.NewReader("second"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("second")) {
		t.Fatalf("expected %d bytes written, got %d", len("second"), n)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestWriteAtomicKeepsOldContentOnFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "cast.img")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteAtomic(dst, failingReader{}, 0o644); err == nil {
		t.Fatal("expected error from failing reader")
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Fatalf("expected old content preserved, got %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, got %d entries", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")

	content := []byte("jpeg bytes")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}

	if _, err := CopyFile(filepath.Join(dir, "missing.jpg"), dst); err == nil {
		t.Fatal("expected missing source to fail")
	}
}
