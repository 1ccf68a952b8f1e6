package fs

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, size, err := store.Save(context.Background(), "cert.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content %q", b)
	}

	if err := store.Remove(context.Background(), path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Best-effort: borrar de nuevo no es error.
	if err := store.Remove(context.Background(), path); err != nil {
		t.Fatalf("Remove (missing): %v", err)
	}
}

func TestSave_RejectsDuplicateName(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, _, err := store.Save(context.Background(), "a.txt", strings.NewReader("1")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, _, err := store.Save(context.Background(), "a.txt", strings.NewReader("2")); err == nil {
		t.Fatal("expected error saving duplicate name")
	}
}

func TestSave_StripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, _, err := store.Save(context.Background(), "../../evil.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Fatalf("file escaped root: %s", path)
	}
}
