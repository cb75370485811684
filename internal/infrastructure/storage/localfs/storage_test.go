package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Save(context.Background(), "abc_guide.txt", strings.NewReader("arraignment notes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r, err := s.Open(context.Background(), "abc_guide.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	raw, _ := io.ReadAll(r)
	if string(raw) != "arraignment notes" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "a/../../b"} {
		if err := s.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
