package extractor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/duihelp/leadgen/internal/core/domain"
)

type storageFake struct {
	objects map[string]string
}

func (f *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestExtractPlainTextNormalizesWhitespace(t *testing.T) {
	e := New(&storageFake{objects: map[string]string{"k": "  Step 1  \r\n\r\n\r\n  Step 2\n"}})

	text, err := e.Extract(context.Background(), &domain.Document{StoragePath: "k", Filename: "steps.txt", MimeType: "text/plain"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Step 1\n\nStep 2" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	e := New(&storageFake{objects: map[string]string{"k": string([]byte{0xff, 0xfe, 0x00, 0x01})}})

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "k", Filename: "blob.bin"})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExtractDetectsPDFByMagic(t *testing.T) {
	e := New(&storageFake{objects: map[string]string{"k": "%PDF-1.4 not really a pdf"}})

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "k", Filename: "upload"})
	if err == nil || !strings.Contains(err.Error(), "pdf") {
		t.Fatalf("expected pdf parse error, got %v", err)
	}
}

func TestExtractMissingObject(t *testing.T) {
	e := New(&storageFake{})
	if _, err := e.Extract(context.Background(), &domain.Document{StoragePath: "nope"}); err == nil {
		t.Fatalf("expected error")
	}
}
