package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doclens/doclens/internal/rag/errs"
)

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected docType
	}{
		{"test.pdf", pdfDoc},
		{"DOC.DOCX", textDoc},
		{"notes.txt", textDoc},
		{"letter.odt", textDoc},
		{"memo.rtf", textDoc},
		{"image.png", unsupportedDoc},
		{"noextension", unsupportedDoc},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	_, err := ExtractText("holiday.png")
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	content := "First paragraph of notes.\n\nSecond paragraph of notes."
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != content {
		t.Errorf("got %q, want the file content back", text)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	if _, err := ExtractText(filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
