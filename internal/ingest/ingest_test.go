package ingest

import (
	"strings"
	"testing"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// failReader trips the size-first invariant: the reader must never be
// touched when the declared size is already over the limit.
type failReader struct{ t *testing.T }

func (f failReader) Read([]byte) (int, error) {
	f.t.Fatal("reader consumed for an oversized file")
	return 0, nil
}

func TestIngestOversizedRejectedBeforeRead(t *testing.T) {
	ing := New()
	_, err := ing.Ingest("big.txt", MaxFileSize+1, failReader{t})
	if chat.KindOf(err) != chat.KindFileTooLarge {
		t.Fatalf("kind = %v, want file too large", chat.KindOf(err))
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	ing := New()
	for _, name := range []string{"image.png", "archive.zip", "noext"} {
		_, err := ing.Ingest(name, 10, strings.NewReader("data"))
		if chat.KindOf(err) != chat.KindUnsupportedFileType {
			t.Fatalf("%s: kind = %v, want unsupported file type", name, chat.KindOf(err))
		}
	}
}

func TestIngestTextFile(t *testing.T) {
	ing := New()
	got, err := ing.Ingest("Notes.TXT", 8, strings.NewReader("line one"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got.Content != "line one" {
		t.Fatalf("content = %q", got.Content)
	}
	if got.Extension != "txt" {
		t.Fatalf("extension = %q", got.Extension)
	}
	if got.Name != "Notes.TXT" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.SizeBytes != 8 {
		t.Fatalf("size = %d", got.SizeBytes)
	}
}

func TestIngestEmptyTextFileIsAccepted(t *testing.T) {
	ing := New()
	got, err := ing.Ingest("empty.md", 0, strings.NewReader(""))
	if err != nil {
		t.Fatalf("an empty valid file is not corrupt: %v", err)
	}
	if got.Content != "" {
		t.Fatalf("content = %q", got.Content)
	}
	if got.Extension != "md" {
		t.Fatalf("extension = %q", got.Extension)
	}
}

func TestIngestCorruptPDFIsProcessingError(t *testing.T) {
	ing := New()
	_, err := ing.Ingest("broken.pdf", 11, strings.NewReader("not a pdf at all"))
	if chat.KindOf(err) != chat.KindFileProcessing {
		t.Fatalf("kind = %v, want file processing", chat.KindOf(err))
	}
}
